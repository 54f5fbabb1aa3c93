package concierge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-concierge/pkg/logging"
)

func newTestHandler(llm LLMClient) *Handler {
	return NewHandler(newTestService(llm, nil), logging.New("error"))
}

func postChat(t *testing.T, h *Handler, mode, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Chat(mode)(w, req)
	return w
}

func TestChatHandlerSuccess(t *testing.T) {
	h := newTestHandler(&stubLLM{reply: "어떤 부위가 고민이실까요?"})

	w := postChat(t, h, ModeMedical, `{"message":"여드름 상담이요","department":"dermatology"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acne", resp.Track)
	assert.Equal(t, 1, resp.TurnCount)
	assert.Equal(t, 1, resp.AskedQuestionCount)
	assert.Equal(t, ActionNone, resp.Action)
	assert.NotNil(t, resp.HighlightTabs)
}

func TestChatHandlerAcceptsLegacyDepartmentFields(t *testing.T) {
	h := newTestHandler(&stubLLM{reply: "네."})

	for _, body := range []string{
		`{"message":"안녕하세요","dept":"checkup"}`,
		`{"message":"안녕하세요","departmentId":"checkup"}`,
		`{"message":"안녕하세요","department":"checkup","topic":"cancer"}`,
	} {
		w := postChat(t, h, ModeHealthcare, body)
		assert.Equal(t, http.StatusOK, w.Code, body)
	}
}

func TestChatHandlerValidation(t *testing.T) {
	h := newTestHandler(&stubLLM{reply: "unused"})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"missing message", `{"department":"dermatology"}`},
		{"blank message", `{"message":"   ","department":"dermatology"}`},
		{"missing department", `{"message":"안녕하세요"}`},
		{"negative turn count", `{"message":"안녕하세요","department":"dermatology","turnCount":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, h, ModeMedical, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChatHandlerUnknownDepartment(t *testing.T) {
	h := newTestHandler(&stubLLM{reply: "unused"})

	w := postChat(t, h, ModeMedical, `{"message":"안녕하세요","department":"radiology"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatHandlerGenerationFailureIs500(t *testing.T) {
	h := newTestHandler(&stubLLM{err: assert.AnError})

	w := postChat(t, h, ModeMedical, `{"message":"안녕하세요","department":"dermatology"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChatHandlerRedFlagResponseShape(t *testing.T) {
	h := newTestHandler(&stubLLM{reply: "unused"})

	w := postChat(t, h, ModeHealthcare, `{"message":"갑자기 호흡곤란이 와요","department":"dermatology","turnCount":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsRedFlag)
	assert.Equal(t, EmergencyMessage, resp.Content)
	assert.Equal(t, 2, resp.TurnCount)
}

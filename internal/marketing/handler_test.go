package marketing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-concierge/internal/ratelimit"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

func newTrackerHandler(t *testing.T, limiter ratelimit.Limiter) (*Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	h := NewHandler(NewRepository(mock), limiter, nil, logging.New("error"))
	return h, mock
}

func postJSON(handler http.HandlerFunc, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Real-Ip", ip)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

const validTrackBody = `{
	"visitor_id":"v-1","session_id":"s-1","event_name":"f1_view",
	"page_path":"/event/spring","user_agent":"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"
}`

func TestTrackSuccess(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)

	mock.ExpectExec("INSERT INTO marketing_events").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	w := postJSON(h.Track, "/api/marketing/track", validTrackBody, "1.2.3.4")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NotContains(t, resp, "silent_error")
}

func TestTrackValidation(t *testing.T) {
	h, _ := newTrackerHandler(t, nil)

	tests := []string{
		`{"session_id":"s","event_name":"e"}`,
		`{"visitor_id":"v","event_name":"e"}`,
		`{"visitor_id":"v","session_id":"s"}`,
		`{"visitor_id":`,
	}
	for _, body := range tests {
		w := postJSON(h.Track, "/api/marketing/track", body, "1.2.3.4")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestTrackRateLimitBoundary(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(60, time.Minute)
	h, mock := newTrackerHandler(t, limiter)

	for i := 0; i < 60; i++ {
		mock.ExpectExec("INSERT INTO marketing_events").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	for i := 1; i <= 60; i++ {
		w := postJSON(h.Track, "/api/marketing/track", validTrackBody, "9.9.9.9")
		require.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i)
	}

	w := postJSON(h.Track, "/api/marketing/track", validTrackBody, "9.9.9.9")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "61st request within window is rejected")

	// A different IP still gets through.
	mock.ExpectExec("INSERT INTO marketing_events").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	w = postJSON(h.Track, "/api/marketing/track", validTrackBody, "8.8.8.8")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTrackSwallowsInsertFailure(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)

	mock.ExpectExec("INSERT INTO marketing_events").
		WillReturnError(assert.AnError)

	w := postJSON(h.Track, "/api/marketing/track", validTrackBody, "1.2.3.4")
	require.Equal(t, http.StatusOK, w.Code, "tracking failures never surface")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["silent_error"])
}

func TestTrackTruncatesLongFields(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)

	longPath := strings.Repeat("a", 600)
	longUA := strings.Repeat("u", 1200)

	mock.ExpectExec("INSERT INTO marketing_events").
		WithArgs(
			pgxmock.AnyArg(), "v-1", "s-1", "f1_view", strings.Repeat("a", 500), "",
			strings.Repeat("u", 1000), "desktop", "", "", "", "", "", (*string)(nil), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := fmt.Sprintf(`{"visitor_id":"v-1","session_id":"s-1","event_name":"f1_view","page_path":%q,"user_agent":%q}`, longPath, longUA)
	w := postJSON(h.Track, "/api/marketing/track", body, "1.2.3.4")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttach(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)

	mock.ExpectExec("UPDATE marketing_events").
		WithArgs("v-1", "user-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	w := postJSON(h.Attach, "/api/marketing/attach", `{"visitor_id":"v-1","user_id":"user-1","retroactive":true}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "3 events attached", resp["message"])
}

func TestAttachValidation(t *testing.T) {
	h, _ := newTrackerHandler(t, nil)

	w := postJSON(h.Attach, "/api/marketing/attach", `{"visitor_id":"v-1"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyReport(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)

	day := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT created_at::date AS day").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"day", "f1_view", "f2_enter", "reservation_created"}).
			AddRow(day, 100, 25, 5))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/marketing/daily?from=2026-02-10&to=2026-02-16", nil)
	w := httptest.NewRecorder()
	h.Daily(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Period map[string]string `json:"period"`
		Data   []DailyFunnel     `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-02-10", resp.Period["from"])
	require.Len(t, resp.Data, 1)
	assert.InDelta(t, 25.00, resp.Data[0].F1ToF2Rate, 1e-9)
	assert.InDelta(t, 20.00, resp.Data[0].F2ToReservationRate, 1e-9)
	assert.InDelta(t, 5.00, resp.Data[0].F1ToReservationRate, 1e-9)
}

func TestDailyReportInvalidRange(t *testing.T) {
	h, _ := newTrackerHandler(t, nil)

	for _, q := range []string{
		"from=bogus",
		"from=2026-02-10&to=not-a-date",
		"from=2026-02-10&to=2026-02-01",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/marketing/daily?"+q, nil)
		w := httptest.NewRecorder()
		h.Daily(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestCreateUTMLinkEndpoint(t *testing.T) {
	h, mock := newTrackerHandler(t, nil)
	h.now = func() time.Time { return time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC) }

	mock.ExpectExec("INSERT INTO utm_links").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"channel":"meta","landing_url":"https://clinic.example.com/event","campaign_name":"spring"}`
	w := postJSON(h.CreateUTMLink, "/api/admin/marketing/utm-links", body, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var link UTMLink
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "meta", link.UTMSource)
	assert.Equal(t, "paid_social", link.UTMMedium)
	assert.Equal(t, "spring_202602", link.UTMCampaign)
	assert.Contains(t, link.FinalURL, "utm_campaign=spring_202602")
}

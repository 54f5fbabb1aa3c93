package concierge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-concierge/internal/department"
)

func promptDept() *department.Config {
	return department.Builtin("dermatology")
}

func TestComposePromptEarlyTurn(t *testing.T) {
	cfg := promptDept()
	require.NotNil(t, cfg)

	prompt := ComposePrompt(PromptInput{
		Department: cfg,
		TurnCount:  0,
		Track:      "acne",
		Message:    "여드름 흉터도 상담되나요?",
	})

	assert.Contains(t, prompt, cfg.PersonaName)
	assert.Contains(t, prompt, "상담 초반 단계")
	assert.Contains(t, prompt, "현재 상담 트랙: acne")
	assert.Contains(t, prompt, "고객: 여드름 흉터도 상담되나요?")
	assert.True(t, strings.HasSuffix(prompt, cfg.PersonaName+":"))
	assert.NotContains(t, prompt, "마지막 답변")
}

func TestComposePromptSoftGating(t *testing.T) {
	cfg := promptDept()

	byTurn := ComposePrompt(PromptInput{Department: cfg, TurnCount: 3, Message: "네"})
	assert.Contains(t, byTurn, "상담 마무리 단계")

	byQuestions := ComposePrompt(PromptInput{
		Department:         cfg,
		TurnCount:          1,
		AskedQuestionCount: 3,
		Message:            "네",
	})
	assert.Contains(t, byQuestions, "상담 마무리 단계")
}

func TestComposePromptFinalAnalysisTurn(t *testing.T) {
	cfg := promptDept()

	prompt := ComposePrompt(PromptInput{Department: cfg, TurnCount: 4, Message: "정리해 주세요"})
	assert.Contains(t, prompt, "마지막 답변")
	assert.Contains(t, prompt, "로그인 후 예약")
}

func TestComposePromptHistoryUsesPersonaLabels(t *testing.T) {
	cfg := promptDept()

	prompt := ComposePrompt(PromptInput{
		Department: cfg,
		TurnCount:  1,
		History: []ChatMessage{
			{Role: ChatRoleUser, Content: "기미가 고민이에요"},
			{Role: ChatRoleAssistant, Content: "언제부터 신경 쓰이셨을까요?"},
			{Role: ChatRoleUser, Content: "  "},
		},
		Message: "작년부터요",
	})

	assert.Contains(t, prompt, "고객: 기미가 고민이에요")
	assert.Contains(t, prompt, cfg.PersonaName+": 언제부터 신경 쓰이셨을까요?")
	// Role names from the wire never appear as labels.
	assert.NotContains(t, prompt, "assistant:")
	assert.NotContains(t, prompt, "user:")
}

func TestComposePromptCustomTurnLimit(t *testing.T) {
	cfg := promptDept()

	prompt := ComposePrompt(PromptInput{
		Department: cfg,
		TurnCount:  6,
		TurnLimit:  6,
		Message:    "마지막 질문이에요",
	})
	assert.Contains(t, prompt, "마지막 답변")
}

package concierge

import (
	"fmt"
	"strings"

	"github.com/carewave/hospital-concierge/internal/department"
)

// DefaultTurnLimit is the zero-based index of the final-analysis turn.
// Turn indexes beyond it refuse without calling the model.
const DefaultTurnLimit = 4

// DefaultQuestionSoftLimit is the number of assistant questions after which
// the prompt stops asking new ones and steers toward a reservation.
const DefaultQuestionSoftLimit = 3

const userRoleLabel = "고객"

// PromptInput carries everything the composer needs for one turn.
type PromptInput struct {
	Department         *department.Config
	TurnCount          int
	Track              string
	AskedQuestionCount int
	History            []ChatMessage
	Message            string
	TurnLimit          int
	QuestionSoftLimit  int
}

// ComposePrompt builds the full prompt for a consultation turn: a system
// instruction block gated by turn and question counts, the serialized history
// with persona role labels, and the new message.
func ComposePrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString(systemBlock(in))
	b.WriteString("\n\n")

	if history := serializeHistory(in.Department, in.History); history != "" {
		b.WriteString("지금까지의 대화:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "%s: %s\n%s:", userRoleLabel, in.Message, in.Department.PersonaName)
	return b.String()
}

func systemBlock(in PromptInput) string {
	cfg := in.Department
	turnLimit := in.TurnLimit
	if turnLimit <= 0 {
		turnLimit = DefaultTurnLimit
	}
	softLimit := in.QuestionSoftLimit
	if softLimit <= 0 {
		softLimit = DefaultQuestionSoftLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "당신은 %s의 상담 매니저 '%s'입니다.\n", cfg.Name, cfg.PersonaName)
	b.WriteString("의학적 진단이나 처방은 하지 않고, 내원 상담으로 자연스럽게 안내합니다.\n")
	if len(cfg.FocusAreas) > 0 {
		fmt.Fprintf(&b, "상담 분야: %s\n", strings.Join(cfg.FocusAreas, ", "))
	}
	if in.Track != "" {
		fmt.Fprintf(&b, "현재 상담 트랙: %s\n", cfg.TrackLabel(in.Track))
	}

	b.WriteString("\n답변 규칙:\n")
	b.WriteString("- 존댓말로 2~4문장 이내로 답합니다.\n")
	b.WriteString("- 예약을 권할 때는 [[ACTION:RESERVATION_MODAL]], 의료진 소개는 [[ACTION:DOCTOR_INTRO_MODAL]], 시술 근거 자료는 [[ACTION:EVIDENCE_MODAL]] 토큰을 문장 끝에 붙입니다.\n")
	b.WriteString("- 후기를 안내할 때는 '후기보기', 오시는 길은 '위치보기'라는 표현을 사용합니다.\n")

	switch {
	case in.TurnCount >= turnLimit:
		// Final analysis turn. The endpoint marks this response as a hard
		// stop requiring login; the model wraps up instead of probing further.
		b.WriteString("\n이번 답변은 마지막 답변입니다:\n")
		b.WriteString("- 지금까지 파악한 내용을 정리해 종합 안내를 제공합니다.\n")
		b.WriteString("- 새로운 질문은 하지 않습니다.\n")
		b.WriteString("- 더 자세한 상담은 로그인 후 예약을 통해 이어가도록 안내합니다.\n")
	case in.TurnCount >= turnLimit-1 || in.AskedQuestionCount >= softLimit:
		b.WriteString("\n상담 마무리 단계입니다:\n")
		b.WriteString("- 가급적 새로운 질문 없이 지금까지의 내용을 바탕으로 안내합니다.\n")
		b.WriteString("- 내원 상담 예약을 자연스럽게 권유합니다.\n")
	default:
		b.WriteString("\n상담 초반 단계입니다:\n")
		b.WriteString("- 고민을 구체적으로 파악하기 위한 질문을 한 번에 하나씩만 합니다.\n")
	}

	return b.String()
}

// serializeHistory flattens the conversation with role labels rewritten to the
// persona's display name.
func serializeHistory(cfg *department.Config, history []ChatMessage) string {
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		label := userRoleLabel
		if msg.Role == ChatRoleAssistant {
			label = cfg.PersonaName
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, content))
	}
	return strings.Join(lines, "\n")
}

package concierge

import (
	"regexp"
	"strings"
)

// Action tokens the model may embed in a reply. The client opens the matching
// modal and the token never reaches the displayed text.
const (
	ActionNone             = "none"
	ActionReservationModal = "RESERVATION_MODAL"
	ActionDoctorIntroModal = "DOCTOR_INTRO_MODAL"
	ActionEvidenceModal    = "EVIDENCE_MODAL"
)

var knownActions = map[string]struct{}{
	ActionReservationModal: {},
	ActionDoctorIntroModal: {},
	ActionEvidenceModal:    {},
}

var actionTokenRe = regexp.MustCompile(`\[\[ACTION:([A-Z_]+)\]\]`)

// Tabs the generated text can ask the client to highlight.
const (
	TabReview = "review"
	TabMap    = "map"
)

// questionEndings are Korean interrogative sentence endings, tested in order.
// A reply matching any of them counts as asking exactly one question this
// turn, regardless of how many endings appear.
var questionEndings = []string{
	"까요?",
	"나요?",
	"가요?",
	"세요?",
	"습니까?",
	"실래요?",
	"어때요?",
	"죠?",
}

// ProcessedReply is the structured result of post-processing a generated reply.
type ProcessedReply struct {
	// CleanText is the reply with every action token stripped.
	CleanText string
	// Action is the selected action token; when the model emitted several,
	// the last one wins.
	Action string
	// HighlightTabs lists UI tabs the reply referenced (possibly empty).
	HighlightTabs []string
	// AskedQuestion is true when the reply poses a question to the user.
	AskedQuestion bool
}

// ProcessReply extracts action tokens, tab highlights and question state from
// raw generated text.
func ProcessReply(raw string) ProcessedReply {
	result := ProcessedReply{
		Action:        ActionNone,
		HighlightTabs: []string{},
	}

	for _, match := range actionTokenRe.FindAllStringSubmatch(raw, -1) {
		if _, ok := knownActions[match[1]]; ok {
			result.Action = match[1]
		}
	}
	result.CleanText = cleanGeneratedText(raw)

	if strings.Contains(result.CleanText, "후기보기") || strings.Contains(result.CleanText, "후기 보기") {
		result.HighlightTabs = append(result.HighlightTabs, TabReview)
	}
	if strings.Contains(result.CleanText, "위치보기") || strings.Contains(result.CleanText, "위치 보기") {
		result.HighlightTabs = append(result.HighlightTabs, TabMap)
	}

	result.AskedQuestion = containsQuestion(result.CleanText)
	return result
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

// cleanGeneratedText strips all action tokens and tidies the whitespace the
// removal leaves behind.
func cleanGeneratedText(raw string) string {
	text := actionTokenRe.ReplaceAllString(raw, "")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func containsQuestion(text string) bool {
	for _, ending := range questionEndings {
		if strings.Contains(text, ending) {
			return true
		}
	}
	return false
}

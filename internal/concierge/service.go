// Package concierge implements the AI consultation flow: red-flag screening,
// track classification, prompt composition, text generation and reply
// post-processing.
package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carewave/hospital-concierge/internal/audit"
	"github.com/carewave/hospital-concierge/internal/department"
	"github.com/carewave/hospital-concierge/internal/observability/metrics"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

// Generation modes. They select the model and sampling parameters.
const (
	ModeMedical    = "medical"
	ModeHealthcare = "healthcare"
)

// EmergencyMessage is the fixed referral returned on a red-flag match.
const EmergencyMessage = "말씀해 주신 증상은 응급 상황일 수 있습니다. 온라인 상담 대신 지금 바로 119에 전화하시거나 가까운 응급실로 내원해 주세요."

// ClosedMessage is the fixed refusal for turns past the hard-stop limit.
const ClosedMessage = "상담이 이미 종료되었습니다. 이어서 상담하시려면 로그인 후 예약을 통해 진행해 주세요."

// ModeParams are the generation settings for one mode.
type ModeParams struct {
	Model       string
	Temperature float32
}

// TurnRequest is one client-carried chat turn. The server keeps no session
// state: turn count, track and question count arrive with every call.
type TurnRequest struct {
	Message            string        `json:"message"`
	History            []ChatMessage `json:"history"`
	TurnCount          int           `json:"turnCount"`
	Track              string        `json:"track"`
	AskedQuestionCount int           `json:"askedQuestionCount"`
	Department         string        `json:"department"`
}

// TurnResponse is the structured result of one chat turn.
type TurnResponse struct {
	Content            string   `json:"content"`
	Action             string   `json:"action"`
	HighlightTabs      []string `json:"highlightTabs"`
	Track              string   `json:"track"`
	TurnCount          int      `json:"turnCount"`
	AskedQuestionCount int      `json:"askedQuestionCount"`
	IsRedFlag          bool     `json:"isRedFlag,omitempty"`
	IsHardStop         bool     `json:"isHardStop,omitempty"`
	RequireLogin       bool     `json:"requireLogin,omitempty"`
}

// DepartmentResolver loads department configuration.
type DepartmentResolver interface {
	Get(ctx context.Context, id string) (*department.Config, error)
}

// AuditLogger records turn outcomes best-effort.
type AuditLogger interface {
	LogAsync(ctx context.Context, entry audit.Entry)
}

// Service orchestrates a consultation turn.
type Service struct {
	departments DepartmentResolver
	llm         LLMClient
	audits      AuditLogger
	metrics     *metrics.ConciergeMetrics
	logger      *logging.Logger
	tracer      trace.Tracer

	turnLimit         int
	questionSoftLimit int
	modes             map[string]ModeParams
}

// ServiceConfig bundles Service dependencies.
type ServiceConfig struct {
	Departments       DepartmentResolver
	LLM               LLMClient
	Audits            AuditLogger
	Metrics           *metrics.ConciergeMetrics
	Logger            *logging.Logger
	TurnLimit         int
	QuestionSoftLimit int
	Modes             map[string]ModeParams
}

// NewService creates a consultation service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.TurnLimit <= 0 {
		cfg.TurnLimit = DefaultTurnLimit
	}
	if cfg.QuestionSoftLimit <= 0 {
		cfg.QuestionSoftLimit = DefaultQuestionSoftLimit
	}
	if cfg.Modes == nil {
		cfg.Modes = map[string]ModeParams{
			ModeMedical:    {Temperature: 0.4},
			ModeHealthcare: {Temperature: 0.7},
		}
	}
	return &Service{
		departments:       cfg.Departments,
		llm:               cfg.LLM,
		audits:            cfg.Audits,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger.Component("concierge"),
		tracer:            otel.Tracer("concierge"),
		turnLimit:         cfg.TurnLimit,
		questionSoftLimit: cfg.QuestionSoftLimit,
		modes:             cfg.Modes,
	}
}

// Consult runs one chat turn end to end.
func (s *Service) Consult(ctx context.Context, mode string, req TurnRequest) (*TurnResponse, error) {
	ctx, span := s.tracer.Start(ctx, "concierge.Consult",
		trace.WithAttributes(
			attribute.String("chat.mode", mode),
			attribute.String("chat.department", req.Department),
			attribute.Int("chat.turn", req.TurnCount),
		))
	defer span.End()

	cfg, err := s.departments.Get(ctx, req.Department)
	if err != nil {
		return nil, err
	}

	// Red-flag screening runs before any other state is read, so track and
	// turn state can never bypass it.
	if cfg.HasRedFlag(req.Message) {
		s.metrics.ObserveTurn(mode, "red_flag")
		s.logger.Info("red flag detected", "department", cfg.ID, "turn", req.TurnCount)
		return &TurnResponse{
			Content:            EmergencyMessage,
			Action:             ActionNone,
			HighlightTabs:      []string{},
			Track:              req.Track,
			TurnCount:          req.TurnCount,
			AskedQuestionCount: req.AskedQuestionCount,
			IsRedFlag:          true,
		}, nil
	}

	turnLimit := s.turnLimit
	if cfg.TurnLimit > 0 {
		turnLimit = cfg.TurnLimit
	}

	// Past the hard stop: fixed refusal, no generation call.
	if req.TurnCount > turnLimit {
		s.metrics.ObserveTurn(mode, "closed")
		return &TurnResponse{
			Content:            ClosedMessage,
			Action:             ActionNone,
			HighlightTabs:      []string{},
			Track:              req.Track,
			TurnCount:          req.TurnCount,
			AskedQuestionCount: req.AskedQuestionCount,
			IsHardStop:         true,
			RequireLogin:       true,
		}, nil
	}

	// Classification runs at most once per conversation; a client-supplied
	// track is reused unconditionally.
	track := req.Track
	if track == "" {
		track = cfg.ClassifyTrack(req.Message)
		span.SetAttributes(attribute.String("chat.track", track))
	}

	prompt := ComposePrompt(PromptInput{
		Department:         cfg,
		TurnCount:          req.TurnCount,
		Track:              track,
		AskedQuestionCount: req.AskedQuestionCount,
		History:            req.History,
		Message:            req.Message,
		TurnLimit:          turnLimit,
		QuestionSoftLimit:  s.questionSoftLimit,
	})

	params := s.modes[mode]
	start := time.Now()
	llmResp, err := s.complete(ctx, params, prompt)
	s.metrics.ObserveGenerationLatency(mode, time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveTurn(mode, "generation_error")
		return nil, fmt.Errorf("concierge: generation failed: %w", err)
	}

	processed := ProcessReply(llmResp.Text)

	resp := &TurnResponse{
		Content:            processed.CleanText,
		Action:             processed.Action,
		HighlightTabs:      processed.HighlightTabs,
		Track:              track,
		TurnCount:          req.TurnCount + 1,
		AskedQuestionCount: req.AskedQuestionCount,
	}
	if processed.AskedQuestion {
		resp.AskedQuestionCount++
	}
	if req.TurnCount >= turnLimit {
		resp.IsHardStop = true
		resp.RequireLogin = true
	}

	s.metrics.ObserveTurn(mode, "ok")
	s.auditTurn(ctx, mode, cfg.ID, track, req.TurnCount, processed.Action)
	return resp, nil
}

func (s *Service) complete(ctx context.Context, params ModeParams, prompt string) (LLMResponse, error) {
	ctx, span := s.tracer.Start(ctx, "concierge.generate",
		trace.WithAttributes(attribute.String("llm.model", params.Model)))
	defer span.End()

	return s.llm.Complete(ctx, LLMRequest{
		Model:       params.Model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		Temperature: params.Temperature,
	})
}

func (s *Service) auditTurn(ctx context.Context, mode, departmentID, track string, turn int, action string) {
	if s.audits == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"mode":       mode,
		"department": departmentID,
		"track":      track,
		"turn":       turn,
		"action":     action,
	})
	s.audits.LogAsync(ctx, audit.Entry{
		Action:      "concierge.turn",
		EntityTable: "chat_turns",
		Metadata:    meta,
	})
}

package concierge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/carewave/hospital-concierge/internal/department"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

// Handler exposes the chat endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// turnRequestBody is the wire shape of a chat turn. Older frontends send the
// department under "dept" or "departmentId"; all three are accepted.
type turnRequestBody struct {
	Message            string        `json:"message"`
	History            []ChatMessage `json:"history"`
	TurnCount          int           `json:"turnCount"`
	Track              string        `json:"track"`
	Topic              string        `json:"topic"`
	AskedQuestionCount int           `json:"askedQuestionCount"`
	Department         string        `json:"department"`
	Dept               string        `json:"dept"`
	DepartmentID       string        `json:"departmentId"`
}

func (b *turnRequestBody) toTurnRequest() TurnRequest {
	dept := b.Department
	if dept == "" {
		dept = b.Dept
	}
	if dept == "" {
		dept = b.DepartmentID
	}
	track := b.Track
	if track == "" {
		track = b.Topic
	}
	return TurnRequest{
		Message:            b.Message,
		History:            b.History,
		TurnCount:          b.TurnCount,
		Track:              track,
		AskedQuestionCount: b.AskedQuestionCount,
		Department:         dept,
	}
}

// Chat returns the POST handler for one generation mode.
func (h *Handler) Chat(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body turnRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		req := body.toTurnRequest()
		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}
		if req.Department == "" {
			http.Error(w, "department is required", http.StatusBadRequest)
			return
		}
		if req.TurnCount < 0 || req.AskedQuestionCount < 0 {
			http.Error(w, "counters must be non-negative", http.StatusBadRequest)
			return
		}

		resp, err := h.service.Consult(r.Context(), mode, req)
		if err != nil {
			if errors.Is(err, department.ErrNotFound) {
				http.Error(w, "unknown department", http.StatusNotFound)
				return
			}
			h.logger.Error("chat turn failed", "mode", mode, "department", req.Department, "error", err)
			http.Error(w, "consultation unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

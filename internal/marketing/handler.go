package marketing

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/carewave/hospital-concierge/internal/observability/metrics"
	"github.com/carewave/hospital-concierge/internal/ratelimit"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

// Handler exposes the tracking and reporting endpoints.
type Handler struct {
	repo    *Repository
	limiter ratelimit.Limiter
	metrics *metrics.TrackerMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler creates a marketing handler.
func NewHandler(repo *Repository, limiter ratelimit.Limiter, m *metrics.TrackerMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:    repo,
		limiter: limiter,
		metrics: m,
		logger:  logger.Component("marketing"),
		now:     time.Now,
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Real-Ip /
	// X-Forwarded-For; the header check covers bare handler tests.
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Track handles POST /api/marketing/track. Tracking is fire-and-forget from
// the client's perspective: insert failures are swallowed and reported as
// success so analytics can never degrade the page.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.Context(), clientIP(r)) {
		h.metrics.ObserveRateLimited()
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	req.Sanitize()
	event := &Event{
		VisitorID:   req.VisitorID,
		SessionID:   req.SessionID,
		EventName:   req.EventName,
		PagePath:    req.PagePath,
		Referrer:    req.Referrer,
		UserAgent:   req.UserAgent,
		DeviceType:  ClassifyDevice(req.UserAgent),
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMContent:  req.UTMContent,
		UTMTerm:     req.UTMTerm,
	}

	if err := h.repo.InsertEvent(r.Context(), event); err != nil {
		h.metrics.ObserveSilentError()
		h.logger.Warn("event insert swallowed", "event", event.EventName, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "silent_error": true})
		return
	}

	h.metrics.ObserveEvent(event.EventName, event.DeviceType)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Attach handles POST /api/marketing/attach.
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VisitorID   string `json:"visitor_id"`
		UserID      string `json:"user_id"`
		Retroactive bool   `json:"retroactive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.VisitorID == "" || req.UserID == "" {
		http.Error(w, "visitor_id and user_id are required", http.StatusBadRequest)
		return
	}

	attached, err := h.repo.AttachUser(r.Context(), req.VisitorID, req.UserID, req.Retroactive)
	if err != nil {
		h.logger.Error("attach failed", "visitor_id", req.VisitorID, "error", err)
		http.Error(w, "attach failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": strconv.FormatInt(attached, 10) + " events attached",
	})
}

// Daily handles GET /api/admin/marketing/daily.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	to := h.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -6)

	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse("2006-01-02", s); err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse("2006-01-02", s); err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
	}
	if to.Before(from) {
		http.Error(w, "to must not precede from", http.StatusBadRequest)
		return
	}

	data, err := h.repo.DailyFunnel(r.Context(), from, to)
	if err != nil {
		h.logger.Error("daily funnel failed", "error", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = []DailyFunnel{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period": map[string]string{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		},
		"data": data,
	})
}

// Conversions handles GET /api/admin/marketing/conversions.
func (h *Handler) Conversions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ConversionFilter{
		Date:     q.Get("date"),
		Source:   q.Get("source"),
		Campaign: q.Get("campaign"),
		Page:     1,
		Limit:    20,
	}
	if s := q.Get("page"); s != "" {
		if page, err := strconv.Atoi(s); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if s := q.Get("limit"); s != "" {
		if limit, err := strconv.Atoi(s); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	events, total, err := h.repo.ListConversions(r.Context(), filter)
	if err != nil {
		h.logger.Error("conversions listing failed", "error", err)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":  filter.Page,
		"limit": filter.Limit,
		"total": total,
		"data":  events,
	})
}

// CreateUTMLink handles POST /api/admin/marketing/utm-links.
func (h *Handler) CreateUTMLink(w http.ResponseWriter, r *http.Request) {
	var req BuildUTMLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	link, err := BuildUTMLink(req, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.repo.SaveUTMLink(r.Context(), &link); err != nil {
		h.logger.Error("utm link save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// ListUTMLinks handles GET /api/admin/marketing/utm-links.
func (h *Handler) ListUTMLinks(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	links, err := h.repo.ListUTMLinks(r.Context(), limit)
	if err != nil {
		h.logger.Error("utm links listing failed", "error", err)
		http.Error(w, "listing unavailable", http.StatusInternalServerError)
		return
	}
	if links == nil {
		links = []UTMLink{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": links})
}

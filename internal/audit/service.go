// Package audit records best-effort action logs. Writes never surface
// failures to the caller: they are logged and dropped.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carewave/hospital-concierge/pkg/logging"
)

// DB is the subset of pgxpool.Pool the audit service needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Entry is a write-once audit record. It is never read back by this service.
type Entry struct {
	ID          string          `json:"id"`
	ActorUserID string          `json:"actor_user_id,omitempty"`
	Action      string          `json:"action"`
	EntityTable string          `json:"entity_table,omitempty"`
	EntityID    string          `json:"entity_id,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Service persists audit entries.
type Service struct {
	db     DB
	logger *logging.Logger

	// asyncTimeout bounds each fire-and-forget insert.
	asyncTimeout time.Duration

	onDrop func()
}

// NewService creates an audit service.
func NewService(db DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		db:           db,
		logger:       logger.Component("audit"),
		asyncTimeout: 5 * time.Second,
	}
}

// OnDrop registers a callback invoked whenever an async write is dropped.
func (s *Service) OnDrop(fn func()) {
	if s != nil {
		s.onDrop = fn
	}
}

// Log inserts an audit entry synchronously.
func (s *Service) Log(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (id, actor_user_id, action, entity_table, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		entry.ID,
		nullable(entry.ActorUserID),
		entry.Action,
		nullable(entry.EntityTable),
		nullable(entry.EntityID),
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert failed: %w", err)
	}
	return nil
}

// LogAsync inserts an audit entry without blocking the request and swallows
// any failure. The write continues past request cancellation, bounded by its
// own timeout.
func (s *Service) LogAsync(ctx context.Context, entry Entry) {
	if s == nil || s.db == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(detached, s.asyncTimeout)
		defer cancel()
		if err := s.Log(writeCtx, entry); err != nil {
			s.logger.Warn("audit write dropped", "action", entry.Action, "error", err)
			if s.onDrop != nil {
				s.onDrop()
			}
		}
	}()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

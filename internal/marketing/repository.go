package marketing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Attribution windows for attaching an authenticated user to earlier
// anonymous events.
const (
	retroactiveWindow = 30 * 24 * time.Hour
	sessionWindow     = 24 * time.Hour
)

// Repository stores marketing events and UTM links in Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a marketing repository.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("marketing: db required")
	}
	return &Repository{db: db}
}

// InsertEvent writes one immutable event row.
func (r *Repository) InsertEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO marketing_events (
			id, visitor_id, session_id, event_name, page_path, referrer,
			user_agent, device_type, utm_source, utm_medium, utm_campaign,
			utm_content, utm_term, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.VisitorID, e.SessionID, e.EventName, e.PagePath, e.Referrer,
		e.UserAgent, e.DeviceType, e.UTMSource, e.UTMMedium, e.UTMCampaign,
		e.UTMContent, e.UTMTerm, e.UserID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("marketing: insert event failed: %w", err)
	}
	return nil
}

// AttachUser back-fills user_id on a visitor's anonymous events. With
// retroactive set the window is 30 days, otherwise only the last day
// (the visitor's current session).
func (r *Repository) AttachUser(ctx context.Context, visitorID, userID string, retroactive bool) (int64, error) {
	window := sessionWindow
	if retroactive {
		window = retroactiveWindow
	}

	query := `
		UPDATE marketing_events
		SET user_id = $2
		WHERE visitor_id = $1 AND user_id IS NULL AND created_at >= $3
	`
	tag, err := r.db.Exec(ctx, query, visitorID, userID, time.Now().UTC().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("marketing: attach user failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DailyFunnel aggregates funnel events per calendar date within [from, to].
func (r *Repository) DailyFunnel(ctx context.Context, from, to time.Time) ([]DailyFunnel, error) {
	query := `
		SELECT created_at::date AS day,
			COUNT(*) FILTER (WHERE event_name = $3) AS f1_view,
			COUNT(*) FILTER (WHERE event_name = $4) AS f2_enter,
			COUNT(*) FILTER (WHERE event_name = $5) AS reservation_created
		FROM marketing_events
		WHERE created_at >= $1 AND created_at < $2
			AND event_name IN ($3, $4, $5)
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, from, to.AddDate(0, 0, 1),
		EventFunnelView, EventFunnelEnter, EventReservationCreated)
	if err != nil {
		return nil, fmt.Errorf("marketing: daily funnel query failed: %w", err)
	}
	defer rows.Close()

	var out []DailyFunnel
	for rows.Next() {
		var day time.Time
		var d DailyFunnel
		if err := rows.Scan(&day, &d.F1View, &d.F2Enter, &d.ReservationCreated); err != nil {
			return nil, fmt.Errorf("marketing: daily funnel scan failed: %w", err)
		}
		d.Date = day.Format("2006-01-02")
		d.F1ToF2Rate = ratePercent(d.F2Enter, d.F1View)
		d.F2ToReservationRate = ratePercent(d.ReservationCreated, d.F2Enter)
		d.F1ToReservationRate = ratePercent(d.ReservationCreated, d.F1View)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketing: daily funnel rows failed: %w", err)
	}
	return out, nil
}

// ConversionFilter narrows the conversion listing.
type ConversionFilter struct {
	Date     string // "2006-01-02", optional
	Source   string
	Campaign string
	Page     int // 1-based
	Limit    int
}

// ListConversions returns reservation_created events matching the filter plus
// the unpaginated total.
func (r *Repository) ListConversions(ctx context.Context, f ConversionFilter) ([]Event, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	where := "WHERE event_name = $1"
	args := []any{EventReservationCreated}
	argIdx := 2
	if f.Date != "" {
		where += fmt.Sprintf(" AND created_at::date = $%d", argIdx)
		args = append(args, f.Date)
		argIdx++
	}
	if f.Source != "" {
		where += fmt.Sprintf(" AND utm_source = $%d", argIdx)
		args = append(args, f.Source)
		argIdx++
	}
	if f.Campaign != "" {
		where += fmt.Sprintf(" AND utm_campaign = $%d", argIdx)
		args = append(args, f.Campaign)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM marketing_events " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("marketing: conversions count failed: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, visitor_id, session_id, event_name, page_path, referrer,
			user_agent, device_type, utm_source, utm_medium, utm_campaign,
			utm_content, utm_term, user_id, created_at
		FROM marketing_events %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("marketing: conversions query failed: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.VisitorID, &e.SessionID, &e.EventName, &e.PagePath, &e.Referrer,
			&e.UserAgent, &e.DeviceType, &e.UTMSource, &e.UTMMedium, &e.UTMCampaign,
			&e.UTMContent, &e.UTMTerm, &e.UserID, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("marketing: conversions scan failed: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("marketing: conversions rows failed: %w", err)
	}
	return events, total, nil
}

// SaveUTMLink persists a built campaign link.
func (r *Repository) SaveUTMLink(ctx context.Context, link *UTMLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO utm_links (
			id, channel, landing_url, campaign_name, utm_source, utm_medium,
			utm_campaign, utm_content, utm_term, final_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		link.ID, link.Channel, link.LandingURL, link.CampaignName, link.UTMSource,
		link.UTMMedium, link.UTMCampaign, link.UTMContent, link.UTMTerm,
		link.FinalURL, link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("marketing: insert utm link failed: %w", err)
	}
	return nil
}

// ListUTMLinks returns saved links, newest first.
func (r *Repository) ListUTMLinks(ctx context.Context, limit int) ([]UTMLink, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, channel, landing_url, campaign_name, utm_source, utm_medium,
			utm_campaign, utm_content, utm_term, final_url, created_at
		FROM utm_links
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("marketing: utm links query failed: %w", err)
	}
	defer rows.Close()

	var links []UTMLink
	for rows.Next() {
		var l UTMLink
		if err := rows.Scan(
			&l.ID, &l.Channel, &l.LandingURL, &l.CampaignName, &l.UTMSource,
			&l.UTMMedium, &l.UTMCampaign, &l.UTMContent, &l.UTMTerm,
			&l.FinalURL, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("marketing: utm links scan failed: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketing: utm links rows failed: %w", err)
	}
	return links, nil
}

// ratePercent returns part/whole as a percentage rounded to two decimals,
// or 0 when the denominator is 0.
func ratePercent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package marketing implements the attribution pipeline: event tracking,
// retroactive user attachment, funnel reporting and UTM link building.
package marketing

import (
	"errors"
	"time"
)

// Field length caps applied before insert. Tracking input is attacker-
// controlled, so everything free-text is truncated, never rejected.
const (
	maxFieldLen     = 500
	maxUserAgentLen = 1000
)

// Funnel event names used by the daily aggregator.
const (
	EventFunnelView         = "f1_view"
	EventFunnelEnter        = "f2_enter"
	EventReservationCreated = "reservation_created"
)

// ErrMissingFields is returned when a tracking call lacks required ids.
var ErrMissingFields = errors.New("marketing: visitor_id, session_id and event_name are required")

// Event is an immutable marketing event row. UserID is nullable and may be
// back-filled later by Attach.
type Event struct {
	ID          string    `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	SessionID   string    `json:"session_id"`
	EventName   string    `json:"event_name"`
	PagePath    string    `json:"page_path,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	UTMContent  string    `json:"utm_content,omitempty"`
	UTMTerm     string    `json:"utm_term,omitempty"`
	UserID      *string   `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrackRequest is the wire shape of a tracking call.
type TrackRequest struct {
	VisitorID   string `json:"visitor_id"`
	SessionID   string `json:"session_id"`
	EventName   string `json:"event_name"`
	PagePath    string `json:"page_path"`
	Referrer    string `json:"referrer"`
	UserAgent   string `json:"user_agent"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMTerm     string `json:"utm_term"`
}

// Validate checks required identifiers.
func (r *TrackRequest) Validate() error {
	if r.VisitorID == "" || r.SessionID == "" || r.EventName == "" {
		return ErrMissingFields
	}
	return nil
}

// Sanitize truncates free-text fields in place.
func (r *TrackRequest) Sanitize() {
	r.VisitorID = truncate(r.VisitorID, maxFieldLen)
	r.SessionID = truncate(r.SessionID, maxFieldLen)
	r.EventName = truncate(r.EventName, maxFieldLen)
	r.PagePath = truncate(r.PagePath, maxFieldLen)
	r.Referrer = truncate(r.Referrer, maxFieldLen)
	r.UserAgent = truncate(r.UserAgent, maxUserAgentLen)
	r.UTMSource = truncate(r.UTMSource, maxFieldLen)
	r.UTMMedium = truncate(r.UTMMedium, maxFieldLen)
	r.UTMCampaign = truncate(r.UTMCampaign, maxFieldLen)
	r.UTMContent = truncate(r.UTMContent, maxFieldLen)
	r.UTMTerm = truncate(r.UTMTerm, maxFieldLen)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// DailyFunnel is one calendar day of funnel counts and conversion ratios.
// Ratios are percentages rounded to two decimals; a ratio with a zero
// denominator is 0.
type DailyFunnel struct {
	Date                string  `json:"date"`
	F1View              int     `json:"f1_view"`
	F2Enter             int     `json:"f2_enter"`
	ReservationCreated  int     `json:"reservation_created"`
	F1ToF2Rate          float64 `json:"f1ToF2Rate"`
	F2ToReservationRate float64 `json:"f2ToReservationRate"`
	F1ToReservationRate float64 `json:"f1ToReservationRate"`
}

// UTMLink is a persisted campaign link.
type UTMLink struct {
	ID           string    `json:"id"`
	Channel      string    `json:"channel"`
	LandingURL   string    `json:"landing_url"`
	CampaignName string    `json:"campaign_name"`
	UTMSource    string    `json:"utm_source"`
	UTMMedium    string    `json:"utm_medium"`
	UTMCampaign  string    `json:"utm_campaign"`
	UTMContent   string    `json:"utm_content,omitempty"`
	UTMTerm      string    `json:"utm_term,omitempty"`
	FinalURL     string    `json:"final_url"`
	CreatedAt    time.Time `json:"created_at"`
}

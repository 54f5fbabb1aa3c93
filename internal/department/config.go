// Package department provides per-department configuration for the concierge.
package department

import "strings"

// TrackRule maps message keywords to a consultation track. Rules are evaluated
// in order; the first rule with a matching keyword wins.
type TrackRule struct {
	Track    string   `json:"track"`
	Keywords []string `json:"keywords"`
}

// Config holds department-specific configuration.
type Config struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PersonaName string `json:"persona_name"`
	Theme       string `json:"theme,omitempty"`
	Greeting    string `json:"greeting,omitempty"`

	// RedFlagKeywords trigger the fixed emergency referral and bypass the
	// rest of the consultation pipeline. Matching is case-sensitive substring
	// containment.
	RedFlagKeywords []string `json:"red_flag_keywords"`

	TrackRules   []TrackRule `json:"track_rules,omitempty"`
	DefaultTrack string      `json:"default_track"`

	// FocusAreas feed the system prompt ("what this department consults on").
	FocusAreas []string `json:"focus_areas,omitempty"`

	// TurnLimit is the zero-based index of the final-analysis turn. Zero
	// means "use the platform default".
	TurnLimit int `json:"turn_limit,omitempty"`
}

// HasRedFlag reports whether message contains any red-flag keyword.
// Matching is deliberately case-sensitive substring containment: the keyword
// lists are Korean symptom phrases, and normalization would not change them.
func (c *Config) HasRedFlag(message string) bool {
	if c == nil || message == "" {
		return false
	}
	for _, kw := range c.RedFlagKeywords {
		if kw != "" && strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// ClassifyTrack maps a first-turn message to a consultation track. The first
// rule with any contained keyword wins; unclassifiable input falls back to
// the department default track.
func (c *Config) ClassifyTrack(message string) string {
	if c == nil {
		return ""
	}
	for _, rule := range c.TrackRules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(message, kw) {
				return rule.Track
			}
		}
	}
	return c.DefaultTrack
}

// TrackLabel returns the display label for a track id, falling back to the
// id itself when the department has no rule for it.
func (c *Config) TrackLabel(track string) string {
	if c == nil || track == "" {
		return track
	}
	for _, rule := range c.TrackRules {
		if rule.Track == track {
			return rule.Track
		}
	}
	return track
}

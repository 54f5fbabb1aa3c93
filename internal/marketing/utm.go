package marketing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// channelMediums maps a marketing channel to its utm_medium. Channels without
// an entry fall back to "referral".
var channelMediums = map[string]string{
	"meta":      "paid_social",
	"facebook":  "paid_social",
	"instagram": "paid_social",
	"kakao":     "paid_social",
	"google":    "cpc",
	"naver":     "cpc",
	"email":     "email",
}

const defaultMedium = "referral"

// BuildUTMLinkRequest is the input for building a campaign link.
type BuildUTMLinkRequest struct {
	Channel      string `json:"channel"`
	LandingURL   string `json:"landing_url"`
	CampaignName string `json:"campaign_name"`
	UTMContent   string `json:"utm_content"`
	UTMTerm      string `json:"utm_term"`
}

// Validate checks the required builder fields.
func (r *BuildUTMLinkRequest) Validate() error {
	if r.Channel == "" || r.LandingURL == "" || r.CampaignName == "" {
		return errors.New("marketing: channel, landing_url and campaign_name are required")
	}
	if _, err := url.ParseRequestURI(r.LandingURL); err != nil {
		return fmt.Errorf("marketing: invalid landing_url: %w", err)
	}
	return nil
}

// BuildUTMLink derives the UTM parameters and final URL for a campaign link.
// utm_campaign is the campaign name suffixed with the current month (YYYYMM),
// so monthly relaunches of the same campaign stay distinguishable in reports.
func BuildUTMLink(req BuildUTMLinkRequest, now time.Time) (UTMLink, error) {
	if err := req.Validate(); err != nil {
		return UTMLink{}, err
	}

	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	medium, ok := channelMediums[channel]
	if !ok {
		medium = defaultMedium
	}

	link := UTMLink{
		Channel:      channel,
		LandingURL:   req.LandingURL,
		CampaignName: req.CampaignName,
		UTMSource:    channel,
		UTMMedium:    medium,
		UTMCampaign:  fmt.Sprintf("%s_%s", req.CampaignName, now.Format("200601")),
		UTMContent:   req.UTMContent,
		UTMTerm:      req.UTMTerm,
	}

	parsed, err := url.Parse(req.LandingURL)
	if err != nil {
		return UTMLink{}, fmt.Errorf("marketing: invalid landing_url: %w", err)
	}
	query := parsed.Query()
	query.Set("utm_source", link.UTMSource)
	query.Set("utm_medium", link.UTMMedium)
	query.Set("utm_campaign", link.UTMCampaign)
	if link.UTMContent != "" {
		query.Set("utm_content", link.UTMContent)
	}
	if link.UTMTerm != "" {
		query.Set("utm_term", link.UTMTerm)
	}
	parsed.RawQuery = query.Encode()
	link.FinalURL = parsed.String()

	return link, nil
}

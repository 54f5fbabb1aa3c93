package marketing

import "strings"

// Tablet keywords are checked before mobile ones: most tablet user agents also
// carry mobile markers ("Android", "Mobile") and would misclassify otherwise.
var tabletKeywords = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

var mobileKeywords = []string{"iphone", "ipod", "android", "mobi", "iemobile", "opera mini", "blackberry"}

// ClassifyDevice maps a user-agent string to "tablet", "mobile" or "desktop".
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, kw := range tabletKeywords {
		if strings.Contains(ua, kw) {
			return "tablet"
		}
	}
	for _, kw := range mobileKeywords {
		if strings.Contains(ua, kw) {
			return "mobile"
		}
	}
	return "desktop"
}

package discovery

import (
	"regexp"
	"strings"
)

// VideoLinkSelector matches item links in the listing grid
const VideoLinkSelector = `a[href*="/video/"]`

var responseVideoID = regexp.MustCompile(`video/(\d+)`)

// ParseVideoHref extracts the numeric ID from an item link such as
// https://www.tiktok.com/@user/video/7301234567890123456?lang=en
func ParseVideoHref(href string) string {
	i := strings.LastIndex(href, "video/")
	if i < 0 {
		return ""
	}
	id := href[i+len("video/"):]
	if j := strings.IndexByte(id, '?'); j >= 0 {
		id = id[:j]
	}
	if j := strings.IndexByte(id, '/'); j >= 0 {
		id = id[:j]
	}
	if !isDigits(id) {
		return ""
	}
	return id
}

// IDFromResponseURL extracts an item ID embedded in a network response URL
func IDFromResponseURL(u string) string {
	m := responseVideoID.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package tiktok

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the public web origin
	BaseURL = "https://www.tiktok.com"

	// VideoPathPattern addresses a video without knowing its author
	VideoPathPattern = "/@_/video/%s"

	// TagPathPattern is the listing view of a hashtag
	TagPathPattern = "/tag/%s"

	// RehydrationScriptID is the script element carrying the page state
	RehydrationScriptID = "__UNIVERSAL_DATA_FOR_REHYDRATION__"

	// SigiScriptID is the page state script of older page builds
	SigiScriptID = "SIGI_STATE"

	videoDetailScope = "webapp.video-detail"
)

// Status codes carried in the page state of the video detail scope
const (
	StatusOK            = 0
	StatusItemNotFound  = 10204
	StatusItemPrivate   = 10216
	StatusLoginRequired = 10222
)

// VideoURL builds the canonical reference for a video ID
func VideoURL(base, id string) string {
	return strings.TrimRight(base, "/") + fmt.Sprintf(VideoPathPattern, url.PathEscape(id))
}

// TagURL builds the listing URL for a sanitized hashtag
func TagURL(base, tag string) string {
	return strings.TrimRight(base, "/") + fmt.Sprintf(TagPathPattern, url.PathEscape(tag))
}

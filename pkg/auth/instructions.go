package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints how to copy the TikTok session cookies out of a browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "TIKTOK COOKIE EXTRACTION")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Hydration works without an account, but TikTok serves fewer")
	fmt.Fprintln(w, "\"login required\" pages to requests that carry a browser token.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Open https://www.tiktok.com in your browser and browse a few videos")
	fmt.Fprintln(w, "2. Open Developer Tools (F12, or Cmd+Option+I on macOS)")
	fmt.Fprintln(w, "3. Application (Chrome) or Storage (Firefox) > Cookies > https://www.tiktok.com")
	fmt.Fprintln(w, "4. Copy the values of:")
	fmt.Fprintln(w, "     msToken    long base64-like string, changes often")
	fmt.Fprintln(w, "     sessionid  32 hex characters, only present when logged in (optional)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy the value only, without quotes or the trailing semicolon.")
	fmt.Fprintln(w, "A sessionid grants full access to the account; use a secondary one.")
	fmt.Fprintln(w, rule)
}

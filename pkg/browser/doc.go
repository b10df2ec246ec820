// Package browser drives a stealth Chrome session with go-rod.
//
// A Manager launches (or connects to) the browser and keeps its cookies in
// a session directory between runs. A Tab wraps one page and exposes the
// small set of actions discovery needs: navigate, dismiss consent prompts,
// scroll, read item links, detect verification walls and watch network
// responses.
package browser

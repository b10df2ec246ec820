// Package ui holds terminal output helpers: colors, per-category progress
// tracking with an optional status line, and end-of-run notifications.
package ui

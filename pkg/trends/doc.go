// Package trends reads interest-over-time series from Google Trends.
//
// The service answers in two steps: an explore call returns a widget
// token for the query, and the widget data call returns the timeline.
// Both responses carry a short non-JSON prefix that is stripped before
// decoding.
package trends

// Package termfetch fetches one interest-over-time series per search term.
//
// Terms are processed in order. Each is retried with a doubling delay and
// then abandoned, so a single bad term never stops the list. A saved file
// is the completion marker, and a cooldown follows every successful fetch.
package termfetch

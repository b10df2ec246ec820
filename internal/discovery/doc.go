// Package discovery collects video IDs for hashtags from the live listing
// page.
//
// A pass scrolls the page and reads item links while a network listener
// picks IDs out of background response URLs; both feed one bounded
// Accumulator. A pass ends when the target is reached, the time budget
// runs out, or the page stops producing new IDs. Verification walls pause
// scrolling until they clear or the wait bound expires. A pass never
// returns an error.
package discovery

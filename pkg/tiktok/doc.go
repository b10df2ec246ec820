// Package tiktok fetches public video detail records over plain HTTP.
//
// A video page embeds its state as JSON inside a script element; the
// client requests the page, locates that element and decodes the item
// record with its engagement counters. Page-level status codes map to
// the error types of pkg/errors so callers can tell an expired session
// (auth) from a removed video (not_found).
package tiktok

// Package storage holds the file sinks of a harvesting run: the append-only
// CSV of hydrated rows, the per-term series files, and the atomic
// temp-and-rename write they and the checkpoint share.
package storage

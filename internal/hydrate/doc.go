// Package hydrate turns checkpointed video IDs into engagement rows.
//
// Each ID is fetched through a Fetcher and written to a Sink as soon as it
// arrives, so an interrupted run loses at most the item in flight. A fetch
// failure skips that ID only. With a Ledger, IDs hydrated by an earlier
// run are not fetched again.
package hydrate

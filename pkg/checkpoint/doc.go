// Package checkpoint keeps the durable state that makes harvesting runs
// resumable.
//
// The discovery checkpoint is a JSON object mapping a category to the IDs
// found for it so far:
//
//	{
//	  "MeToo": ["7301234567890123456", "7309876543210987654"]
//	}
//
// It is read permissively, merged as an order-preserving union after each
// category, and rewritten in full through a temp file and rename.
//
// The Ledger records which IDs have already been hydrated so a second
// hydrate run over the same checkpoint does not emit duplicate rows.
package checkpoint

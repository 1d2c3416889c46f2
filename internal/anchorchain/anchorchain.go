// Package anchorchain implements a hash-chained, append-only log of ledger
// anchors and lifecycle transitions.
//
// The chain begins with a well-known genesis entry whose Hash equals
// GenesisHash (64 hex zeros). Every subsequent entry records the SHA-256 of
// its predecessor, making any tampering detectable via Verify.
//
// Two implementations of the Chain interface are provided:
//   - MemoryChain: in-process, for testing and development.
//   - PostgresChain: durable, for production use.
package anchorchain

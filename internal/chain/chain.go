// Package chain implements the hash-linked star registry ledger.
//
// The chain begins with a genesis block at height 0 that has no previous hash.
// Every subsequent block records the hash of its predecessor, and every block
// stores the SHA-256 of its own fields, so tampering with any committed block
// is detected by Validate.
//
// A Ledger keeps the chain in memory. A Store can be attached to persist it:
//   - LevelDBStore: embedded, single-process.
//   - PostgresStore: durable, shared database.
package chain

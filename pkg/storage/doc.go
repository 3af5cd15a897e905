// Package storage defines the persistence contract for advisors and their
// clients, together with the sentinel errors shared by every adapter.
//
// Adapters (memory, postgres) implement Store. Email uniqueness is enforced
// by the adapter atomically, so callers never check-then-insert.
package storage

// Package pgmemory provides a PostgreSQL-backed implementation of the
// [memory.Provider] interface for persisting conversation turns across
// process restarts. Each [PgMemory] instance is scoped to a single session
// and uses pgx/v5 for pool-safe queries; one row holds one turn, with its
// parts stored as JSONB.
//
// The main entry point is [New]. Call [PgMemory.EnsureSchema] during
// development to auto-create the table.
package pgmemory

// Package store defines session history persistence for the research assistant.
//
// A session is an append-only list of system, user and assistant messages keyed by a
// session id. SessionStore implementations live in sub-packages:
//
//   - store/memory: process memory with idle-session eviction (patrickmn/go-cache)
//   - store/redis: one Redis list per session with a sliding TTL (redis/go-redis/v9)
//   - store/sqlite: a messages table in a SQLite file (mattn/go-sqlite3)
//   - store/postgres: a messages table in PostgreSQL (jackc/pgx/v5)
//
// Every backend appends a turn's messages in a single operation so a failed turn never
// leaves half of its messages behind. Locker serializes read-modify-write cycles of the
// same session inside one process.
package store

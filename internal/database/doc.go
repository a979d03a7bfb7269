// Package database provides the Postgres connection pool for the chat
// archive. The relay itself keeps no state here; only chat transcripts are
// written, and only when a database is configured.
package database

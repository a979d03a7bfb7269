// Package archive implements the optional chat transcript writer.
//
// It consumes the router's chat feed, batches records, and inserts them
// into Postgres on a size or interval trigger. Archiving is best-effort:
// insert failures are logged and counted, never surfaced to clients, and
// the relay runs without the writer when no database is configured. Room
// state is never persisted here or anywhere else.
package archive

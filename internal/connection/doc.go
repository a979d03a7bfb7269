// Package connection implements the Connection Registry component.
//
// The registry:
//   - Assigns each accepted WebSocket a process-unique peer id
//   - Tracks every live peer for targeted sends
//   - Forgets peers on transport close (idempotent)
//
// Each Peer owns a buffered send queue drained by a single write pump, so a
// slow consumer drops its own messages instead of stalling broadcasts.
package connection

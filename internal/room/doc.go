// Package room implements the Room Table component.
//
// Rooms are ephemeral: created implicitly on first join, deleted the moment
// the last member leaves. All membership state lives behind one mutex so
// join, leave and broadcast snapshots cannot interleave on the same room.
// Nothing survives a restart.
package room

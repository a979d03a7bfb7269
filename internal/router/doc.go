// Package router implements the Message Router component.
//
// Every inbound envelope is parsed once at the boundary into a typed struct
// keyed by its "type" discriminator, then dispatched:
//   - "join"   → register with the Room Table, confirm to the joiner,
//     notify the rest of the room
//   - "signal" → forward opaque negotiation payloads to exactly one member
//     of the sender's room
//   - "chat"   → broadcast to the whole room, sender included
//
// Failure policy is silent discard: malformed envelopes, unknown types,
// pre-join signal/chat and stale signal targets are dropped without any
// response frame, and counted in Stats. A join after the connection already
// belongs to a room is ignored; a connection joins at most one room for its
// lifetime. The router never mutates room membership for signal or chat.
package router

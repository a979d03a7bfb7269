// Package relay implements the Lifecycle Manager and the /ws endpoint.
//
// A connection moves through two live states, unjoined → joined, then a
// terminal closed state when the transport reports closure. The service
// accepts upgrades, registers each socket with the Connection Registry,
// pumps its envelopes through the Message Router in arrival order, and on
// closure removes it from its room and notifies the remaining members.
//
// The relay performs no authentication; the optional userId a client sends
// at join time is relayed verbatim for display only.
package relay

// Package wpacket builds outbound packets:
// it multiplexes per-channel queues of pending messages
// into MTU-bounded datagram payloads,
// splitting nothing itself but packing externally produced fragments,
// and records which messages will need delivery acknowledgement.
//
// The entry point is [Builder.BuildPackets].
package wpacket

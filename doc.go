// Package wyrm is the outbound half of a real-time datagram transport.
//
// Applications queue messages on logical channels (wchannel);
// messages too large for one packet are split into fragments (wfrag);
// the packet builder (wpacket) multiplexes pending messages
// into MTU-bounded packets under sequenced headers (wheader);
// and the send pipeline (wsend) flushes each packet
// as one QUIC datagram.
package wyrm

// Package wsend flushes built packets to a peer,
// sending each packet as one QUIC datagram.
package wsend

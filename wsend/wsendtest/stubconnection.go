// Package wsendtest contains test helpers for exercising the send pipeline
// without a live QUIC connection.
package wsendtest

import (
	"net"

	"github.com/wyrm-engine/wyrm/wsend"
)

// StubConnection records sent datagrams instead of transmitting them.
type StubConnection struct {
	// Every payload passed to SendDatagram, in order.
	SentDatagrams [][]byte

	// If non-nil, SendDatagram returns this error
	// (the datagram is still recorded).
	SendDatagramErr error

	LocalAddrValue, RemoteAddrValue StubNetAddr
}

var _ wsend.Conn = (*StubConnection)(nil)

// SendDatagram implements [wsend.Conn].
func (c *StubConnection) SendDatagram(p []byte) error {
	c.SentDatagrams = append(c.SentDatagrams, p)
	return c.SendDatagramErr
}

// CloseWithError implements [wsend.Conn].
func (c *StubConnection) CloseWithError(
	code wsend.ApplicationErrorCode, msg string,
) error {
	return nil
}

// LocalAddr implements [wsend.Conn].
func (c *StubConnection) LocalAddr() net.Addr {
	return c.LocalAddrValue
}

// RemoteAddr implements [wsend.Conn].
func (c *StubConnection) RemoteAddr() net.Addr {
	return c.RemoteAddrValue
}

// StubNetAddr is used in [StubConnection]
// to hold the return values for
// [*StubConnection.LocalAddr] and [*StubConnection.RemoteAddr].
type StubNetAddr struct {
	NetworkValue string
	StringValue  string
}

var _ net.Addr = StubNetAddr{}

func (a StubNetAddr) Network() string { return a.NetworkValue }
func (a StubNetAddr) String() string  { return a.StringValue }

package wpacket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacket_tryReserveBoundary(t *testing.T) {
	t.Parallel()

	p := &Packet{Payload: make([]byte, 100)}

	require.True(t, p.TryReserve(MaxPayloadSize-100))
	require.False(t, p.TryReserve(1))
	require.False(t, p.CanFit(1))
	require.True(t, p.CanFit(0))
}

func TestPacket_failedReserveLeavesPacketUnchanged(t *testing.T) {
	t.Parallel()

	p := &Packet{Payload: make([]byte, MaxPayloadSize-1)}

	// The channel prefix needs two bytes here; only one is left.
	require.False(t, p.TryReserveChannel(3))
	require.True(t, p.TryReserve(1))
}

func TestPacket_commitReleasesExactlyWhatWasReserved(t *testing.T) {
	t.Parallel()

	p := &Packet{Payload: make([]byte, 0, MaxPayloadSize)}
	msg := NewSingleData([]byte{1, 2, 3, 4})

	require.True(t, p.TryReserveChannel(3))
	require.True(t, p.TryReserve(msg.EncodedLen()))

	wantLen := channelPrefixLen(3) + msg.EncodedLen()
	require.NoError(t, p.commitSingles(3, []SingleData{msg}))

	require.Zero(t, p.prewritten)
	require.Len(t, p.Payload, wantLen)
}

func TestPacket_commitZeroMessagesWritesNothing(t *testing.T) {
	t.Parallel()

	p := &Packet{Payload: make([]byte, 0, MaxPayloadSize)}

	require.True(t, p.TryReserveChannel(3))
	require.NoError(t, p.commitSingles(3, nil))

	require.Zero(t, p.prewritten)
	require.Empty(t, p.Payload)
}

func TestPacket_commitWithoutReservePanics(t *testing.T) {
	t.Parallel()

	p := &Packet{}
	require.Panics(t, func() {
		_ = p.commitSingles(3, nil)
	})
}

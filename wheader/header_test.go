package wheader_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyrm-engine/wyrm/wheader"
)

func TestHeader_roundTrip(t *testing.T) {
	t.Parallel()

	in := wheader.Header{
		Type:            wheader.PacketTypeDataFragment,
		PacketID:        4099,
		LastAckPacketID: 4095,
		AckBitfield:     0xDEADBEEF,
		Tick:            31000,
	}

	enc := in.AppendTo(nil)
	require.Len(t, enc, wheader.EncodedSize)

	got, n, err := wheader.ParseHeader(enc)
	require.NoError(t, err)
	require.Equal(t, wheader.EncodedSize, n)
	require.Equal(t, in, got)
}

func TestParseHeader_shortBuffer(t *testing.T) {
	t.Parallel()

	_, _, err := wheader.ParseHeader(make([]byte, wheader.EncodedSize-1))
	require.Error(t, err)
}

func TestParseHeader_unknownType(t *testing.T) {
	t.Parallel()

	b := make([]byte, wheader.EncodedSize)
	b[0] = 0xFF
	_, _, err := wheader.ParseHeader(b)
	require.Error(t, err)
}

package wfrag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyrm-engine/wyrm/wfrag"
	"github.com/wyrm-engine/wyrm/wpacket"
)

func TestSender_splitsWithShortFinalFragment(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{0xEE}, 2*wpacket.FragmentSize+wpacket.FragmentSize/2)

	frags, err := wfrag.NewSender().Build(42, payload)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	var reassembled []byte
	for i, f := range frags {
		require.Equal(t, wpacket.MessageID(42), f.MessageID)
		require.Equal(t, wpacket.FragmentID(i), f.FragmentID)
		require.Equal(t, uint8(3), f.NumFragments)
		require.Equal(t, i == 2, f.IsLastFragment())

		if i < 2 {
			require.Len(t, f.Bytes, wpacket.FragmentSize)
		} else {
			require.Len(t, f.Bytes, wpacket.FragmentSize/2)
		}
		reassembled = append(reassembled, f.Bytes...)
	}
	require.Equal(t, payload, reassembled)
}

func TestSender_exactMultipleHasFullFinalFragment(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{1}, 2*wpacket.FragmentSize)

	frags, err := wfrag.NewSender().Build(1, payload)
	require.NoError(t, err)
	require.Len(t, frags, 2)
	require.Len(t, frags[1].Bytes, wpacket.FragmentSize)
	require.True(t, frags[1].IsLastFragment())
}

func TestSender_rejectsSmallPayload(t *testing.T) {
	t.Parallel()

	_, err := wfrag.NewSender().Build(1, make([]byte, wpacket.FragmentSize))
	require.Error(t, err)
}

func TestSender_rejectsTooManyFragments(t *testing.T) {
	t.Parallel()

	_, err := wfrag.NewSender().Build(1, make([]byte, 255*wpacket.FragmentSize+1))
	require.Error(t, err)
}

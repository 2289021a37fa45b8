package wchannel_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyrm-engine/wyrm/wchannel"
	"github.com/wyrm-engine/wyrm/wpacket"
)

func TestOutbox_drainReturnsAndClears(t *testing.T) {
	t.Parallel()

	o := wchannel.NewOutbox()

	o.AddSingle(1, wpacket.NewSingleData([]byte{1}))
	o.AddSingle(1, wpacket.NewTrackedSingleData(7, []byte{2}))
	o.AddFragments(2, []wpacket.FragmentData{
		{MessageID: 7, FragmentID: 0, NumFragments: 2, Bytes: []byte{3}},
		{MessageID: 7, FragmentID: 1, NumFragments: 2, Bytes: []byte{4}},
	})

	data := o.Drain()
	require.Len(t, data, 2)
	require.Len(t, data[1].Singles, 2)
	require.Empty(t, data[1].Fragments)
	require.Len(t, data[2].Fragments, 2)

	// The first drain emptied the outbox.
	require.Empty(t, o.Drain())
}

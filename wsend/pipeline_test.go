package wsend_test

import (
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
	"github.com/wyrm-engine/wyrm/wheader"
	"github.com/wyrm-engine/wyrm/wpacket"
	"github.com/wyrm-engine/wyrm/wsend"
	"github.com/wyrm-engine/wyrm/wsend/wsendtest"
)

func TestPipeline_flushSendsOneDatagramPerPacket(t *testing.T) {
	t.Parallel()

	conn := new(wsendtest.StubConnection)
	p := wsend.NewPipeline(slogt.New(t), wsend.PipelineConfig{
		Conn:    conn,
		Headers: wheader.NewManager(1.5),
	})

	sent, err := p.Flush(3, map[wpacket.ChannelID]wpacket.ChannelData{
		1: {Singles: []wpacket.SingleData{
			wpacket.NewTrackedSingleData(7, []byte{1, 2, 3}),
			wpacket.NewSingleData([]byte{4, 5}),
		}},
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Len(t, conn.SentDatagrams, 1)

	require.Equal(t, []wpacket.ChannelAck{
		{Channel: 1, Ack: wpacket.MessageAck{MessageID: 7}},
	}, sent[0].Acks)

	dg := conn.SentDatagrams[0]
	require.LessOrEqual(t, len(dg), wpacket.MaxPayloadSize)

	parsed, err := wpacket.ParsePayload(dg)
	require.NoError(t, err)
	require.Equal(t, wheader.Tick(3), parsed.Header.Tick)
	require.Equal(t, sent[0].PacketID, parsed.Header.PacketID)
	require.Len(t, parsed.Singles[1], 2)
}

func TestPipeline_sendFailureStillRecordsPacket(t *testing.T) {
	t.Parallel()

	conn := &wsendtest.StubConnection{
		SendDatagramErr: errors.New("datagram dropped"),
	}
	p := wsend.NewPipeline(slogt.New(t), wsend.PipelineConfig{
		Conn:    conn,
		Headers: wheader.NewManager(1.5),
	})

	sent, err := p.Flush(0, map[wpacket.ChannelID]wpacket.ChannelData{
		1: {Singles: []wpacket.SingleData{wpacket.NewSingleData([]byte{1})}},
	})
	require.NoError(t, err)

	// The reliability layer handles the loss like any other unacked packet.
	require.Len(t, sent, 1)
	require.Len(t, conn.SentDatagrams, 1)
}

func TestPipeline_buildErrorAbortsFlush(t *testing.T) {
	t.Parallel()

	conn := new(wsendtest.StubConnection)
	p := wsend.NewPipeline(slogt.New(t), wsend.PipelineConfig{
		Conn:    conn,
		Headers: wheader.NewManager(1.5),
	})

	_, err := p.Flush(0, map[wpacket.ChannelID]wpacket.ChannelData{
		1: {Fragments: []wpacket.FragmentData{{
			MessageID:    1,
			NumFragments: 1,
			Bytes:        make([]byte, wpacket.FragmentSize+1),
		}}},
	})

	var tooLarge wpacket.FragmentTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.Empty(t, conn.SentDatagrams)
}

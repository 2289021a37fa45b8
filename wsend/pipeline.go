package wsend

import (
	"fmt"
	"log/slog"

	"github.com/wyrm-engine/wyrm/wheader"
	"github.com/wyrm-engine/wyrm/wpacket"
)

// PipelineConfig is the configuration for [NewPipeline].
type PipelineConfig struct {
	Conn Conn

	// Headers is shared with the receive side
	// so outbound headers carry up-to-date acknowledgements.
	Headers *wheader.Manager

	// DisableLastFragmentFill is passed through to the packet builder.
	DisableLastFragmentFill bool
}

// Pipeline builds packets from pending channel queues
// and sends each one as a datagram on its connection.
//
// Methods on Pipeline are not safe for concurrent use.
type Pipeline struct {
	log *slog.Logger

	conn    Conn
	builder *wpacket.Builder
}

// SentPacket records one flushed packet
// for the reliability layer to correlate with later acknowledgements.
type SentPacket struct {
	PacketID wheader.PacketID

	// Acks lists the messages and fragments whose bytes
	// this packet carried, for those that expect acknowledgement.
	Acks []wpacket.ChannelAck
}

// NewPipeline returns a Pipeline sending on cfg.Conn.
func NewPipeline(log *slog.Logger, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		log:  log,
		conn: cfg.Conn,
		builder: wpacket.NewBuilder(wpacket.BuilderConfig{
			Headers:                 cfg.Headers,
			DisableLastFragmentFill: cfg.DisableLastFragmentFill,
		}),
	}
}

// Flush packs every pending message in data
// and sends the resulting packets as datagrams, in order.
//
// Datagrams are unreliable, so an individual send failure
// is logged and does not stop the flush;
// the packet is still recorded so the reliability layer
// treats its messages like any other unacknowledged send.
func (p *Pipeline) Flush(
	tick wheader.Tick,
	data map[wpacket.ChannelID]wpacket.ChannelData,
) ([]SentPacket, error) {
	packets, err := p.builder.BuildPackets(tick, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build packets: %w", err)
	}

	sent := make([]SentPacket, 0, len(packets))
	for _, pkt := range packets {
		if err := p.conn.SendDatagram(pkt.Payload); err != nil {
			p.log.Info(
				"Failed to send datagram",
				"packet_id", pkt.PacketID,
				"err", err,
			)
		}
		sent = append(sent, SentPacket{
			PacketID: pkt.PacketID,
			Acks:     pkt.MessageAcks,
		})
	}
	return sent, nil
}

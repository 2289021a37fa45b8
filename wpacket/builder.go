package wpacket

import (
	"errors"
	"maps"
	"slices"

	"github.com/wyrm-engine/wyrm/wheader"
)

// BuilderConfig is the configuration for [NewBuilder].
type BuilderConfig struct {
	// Headers issues a fresh sequenced header for each opened packet.
	Headers *wheader.Manager

	// DisableLastFragmentFill stops the builder from packing
	// trailing small messages into the spare capacity of the packet
	// carrying a message's final fragment.
	// The fill is on by default; disable it if the reliability layer
	// cannot tolerate unrelated messages sharing a fragment packet.
	DisableLastFragmentFill bool
}

// Builder packs per-channel message queues into MTU-bounded packets.
//
// A Builder holds at most one open packet between channel iterations,
// so that a packet opened while packing one channel
// can be topped up by the channels after it.
// Methods on Builder are not safe for concurrent use.
type Builder struct {
	headers *wheader.Manager

	fillLastFragment bool

	// The single open packet, nil when none is open.
	current *Packet
}

// NewBuilder returns a Builder issuing headers through cfg.Headers.
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.Headers == nil {
		panic(errors.New("BUG: BuilderConfig.Headers must not be nil"))
	}
	return &Builder{
		headers:          cfg.Headers,
		fillLastFragment: !cfg.DisableLastFragmentFill,
	}
}

// BuildPackets packs every pending message in data into packets,
// returning them in send order.
//
// Channels are processed in ascending ID order.
// Within a channel, single messages are packed smallest-first:
// once the smallest remaining message no longer fits the open packet,
// nothing else will, so the packet is closed and a new one opened.
// Fragments each open a dedicated packet;
// only a message's final fragment may share its packet
// with trailing small messages.
//
// BuildPackets consumes data:
// the Singles slices are reordered in place,
// and every message ends up in exactly one returned packet.
// On error no packets are returned and the input should be rebuilt
// in full on a later tick.
func (b *Builder) BuildPackets(
	tick wheader.Tick,
	data map[ChannelID]ChannelData,
) ([]*Packet, error) {
	var packets []*Packet

	for _, ch := range slices.Sorted(maps.Keys(data)) {
		var err error
		packets, err = b.packChannel(tick, ch, data[ch], packets)
		if err != nil {
			// A failed build is abandoned wholesale and the caller
			// rebuilds from the same queues on a later tick.
			// Discard any half-packed packet so the retry doesn't
			// inherit its stale header or its reserved capacity.
			b.current = nil
			return nil, err
		}
	}

	if b.current != nil {
		packets = append(packets, b.finishPacket())
	}
	return packets, nil
}

// packChannel packs one channel's messages,
// appending finished packets to packets and returning the extended slice.
// It may leave a packet open on b for the next channel to continue filling.
func (b *Builder) packChannel(
	tick wheader.Tick,
	ch ChannelID,
	cd ChannelData,
	packets []*Packet,
) ([]*Packet, error) {
	singles := cd.Singles
	slices.SortStableFunc(singles, func(a, b SingleData) int {
		return a.EncodedLen() - b.EncodedLen()
	})

	// singles[:start] are committed, singles[start:end] are reserved
	// in the open packet but not yet committed.
	start, end := 0, 0

	// First drain into the packet carried over from the previous channel.
	if b.current != nil && len(singles) > 0 {
		if !b.current.TryReserveChannel(ch) {
			packets = append(packets, b.finishPacket())
		} else {
			var full bool
			end, full = reserveGreedy(b.current, singles, start, end)
			if err := b.current.commitSingles(ch, singles[start:end]); err != nil {
				return nil, err
			}
			start = end
			if full {
				packets = append(packets, b.finishPacket())
			}
		}
	}

	// Then the fragments, each in a fresh packet.
	for i := range cd.Fragments {
		if b.current != nil {
			// A fragment never shares a packet with earlier content.
			packets = append(packets, b.finishPacket())
		}

		f := cd.Fragments[i]
		if err := b.buildNewFragmentPacket(ch, f, tick); err != nil {
			return nil, err
		}

		if !f.IsLastFragment() || !b.fillLastFragment {
			packets = append(packets, b.finishPacket())
			continue
		}

		// The final fragment's packet has spare capacity;
		// top it up with small messages from this channel.
		if start == len(singles) {
			continue
		}
		if !b.current.TryReserveChannel(ch) {
			packets = append(packets, b.finishPacket())
			continue
		}
		var full bool
		end, full = reserveGreedy(b.current, singles, start, end)
		if err := b.current.commitSingles(ch, singles[start:end]); err != nil {
			return nil, err
		}
		start = end
		if full {
			packets = append(packets, b.finishPacket())
		}
	}

	// Finally any single messages not yet consumed,
	// opening fresh packets as capacity runs out.
	// The last packet stays open for the next channel.
	for start < len(singles) {
		fresh := false
		if b.current == nil {
			if err := b.buildNewSinglePacket(tick); err != nil {
				return nil, err
			}
			fresh = true
			if !b.current.TryReserveChannel(ch) {
				panic(errors.New(
					"BUG: fresh packet cannot fit a channel block prefix",
				))
			}
		} else if !b.current.TryReserveChannel(ch) {
			packets = append(packets, b.finishPacket())
			continue
		}

		var full bool
		end, full = reserveGreedy(b.current, singles, start, end)
		if full && end == start && fresh {
			// Not even the smallest remaining message fits an empty packet.
			// Closing and reopening would loop forever.
			return nil, SingleTooLargeError{
				EncodedLen: singles[start].EncodedLen(),
			}
		}
		if err := b.current.commitSingles(ch, singles[start:end]); err != nil {
			return nil, err
		}
		start = end
		if full {
			packets = append(packets, b.finishPacket())
		}
	}

	return packets, nil
}

// reserveGreedy reserves capacity in p for messages from msgs[end:],
// smallest-first, until one does not fit or the queue is exhausted.
// msgs must be sorted ascending by encoded length,
// which is what lets the scan stop at the first non-fitting message.
//
// It returns the new end index and whether the packet is full
// (as opposed to the queue having run out).
// A block at the one-byte message count limit also reports full.
func reserveGreedy(p *Packet, msgs []SingleData, start, end int) (int, bool) {
	for end < len(msgs) {
		if end-start == maxMessagesPerBlock {
			return end, true
		}
		if !p.TryReserve(msgs[end].EncodedLen()) {
			return end, true
		}
		end++
	}
	return end, false
}

// buildNewSinglePacket opens a new packet containing only a header,
// ready for channel blocks.
func (b *Builder) buildNewSinglePacket(tick wheader.Tick) error {
	if b.current != nil {
		panic(errors.New("BUG: opening a packet while one is already open"))
	}

	h := b.headers.PrepareSendPacketHeader(wheader.PacketTypeData)
	h.Tick = tick

	payload := make([]byte, 0, MaxPayloadSize)
	payload = h.AppendTo(payload)

	b.current = &Packet{
		Payload:  payload,
		PacketID: h.PacketID,
	}
	return nil
}

// buildNewFragmentPacket opens a new packet whose content is
// the header, the channel ID, and one fragment,
// with the fragment's ack record already attached.
func (b *Builder) buildNewFragmentPacket(
	ch ChannelID,
	f FragmentData,
	tick wheader.Tick,
) error {
	if b.current != nil {
		panic(errors.New("BUG: opening a packet while one is already open"))
	}
	if len(f.Bytes) > FragmentSize {
		return FragmentTooLargeError{Len: len(f.Bytes)}
	}

	h := b.headers.PrepareSendPacketHeader(wheader.PacketTypeDataFragment)
	h.Tick = tick

	payload := make([]byte, 0, MaxPayloadSize)
	payload = h.AppendTo(payload)
	payload = appendChannelID(payload, ch)
	payload = f.AppendTo(payload)

	b.current = &Packet{
		Payload:  payload,
		PacketID: h.PacketID,
		MessageAcks: []ChannelAck{{
			Channel: ch,
			Ack: MessageAck{
				MessageID:  f.MessageID,
				FragmentID: f.FragmentID,
				IsFragment: true,
			},
		}},
	}
	return nil
}

// finishPacket closes the open packet and transfers ownership
// to the caller; the builder never touches it again.
func (b *Builder) finishPacket() *Packet {
	p := b.current
	if p == nil {
		panic(errors.New("BUG: finishing a packet with none open"))
	}
	b.current = nil
	p.Payload = slices.Clip(p.Payload)
	return p
}

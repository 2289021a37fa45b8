package wpacket

import (
	"encoding/binary"
	"fmt"

	"github.com/wyrm-engine/wyrm/wheader"
)

// maxMessagesPerBlock is the most messages one channel block can describe,
// since the block's message count is a single byte.
const maxMessagesPerBlock = 255

// Packet is one in-progress or finished datagram.
//
// While open, a Packet is owned exclusively by its [Builder],
// which reserves capacity for a channel's selected messages
// before committing their bytes in one pass.
// Reservation and commit are separate because a channel block
// must state its message count up front,
// and that count is only known once packing decisions are final.
type Packet struct {
	// Payload starts as the serialized header
	// and grows as channel blocks are committed.
	Payload []byte

	PacketID wheader.PacketID

	// MessageAcks accumulates one record per committed message or fragment
	// that carries an ID.
	MessageAcks []ChannelAck

	// prewritten counts bytes already claimed for the current channel
	// but not yet appended to Payload.
	// len(Payload)+prewritten never exceeds MaxPayloadSize.
	prewritten int
}

// CanFit reports whether n more bytes, on top of the written
// and already-reserved bytes, would stay within MaxPayloadSize.
func (p *Packet) CanFit(n int) bool {
	return len(p.Payload)+p.prewritten+n <= MaxPayloadSize
}

// TryReserve claims n bytes of remaining capacity,
// reporting whether the claim succeeded.
// On failure the packet is unchanged.
func (p *Packet) TryReserve(n int) bool {
	if !p.CanFit(n) {
		return false
	}
	p.prewritten += n
	return true
}

// TryReserveChannel claims capacity for a channel block's prefix
// (the varint channel ID plus the one-byte message count),
// reporting whether the claim succeeded.
// On failure the packet is unchanged.
func (p *Packet) TryReserveChannel(ch ChannelID) bool {
	return p.TryReserve(channelPrefixLen(ch))
}

// commitSingles writes one channel block containing msgs,
// whose encoded lengths must all have been reserved,
// and records acks for the messages that carry IDs.
//
// Committing zero messages writes nothing
// but still releases the channel prefix reservation.
func (p *Packet) commitSingles(ch ChannelID, msgs []SingleData) error {
	p.releaseReserved(channelPrefixLen(ch))
	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) > maxMessagesPerBlock {
		return fmt.Errorf(
			"channel %d block cannot hold %d messages (max %d)",
			ch, len(msgs), maxMessagesPerBlock,
		)
	}

	p.Payload = appendChannelID(p.Payload, ch)
	p.Payload = append(p.Payload, byte(len(msgs)))

	for i := range msgs {
		p.Payload = msgs[i].AppendTo(p.Payload)
		p.releaseReserved(msgs[i].EncodedLen())

		if msgs[i].HasID {
			p.MessageAcks = append(p.MessageAcks, ChannelAck{
				Channel: ch,
				Ack:     MessageAck{MessageID: msgs[i].ID},
			})
		}
	}

	return nil
}

// releaseReserved decrements the reservation counter as bytes are committed.
// A decrement below zero means the builder reserved for a channel prefix
// or message it never wrote; that mismatch would silently corrupt
// packet boundaries, so it fails fast.
func (p *Packet) releaseReserved(n int) {
	if n > p.prewritten {
		panic(fmt.Errorf(
			"BUG: committing %d bytes with only %d reserved", n, p.prewritten,
		))
	}
	p.prewritten -= n
}

// channelPrefixLen is the serialized size of a channel block prefix:
// the varint channel ID plus the one-byte message count.
func channelPrefixLen(ch ChannelID) int {
	return uvarintLen(uint64(ch)) + 1
}

func appendChannelID(dst []byte, ch ChannelID) []byte {
	return binary.AppendUvarint(dst, uint64(ch))
}

package wpacket

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// MaxPayloadSize is the largest serialized packet payload,
// including the header, that the transport will carry in one datagram.
const MaxPayloadSize = 1150

// FragmentSize is the payload size of every fragment except
// possibly the last one of a message.
// It is comfortably under MaxPayloadSize so that the packet carrying
// a message's final fragment has spare capacity for small messages.
const FragmentSize = 1024

// ChannelID identifies one logical message stream.
// IDs are assigned externally (see the wchannel package)
// and are serialized as unsigned varints.
type ChannelID uint16

// MessageID identifies a message within its channel,
// for messages whose sender expects an acknowledgement.
type MessageID uint16

// FragmentID is the zero-based index of a fragment within its message.
type FragmentID uint8

// Flag bits of the single-message wire encoding.
const singleFlagHasID = 0x01

// SingleData is one complete, unfragmented outbound message.
//
// A SingleData is immutable once created:
// the builder moves it into a packet or leaves it for a later build call.
type SingleData struct {
	ID    MessageID
	HasID bool

	Bytes []byte
}

// NewSingleData returns a message that does not expect an acknowledgement.
func NewSingleData(payload []byte) SingleData {
	return SingleData{Bytes: payload}
}

// NewTrackedSingleData returns a message carrying an ID,
// so that packing it emits a [MessageAck] record.
func NewTrackedSingleData(id MessageID, payload []byte) SingleData {
	return SingleData{ID: id, HasID: true, Bytes: payload}
}

// EncodedLen is the exact number of bytes [SingleData.AppendTo] writes.
// The builder's capacity accounting depends on this agreement.
func (d SingleData) EncodedLen() int {
	n := 1 + uvarintLen(uint64(len(d.Bytes))) + len(d.Bytes)
	if d.HasID {
		n += 2
	}
	return n
}

// AppendTo appends the serialized message to dst,
// returning the extended slice.
func (d SingleData) AppendTo(dst []byte) []byte {
	var flags byte
	if d.HasID {
		flags |= singleFlagHasID
	}
	dst = append(dst, flags)
	if d.HasID {
		dst = binary.BigEndian.AppendUint16(dst, uint16(d.ID))
	}
	dst = binary.AppendUvarint(dst, uint64(len(d.Bytes)))
	return append(dst, d.Bytes...)
}

// parseSingleData extracts one message from the front of b,
// returning it and the number of bytes consumed.
//
// The Bytes field of the returned message references into b,
// so it must not be modified.
func parseSingleData(b []byte) (SingleData, int, error) {
	if len(b) == 0 {
		return SingleData{}, 0, fmt.Errorf("message truncated: missing flags byte")
	}
	flags := b[0]
	if flags&^singleFlagHasID != 0 {
		return SingleData{}, 0, fmt.Errorf("unknown message flags 0x%x", flags)
	}

	var d SingleData
	off := 1
	if flags&singleFlagHasID != 0 {
		if len(b) < off+2 {
			return SingleData{}, 0, fmt.Errorf("message truncated: missing ID")
		}
		d.ID = MessageID(binary.BigEndian.Uint16(b[off : off+2]))
		d.HasID = true
		off += 2
	}

	sz, n := binary.Uvarint(b[off:])
	if n <= 0 {
		return SingleData{}, 0, fmt.Errorf("message truncated: bad length varint")
	}
	off += n

	if uint64(len(b)-off) < sz {
		return SingleData{}, 0, fmt.Errorf(
			"message truncated: length %d exceeds remaining %d", sz, len(b)-off,
		)
	}
	d.Bytes = b[off : off+int(sz)]
	return d, off + int(sz), nil
}

// FragmentData is one slice of a message too large for a single packet.
//
// Fragments are produced externally (see the wfrag package);
// the builder assumes fragment IDs are contiguous from zero
// and that NumFragments is stamped identically on every fragment
// of the same message.
type FragmentData struct {
	// MessageID identifies the parent message,
	// shared across all of its fragments.
	MessageID MessageID

	FragmentID   FragmentID
	NumFragments uint8

	// Bytes is exactly FragmentSize long
	// for every fragment but possibly the last.
	Bytes []byte
}

// IsLastFragment reports whether this is the final fragment
// of its parent message.
func (d FragmentData) IsLastFragment() bool {
	return uint8(d.FragmentID) == d.NumFragments-1
}

// EncodedLen is the exact number of bytes [FragmentData.AppendTo] writes.
func (d FragmentData) EncodedLen() int {
	return 4 + uvarintLen(uint64(len(d.Bytes))) + len(d.Bytes)
}

// AppendTo appends the serialized fragment to dst,
// returning the extended slice.
func (d FragmentData) AppendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(d.MessageID))
	dst = append(dst, byte(d.FragmentID), d.NumFragments)
	dst = binary.AppendUvarint(dst, uint64(len(d.Bytes)))
	return append(dst, d.Bytes...)
}

// parseFragmentData extracts one fragment from the front of b,
// returning it and the number of bytes consumed.
//
// The Bytes field of the returned fragment references into b,
// so it must not be modified.
func parseFragmentData(b []byte) (FragmentData, int, error) {
	if len(b) < 4 {
		return FragmentData{}, 0, fmt.Errorf("fragment truncated: missing metadata")
	}
	d := FragmentData{
		MessageID:    MessageID(binary.BigEndian.Uint16(b[:2])),
		FragmentID:   FragmentID(b[2]),
		NumFragments: b[3],
	}
	off := 4

	sz, n := binary.Uvarint(b[off:])
	if n <= 0 {
		return FragmentData{}, 0, fmt.Errorf("fragment truncated: bad length varint")
	}
	off += n

	if uint64(len(b)-off) < sz {
		return FragmentData{}, 0, fmt.Errorf(
			"fragment truncated: length %d exceeds remaining %d", sz, len(b)-off,
		)
	}
	d.Bytes = b[off : off+int(sz)]
	return d, off + int(sz), nil
}

// MessageAck records that a message, or one fragment of it,
// was placed into a packet.
// The reliability layer correlates these records with packet-level
// acknowledgements to mark messages delivered or lost.
type MessageAck struct {
	MessageID MessageID

	// FragmentID is meaningful only when IsFragment is set.
	FragmentID FragmentID
	IsFragment bool
}

// ChannelAck is a MessageAck tagged with its owning channel.
type ChannelAck struct {
	Channel ChannelID
	Ack     MessageAck
}

// ChannelData is one channel's pending messages for a single build call.
type ChannelData struct {
	Singles   []SingleData
	Fragments []FragmentData
}

// uvarintLen is the number of bytes binary.AppendUvarint writes for x.
func uvarintLen(x uint64) int {
	return (bits.Len64(x|1) + 6) / 7
}

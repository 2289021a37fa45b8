package wheader

import (
	"encoding/binary"
	"fmt"
)

// PacketType distinguishes the layout of a packet's body.
type PacketType byte

const (
	// PacketTypeData is a packet containing only channel blocks
	// of whole messages.
	PacketTypeData PacketType = 1 + iota

	// PacketTypeDataFragment is a packet opening with one fragment
	// of a larger message, optionally followed by channel blocks.
	PacketTypeDataFragment
)

// PacketID is a wrapping sequence number assigned to each outbound packet.
type PacketID uint16

// Tick is the logical send tick stamped into each outbound header.
type Tick uint16

// EncodedSize is the serialized size of a [Header] in bytes.
const EncodedSize = 11

// Header is the fixed-size prefix of every packet.
type Header struct {
	Type PacketType

	PacketID PacketID

	// LastAckPacketID is the most recent packet ID received from the peer,
	// and AckBitfield marks receipt of the 32 packet IDs preceding it
	// (bit i set means LastAckPacketID-1-i was received).
	LastAckPacketID PacketID
	AckBitfield     uint32

	Tick Tick
}

// AppendTo appends the serialized header to dst,
// returning the extended slice.
func (h Header) AppendTo(dst []byte) []byte {
	dst = append(dst, byte(h.Type))
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.PacketID))
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.LastAckPacketID))
	dst = binary.BigEndian.AppendUint32(dst, h.AckBitfield)
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.Tick))
	return dst
}

// ParseHeader extracts a Header from the front of b,
// returning the header and the number of bytes consumed.
func ParseHeader(b []byte) (Header, int, error) {
	if len(b) < EncodedSize {
		return Header{}, 0, fmt.Errorf(
			"header requires %d bytes, have %d", EncodedSize, len(b),
		)
	}

	h := Header{
		Type:            PacketType(b[0]),
		PacketID:        PacketID(binary.BigEndian.Uint16(b[1:3])),
		LastAckPacketID: PacketID(binary.BigEndian.Uint16(b[3:5])),
		AckBitfield:     binary.BigEndian.Uint32(b[5:9]),
		Tick:            Tick(binary.BigEndian.Uint16(b[9:11])),
	}

	if h.Type != PacketTypeData && h.Type != PacketTypeDataFragment {
		return Header{}, 0, fmt.Errorf("unknown packet type 0x%x", b[0])
	}

	return h, EncodedSize, nil
}

package wpacket

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wyrm-engine/wyrm/wheader"
)

// ParsedPacket is the structured content of one packet payload.
type ParsedPacket struct {
	Header wheader.Header

	// Channels lists the channel IDs in the order
	// their blocks appear in the payload.
	Channels []ChannelID

	Singles   map[ChannelID][]SingleData
	Fragments map[ChannelID][]FragmentData
}

// ParsePayload decodes a packet payload produced by a [Builder].
//
// Byte slice fields of the returned messages retain references into
// payload, so they must not be modified.
func ParsePayload(payload []byte) (ParsedPacket, error) {
	p := ParsedPacket{
		Singles:   make(map[ChannelID][]SingleData),
		Fragments: make(map[ChannelID][]FragmentData),
	}

	h, off, err := wheader.ParseHeader(payload)
	if err != nil {
		return p, fmt.Errorf("failed to parse packet header: %w", err)
	}
	p.Header = h

	if h.Type == wheader.PacketTypeDataFragment {
		ch, n, err := parseChannelID(payload[off:])
		if err != nil {
			return p, err
		}
		off += n

		f, n, err := parseFragmentData(payload[off:])
		if err != nil {
			return p, err
		}
		off += n

		p.Channels = append(p.Channels, ch)
		p.Fragments[ch] = append(p.Fragments[ch], f)
	}

	// The remainder is zero or more channel blocks.
	for off < len(payload) {
		ch, n, err := parseChannelID(payload[off:])
		if err != nil {
			return p, err
		}
		off += n

		if off == len(payload) {
			return p, fmt.Errorf("channel %d block truncated: missing count", ch)
		}
		count := int(payload[off])
		off++
		if count == 0 {
			return p, fmt.Errorf("channel %d block has zero messages", ch)
		}

		p.Channels = append(p.Channels, ch)
		for range count {
			d, n, err := parseSingleData(payload[off:])
			if err != nil {
				return p, fmt.Errorf("channel %d: %w", ch, err)
			}
			off += n
			p.Singles[ch] = append(p.Singles[ch], d)
		}
	}

	return p, nil
}

func parseChannelID(b []byte) (ChannelID, int, error) {
	x, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, fmt.Errorf("bad channel ID varint")
	}
	if x > math.MaxUint16 {
		return 0, 0, fmt.Errorf("channel ID %d out of range", x)
	}
	return ChannelID(x), n, nil
}

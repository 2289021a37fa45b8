package wfrag

import (
	"fmt"

	"github.com/wyrm-engine/wyrm/wpacket"
)

// maxFragments is the most fragments one message can split into,
// since a fragment's count field is a single byte.
const maxFragments = 255

// Sender splits oversized message payloads into [wpacket.FragmentData]
// slices of at most its fragment size.
type Sender struct {
	fragmentSize int
}

// NewSender returns a Sender producing fragments of
// [wpacket.FragmentSize] bytes.
func NewSender() *Sender {
	return &Sender{fragmentSize: wpacket.FragmentSize}
}

// Build splits payload into contiguous fragments with IDs from zero.
// Every fragment is exactly the fragment size except possibly the last.
//
// Payloads that already fit a single packet must be sent as
// [wpacket.SingleData] instead; passing one is an error.
func (s *Sender) Build(
	id wpacket.MessageID, payload []byte,
) ([]wpacket.FragmentData, error) {
	if len(payload) <= s.fragmentSize {
		return nil, fmt.Errorf(
			"payload of %d bytes does not require fragmentation (limit %d)",
			len(payload), s.fragmentSize,
		)
	}

	n := (len(payload) + s.fragmentSize - 1) / s.fragmentSize
	if n > maxFragments {
		return nil, fmt.Errorf(
			"payload of %d bytes needs %d fragments (max %d)",
			len(payload), n, maxFragments,
		)
	}

	frags := make([]wpacket.FragmentData, 0, n)
	for i := range n {
		lo := i * s.fragmentSize
		hi := min(lo+s.fragmentSize, len(payload))
		frags = append(frags, wpacket.FragmentData{
			MessageID:    id,
			FragmentID:   wpacket.FragmentID(i),
			NumFragments: uint8(n),
			Bytes:        payload[lo:hi],
		})
	}
	return frags, nil
}

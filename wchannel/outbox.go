package wchannel

import "github.com/wyrm-engine/wyrm/wpacket"

// Outbox accumulates pending outbound messages per channel
// between packet builds.
//
// Methods on Outbox are not safe for concurrent use.
type Outbox struct {
	pending map[wpacket.ChannelID]wpacket.ChannelData
}

// NewOutbox returns an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{pending: make(map[wpacket.ChannelID]wpacket.ChannelData)}
}

// AddSingle queues one unfragmented message on ch.
func (o *Outbox) AddSingle(ch wpacket.ChannelID, d wpacket.SingleData) {
	cd := o.pending[ch]
	cd.Singles = append(cd.Singles, d)
	o.pending[ch] = cd
}

// AddFragments queues a fragmented message's slices on ch,
// in fragment order.
func (o *Outbox) AddFragments(ch wpacket.ChannelID, frags []wpacket.FragmentData) {
	cd := o.pending[ch]
	cd.Fragments = append(cd.Fragments, frags...)
	o.pending[ch] = cd
}

// Drain removes and returns everything queued so far,
// in the shape [wpacket.Builder.BuildPackets] consumes.
func (o *Outbox) Drain() map[wpacket.ChannelID]wpacket.ChannelData {
	data := o.pending
	o.pending = make(map[wpacket.ChannelID]wpacket.ChannelData)
	return data
}

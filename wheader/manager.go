package wheader

import (
	"slices"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// ackBitfieldLen is how many packet IDs before the latest received one
// are acknowledged through [Header.AckBitfield].
const ackBitfieldLen = 32

// Manager issues headers for outbound packets
// and tracks acknowledgement state for both directions:
// which of the peer's packets we have received
// (so outbound headers can acknowledge them),
// and which of our packets the peer has acknowledged
// (so stale ones can be reported as presumed lost).
//
// Methods on Manager are not safe for concurrent use;
// callers sharing a Manager across goroutines must synchronize externally.
type Manager struct {
	nextPacketID PacketID

	// Receive side. The bitset is a full wrap of the 16-bit ID space,
	// indexed directly by packet ID; stale entries between the old and new
	// latest ID are cleared as the latest advances.
	latestRecv PacketID
	hasRecv    bool
	received   *bitset.BitSet

	// Send side: packets we sent that the peer has not acknowledged yet.
	unacked map[PacketID]time.Time

	nackRTTMultiple float64

	clock func() time.Time
}

// NewManager returns a Manager whose [Manager.StalePackets] reports
// a sent packet as presumed lost once it has been unacknowledged
// for nackRTTMultiple times the round-trip estimate.
func NewManager(nackRTTMultiple float64) *Manager {
	return &Manager{
		received:        bitset.MustNew(1 << 16),
		unacked:         make(map[PacketID]time.Time),
		nackRTTMultiple: nackRTTMultiple,
		clock:           time.Now,
	}
}

// PrepareSendPacketHeader returns the header for the next outbound packet:
// a fresh packet ID, and acknowledgement fields
// reflecting what has been received so far.
//
// The caller is expected to set the Tick field before serializing.
func (m *Manager) PrepareSendPacketHeader(t PacketType) Header {
	h := Header{
		Type:     t,
		PacketID: m.nextPacketID,
	}
	if m.hasRecv {
		h.LastAckPacketID = m.latestRecv
		h.AckBitfield = m.recvBitfield()
	}

	m.nextPacketID++ // Wraps at 16 bits.
	m.unacked[h.PacketID] = m.clock()

	return h
}

// RecordReceived notes that a packet with the given ID
// arrived from the peer, so that subsequent outbound headers
// acknowledge it.
func (m *Manager) RecordReceived(id PacketID) {
	if !m.hasRecv {
		m.hasRecv = true
		m.latestRecv = id
		m.received.Set(uint(id))
		return
	}

	if newerThan(id, m.latestRecv) {
		// Clear any stale state from a previous wrap of the ID space.
		for i := m.latestRecv + 1; i != id; i++ {
			m.received.Clear(uint(i))
		}
		m.latestRecv = id
	}
	m.received.Set(uint(id))
}

// recvBitfield reports receipt of the 32 IDs preceding the latest one.
func (m *Manager) recvBitfield() uint32 {
	var bits uint32
	for i := range uint32(ackBitfieldLen) {
		id := m.latestRecv - 1 - PacketID(i)
		if m.received.Test(uint(id)) {
			bits |= 1 << i
		}
	}
	return bits
}

// ProcessReceivedHeader consumes the acknowledgement fields
// of a header received from the peer,
// returning the IDs of our packets that it newly acknowledges.
func (m *Manager) ProcessReceivedHeader(h Header) []PacketID {
	var acked []PacketID

	if _, ok := m.unacked[h.LastAckPacketID]; ok {
		acked = append(acked, h.LastAckPacketID)
		delete(m.unacked, h.LastAckPacketID)
	}

	for i := range uint32(ackBitfieldLen) {
		if h.AckBitfield&(1<<i) == 0 {
			continue
		}
		id := h.LastAckPacketID - 1 - PacketID(i)
		if _, ok := m.unacked[id]; ok {
			acked = append(acked, id)
			delete(m.unacked, id)
		}
	}

	return acked
}

// StalePackets removes and returns, in ascending ID order,
// every sent packet that has been unacknowledged
// longer than the configured multiple of rtt.
// The reliability layer treats these as presumed lost.
func (m *Manager) StalePackets(rtt time.Duration) []PacketID {
	cutoff := time.Duration(m.nackRTTMultiple * float64(rtt))
	now := m.clock()

	var stale []PacketID
	for id, sentAt := range m.unacked {
		if now.Sub(sentAt) > cutoff {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.unacked, id)
	}

	slices.Sort(stale)
	return stale
}

// newerThan reports whether a is a more recent wrapping sequence ID than b.
func newerThan(a, b PacketID) bool {
	return (a > b && a-b <= 1<<15) || (a < b && b-a > 1<<15)
}

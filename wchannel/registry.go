package wchannel

import (
	"fmt"
	"math"

	"github.com/wyrm-engine/wyrm/wpacket"
)

// Registry assigns numeric IDs to named channels.
//
// IDs are assigned in registration order starting from zero,
// and both endpoints must register the same channels in the same order
// for the IDs to agree on the wire.
type Registry struct {
	byName map[string]wpacket.ChannelID
	names  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]wpacket.ChannelID)}
}

// Add registers name and returns its assigned ID.
// Registering the same name twice is an error.
func (r *Registry) Add(name string) (wpacket.ChannelID, error) {
	if _, ok := r.byName[name]; ok {
		return 0, fmt.Errorf("channel %q already registered", name)
	}
	if len(r.names) > math.MaxUint16 {
		return 0, fmt.Errorf("channel ID space exhausted registering %q", name)
	}

	id := wpacket.ChannelID(len(r.names))
	r.byName[name] = id
	r.names = append(r.names, name)
	return id, nil
}

// ID returns the ID assigned to name,
// and whether the name is registered.
func (r *Registry) ID(name string) (wpacket.ChannelID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the name registered for id,
// and whether the ID has been assigned.
func (r *Registry) Name(id wpacket.ChannelID) (string, bool) {
	if int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

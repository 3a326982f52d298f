package wire

// ProtocolState describes what happens when a message of a given type is
// observed on a channel: whether it is terminal ("choke", ending the
// channel successfully) and, for recursive protocols, which Protocol
// governs the channel afterwards.
type ProtocolState struct {
	Terminal bool
	Next     *Protocol
}

// Protocol is the discriminated set of message types allowed at a point in
// a channel's lifetime — the dispatch protocol for the sender half, the
// upstream protocol for the receiver half. A Protocol with no entries is
// "mute": the event has no observable upstream, and a session must not
// retain a receiver for it.
type Protocol struct {
	States map[uint64]ProtocolState
}

// NewProtocol builds a Protocol from a type->state map.
func NewProtocol(states map[uint64]ProtocolState) *Protocol {
	return &Protocol{States: states}
}

// Mute reports whether p allows no message types at all.
func (p *Protocol) Mute() bool {
	return p == nil || len(p.States) == 0
}

// Allows reports whether typ is a valid message in this protocol state, and
// what happens when it is observed.
func (p *Protocol) Allows(typ uint64) (ProtocolState, bool) {
	if p == nil {
		return ProtocolState{}, false
	}
	st, ok := p.States[typ]
	return st, ok
}

// EventDescriptor is the registry entry for one named RPC event: its
// initial-message type code plus the dispatch (outgoing) and upstream
// (incoming) protocols.
type EventDescriptor struct {
	InitialType uint64
	Dispatch    *Protocol
	Upstream    *Protocol
}

// EventRegistry maps a named RPC event to its wire shape. It is an external
// collaborator: the session consumes it but does not own its contents.
type EventRegistry interface {
	Lookup(tag string) (EventDescriptor, bool)
}

// StaticRegistry is a simple in-memory EventRegistry, suitable for tests and
// small deployments that enumerate their events up front.
type StaticRegistry map[string]EventDescriptor

// Lookup implements EventRegistry.
func (r StaticRegistry) Lookup(tag string) (EventDescriptor, bool) {
	d, ok := r[tag]
	return d, ok
}

package node

import (
	"sync"

	"maelnode/pkg/protocol"
)

// HandlerFunc handles one inbound envelope. A returned error is logged at the
// dispatch boundary and never stops the loop; a handler that wants the sender
// to see a failure replies with an error body itself.
type HandlerFunc func(env protocol.Envelope) error

// Registry maps message-type strings to handlers. Registration happens during
// setup; lookups happen during dispatch. Registering a type twice silently
// replaces the earlier handler — that is the documented policy, not a fault.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds fn to typ, overwriting any prior binding.
func (r *Registry) Register(typ string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[typ] = fn
}

// Lookup returns the handler bound to typ, if any.
func (r *Registry) Lookup(typ string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[typ]
	return fn, ok
}

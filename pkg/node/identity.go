package node

import (
	"errors"
	"sync"
)

// ErrAlreadyInitialized is returned when a second init handshake tries to
// rebind a node's identity.
var ErrAlreadyInitialized = errors.New("node identity already initialized")

// Identity holds the node's own id and the cluster roster. It is set exactly
// once by the init handshake and read by every outbound operation afterward.
// Accessors are safe before initialization and return zero values, so
// diagnostic paths that run before init never fail.
type Identity struct {
	mu    sync.RWMutex
	id    string
	peers []string
}

func NewIdentity() *Identity { return &Identity{} }

// Init binds the identity. A second call is a programming error and leaves
// the original identity intact.
func (s *Identity) Init(id string, peers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" {
		return ErrAlreadyInitialized
	}
	s.id = id
	s.peers = append([]string(nil), peers...)
	return nil
}

// ID returns the node's own id, or "" before init.
func (s *Identity) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Peers returns a copy of the cluster roster, including this node.
func (s *Identity) Peers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.peers...)
}

// Initialized reports whether the init handshake has completed.
func (s *Identity) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id != ""
}

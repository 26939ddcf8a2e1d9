package node

import (
	"errors"
	"sync"

	"maelnode/pkg/protocol"
)

// ErrDuplicateAwait is returned when a continuation is registered for a
// message id that already has one outstanding.
var ErrDuplicateAwait = errors.New("continuation already registered for message id")

// Callback consumes the reply envelope that resolves a pending request.
type Callback func(env protocol.Envelope)

type continuation struct {
	onSuccess Callback
	onFailure Callback
}

// Pending is the reply correlation table: it maps the msg_id of each
// outstanding request to its continuation. Entries are removed the instant a
// matching reply arrives, so exactly one of the callbacks fires exactly once.
// There is no timeout: a request that is never answered stays in the table
// for the life of the process. Size makes that visible.
type Pending struct {
	mu      sync.Mutex
	entries map[protocol.ID]continuation
}

func NewPending() *Pending {
	return &Pending{entries: make(map[protocol.ID]continuation)}
}

// Await registers a continuation for id. At most one may be outstanding per
// id at a time.
func (p *Pending) Await(id protocol.ID, onSuccess, onFailure Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[id]; ok {
		return ErrDuplicateAwait
	}
	p.entries[id] = continuation{onSuccess: onSuccess, onFailure: onFailure}
	return nil
}

// Resolve delivers a reply to the continuation registered for its
// in_reply_to id. An error-typed body fires the failure callback, anything
// else the success callback. It reports false when no continuation is found,
// which covers both late and duplicate replies; the caller drops those with a
// diagnostic rather than treating them as faults.
func (p *Pending) Resolve(id protocol.ID, env protocol.Envelope) bool {
	p.mu.Lock()
	c, ok := p.entries[id]
	if ok {
		delete(p.entries, id)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	if env.Head.Type == "error" {
		if c.onFailure != nil {
			c.onFailure(env)
		}
	} else if c.onSuccess != nil {
		c.onSuccess(env)
	}
	return true
}

// Forget removes the continuation for id without invoking it. Used to back
// out when the request could not be written.
func (p *Pending) Forget(id protocol.ID) {
	p.mu.Lock()
	delete(p.entries, id)
	p.mu.Unlock()
}

// Size returns the number of outstanding continuations.
func (p *Pending) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

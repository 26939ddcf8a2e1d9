package workload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"maelnode/pkg/node"
	"maelnode/pkg/protocol"
)

// Counter implements a grow-only counter: each node accumulates its own
// additions and gossips its per-node view to peers, who merge by taking the
// per-node maximum. Reads return the sum of the merged view.
type Counter struct {
	n   *node.Node
	log *zap.Logger

	mu     sync.Mutex
	counts map[string]int64
}

// RegisterCounter binds the counter workload handlers. Start Gossip in its
// own goroutine to replicate state.
func RegisterCounter(n *node.Node, log *zap.Logger) *Counter {
	c := &Counter{
		n:      n,
		log:    log,
		counts: make(map[string]int64),
	}
	n.Handle("add", func(env protocol.Envelope) error { return c.handleAdd(env) })
	n.Handle("read", func(env protocol.Envelope) error { return c.handleRead(env) })
	n.Handle("replicate", func(env protocol.Envelope) error { return c.handleReplicate(env) })
	return c
}

func (c *Counter) handleAdd(env protocol.Envelope) error {
	var body struct {
		Delta int64 `json:"delta"`
	}
	if err := env.ReadBody(&body); err != nil {
		return c.n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
	}
	c.mu.Lock()
	c.counts[c.n.ID()] += body.Delta
	c.mu.Unlock()
	return c.n.Reply(env, protocol.Body{Type: "add_ok"})
}

func (c *Counter) handleRead(env protocol.Envelope) error {
	return c.n.Reply(env, map[string]any{
		"type":  "read_ok",
		"value": c.Value(),
	})
}

// handleReplicate merges a peer's view. Counts only grow, so the element-wise
// maximum is the join.
func (c *Counter) handleReplicate(env protocol.Envelope) error {
	var body struct {
		Counts map[string]int64 `json:"counts"`
	}
	if err := env.ReadBody(&body); err != nil {
		return err
	}
	c.mu.Lock()
	for id, v := range body.Counts {
		if v > c.counts[id] {
			c.counts[id] = v
		}
	}
	c.mu.Unlock()
	return c.n.Reply(env, protocol.Body{Type: "replicate_ok"})
}

// Value returns the current merged counter value.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum int64
	for _, v := range c.counts {
		sum += v
	}
	return sum
}

// Gossip replicates this node's view to every peer on each tick until ctx is
// done. Acks are consumed and dropped; an unanswered replicate is simply
// superseded by the next round.
func (c *Counter) Gossip(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		c.mu.Lock()
		counts := make(map[string]int64, len(c.counts))
		for id, v := range c.counts {
			counts[id] = v
		}
		c.mu.Unlock()
		body := map[string]any{"type": "replicate", "counts": counts}
		for _, peer := range c.n.Peers() {
			if peer == c.n.ID() {
				continue
			}
			_, err := c.n.Request(peer, body,
				func(protocol.Envelope) {},
				func(env protocol.Envelope) {
					c.log.Warn("replicate rejected",
						zap.String("peer", env.Src),
						zap.String("text", env.Head.Text))
				})
			if err != nil {
				c.log.Error("replicate send failed", zap.String("peer", peer), zap.Error(err))
			}
		}
	}
}

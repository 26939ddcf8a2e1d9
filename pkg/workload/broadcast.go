package workload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"maelnode/pkg/node"
	"maelnode/pkg/protocol"
)

// Broadcast implements the broadcast workload: values received from clients
// or peers are stored once and relayed to topology neighbors until each
// neighbor acknowledges. Relays ride the runtime's reply correlation, so a
// lost message is simply retried on the next interval.
type Broadcast struct {
	n     *node.Node
	log   *zap.Logger
	retry time.Duration

	mu        sync.Mutex
	seen      map[int64]struct{}
	values    []int64
	neighbors []string
}

// RegisterBroadcast binds the broadcast workload. Relay goroutines stop when
// ctx is done.
func RegisterBroadcast(ctx context.Context, n *node.Node, log *zap.Logger, retry time.Duration) *Broadcast {
	if retry <= 0 {
		retry = time.Second
	}
	b := &Broadcast{
		n:     n,
		log:   log,
		retry: retry,
		seen:  make(map[int64]struct{}),
	}
	n.Handle("topology", func(env protocol.Envelope) error { return b.handleTopology(env) })
	n.Handle("broadcast", func(env protocol.Envelope) error { return b.handleBroadcast(ctx, env) })
	n.Handle("read", func(env protocol.Envelope) error { return b.handleRead(env) })
	return b
}

func (b *Broadcast) handleTopology(env protocol.Envelope) error {
	var body struct {
		Topology map[string][]string `json:"topology"`
	}
	if err := env.ReadBody(&body); err != nil {
		return b.n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
	}
	b.mu.Lock()
	b.neighbors = body.Topology[b.n.ID()]
	b.mu.Unlock()
	b.log.Info("topology installed", zap.Strings("neighbors", body.Topology[b.n.ID()]))
	return b.n.Reply(env, protocol.Body{Type: "topology_ok"})
}

func (b *Broadcast) handleBroadcast(ctx context.Context, env protocol.Envelope) error {
	var body struct {
		Message int64 `json:"message"`
	}
	if err := env.ReadBody(&body); err != nil {
		return b.n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
	}

	b.mu.Lock()
	_, dup := b.seen[body.Message]
	if !dup {
		b.seen[body.Message] = struct{}{}
		b.values = append(b.values, body.Message)
	}
	neighbors := append([]string(nil), b.neighbors...)
	b.mu.Unlock()

	if !dup {
		for _, peer := range neighbors {
			if peer == env.Src {
				continue
			}
			go b.relay(ctx, peer, body.Message)
		}
	}
	return b.n.Reply(env, protocol.Body{Type: "broadcast_ok"})
}

// relay pushes one value at a peer until it acknowledges.
func (b *Broadcast) relay(ctx context.Context, peer string, value int64) {
	body := map[string]any{"type": "broadcast", "message": value}
	for {
		attempt, cancel := context.WithTimeout(ctx, b.retry)
		_, err := b.n.RPC(attempt, peer, body)
		cancel()
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		b.log.Debug("relay retry",
			zap.String("peer", peer),
			zap.Int64("value", value),
			zap.Error(err))
	}
}

func (b *Broadcast) handleRead(env protocol.Envelope) error {
	b.mu.Lock()
	values := append([]int64(nil), b.values...)
	b.mu.Unlock()
	return b.n.Reply(env, map[string]any{
		"type":     "read_ok",
		"messages": values,
	})
}

// Values returns the values seen so far, in first-seen order.
func (b *Broadcast) Values() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.values...)
}

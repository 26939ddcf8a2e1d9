// Package node implements the envelope dispatch and request/reply correlation
// runtime that workloads are built on: it reads envelopes from an input
// stream, routes them to registered handlers or pending reply continuations,
// and writes outbound envelopes, stamping identity and correlation ids.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"maelnode/pkg/protocol"
	"maelnode/pkg/telemetry"
	"maelnode/pkg/transport"
)

// Node is the runtime kernel. Construct it with New, bind handlers with
// Handle, then call Run with the harness input stream.
type Node struct {
	log     *zap.Logger
	ident   *Identity
	reg     *Registry
	pending *Pending
	ids     *Generator
	out     *transport.Writer
}

// New creates a node writing outbound envelopes to out. Diagnostics go to
// log, which must never share a stream with protocol output.
func New(out *transport.Writer, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	return &Node{
		log:     log,
		ident:   NewIdentity(),
		reg:     NewRegistry(),
		pending: NewPending(),
		ids:     &Generator{},
		out:     out,
	}
}

// ID returns this node's id, or "" before the init handshake.
func (n *Node) ID() string { return n.ident.ID() }

// Peers returns the cluster roster delivered by the init handshake.
func (n *Node) Peers() []string { return n.ident.Peers() }

// PendingReplies returns the current size of the reply correlation table.
func (n *Node) PendingReplies() int { return n.pending.Size() }

// Handle binds fn to message type typ. Call during setup, before Run.
// Binding a type twice replaces the earlier handler.
func (n *Node) Handle(typ string, fn HandlerFunc) {
	n.reg.Register(typ, fn)
}

// Run reads envelopes from r until end of input, dispatching each one in
// arrival order. Handlers run to completion before the next envelope is read.
// Malformed lines, unmatched replies, duplicate inits and handler failures
// are all logged and skipped; nothing in the loop terminates the process.
func (n *Node) Run(ctx context.Context, r io.Reader) error {
	in := transport.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := in.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if len(line) == 0 {
			continue
		}
		env, err := protocol.Decode(line)
		if err != nil {
			n.reportDecodeFailure(line, err)
			continue
		}
		telemetry.EnvelopesTotal.WithLabelValues("in", env.Type()).Inc()
		n.dispatch(env)
	}
}

func (n *Node) reportDecodeFailure(line []byte, err error) {
	kind := "parse"
	var schemaErr *protocol.SchemaError
	if errors.As(err, &schemaErr) {
		kind = "schema"
	}
	telemetry.DecodeFailures.WithLabelValues(kind).Inc()
	n.log.Warn("dropping undecodable line",
		zap.String("kind", kind),
		zap.Error(err),
		zap.ByteString("line", line))
}

// dispatch classifies one envelope: reply, init handshake, or new request.
func (n *Node) dispatch(env protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.HandlerPanics.Inc()
			n.log.Error("handler panicked",
				zap.String("type", env.Type()),
				zap.String("src", env.Src),
				zap.Any("panic", r))
		}
	}()

	if env.IsReply() {
		if !n.pending.Resolve(env.Head.InReplyTo, env) {
			n.log.Warn("reply matches no pending request",
				zap.String("in_reply_to", string(env.Head.InReplyTo)),
				zap.String("src", env.Src))
		}
		telemetry.PendingReplies.Set(float64(n.pending.Size()))
		return
	}

	if env.Type() == "init" {
		n.handleInit(env)
		return
	}

	fn, ok := n.reg.Lookup(env.Type())
	if !ok {
		// Peers may legitimately send types this node ignores.
		n.log.Debug("no handler for message type", zap.String("type", env.Type()))
		return
	}
	if err := fn(env); err != nil {
		n.log.Error("handler failed",
			zap.String("type", env.Type()),
			zap.String("src", env.Src),
			zap.Error(err))
	}
}

func (n *Node) handleInit(env protocol.Envelope) {
	if err := n.ident.Init(env.Head.NodeID, env.Head.NodeIDs); err != nil {
		n.log.Error("ignoring duplicate init",
			zap.String("node_id", env.Head.NodeID),
			zap.String("src", env.Src))
		return
	}
	n.log.Info("node initialized",
		zap.String("node_id", n.ident.ID()),
		zap.Strings("node_ids", env.Head.NodeIDs))
	if err := n.Reply(env, protocol.Body{Type: "init_ok"}); err != nil {
		n.log.Error("sending init_ok", zap.Error(err))
	}
}

// Send writes a fire-and-forget envelope to dest. The body is sent as-is; no
// message id is allocated.
func (n *Node) Send(dest string, body any) error {
	env, err := protocol.NewEnvelope(n.ident.ID(), dest, body, "", "")
	if err != nil {
		return err
	}
	return n.write(env)
}

// Reply answers req: src is this node's identity, dest is the requester, and
// in_reply_to is the request's msg_id. Everything else in the body is the
// caller's.
func (n *Node) Reply(req protocol.Envelope, body any) error {
	env, err := protocol.NewEnvelope(n.ident.ID(), req.Src, body, "", req.Head.MsgID)
	if err != nil {
		return err
	}
	return n.write(env)
}

// Request sends body to dest with a freshly allocated msg_id and registers
// the continuation before writing, so a fast reply can never race the table.
// Exactly one of onSuccess/onFailure fires when the reply arrives; neither
// fires if it never does. The allocated id is returned for diagnostics.
func (n *Node) Request(dest string, body any, onSuccess, onFailure Callback) (protocol.ID, error) {
	id := n.ids.Next()
	if err := n.pending.Await(id, onSuccess, onFailure); err != nil {
		return "", err
	}
	telemetry.PendingReplies.Set(float64(n.pending.Size()))
	env, err := protocol.NewEnvelope(n.ident.ID(), dest, body, id, "")
	if err == nil {
		err = n.write(env)
	}
	if err != nil {
		n.pending.Forget(id)
		telemetry.PendingReplies.Set(float64(n.pending.Size()))
		return "", err
	}
	return id, nil
}

// RPC sends a request and blocks until the reply arrives or ctx is done. An
// error-typed reply is returned as a *protocol.RPCError.
//
// RPC parks the calling goroutine, so it must not be called from inside a
// handler: the reply is dispatched by the same loop the handler is holding.
// Handlers use Request, or spawn a goroutine, for follow-up traffic.
func (n *Node) RPC(ctx context.Context, dest string, body any) (protocol.Envelope, error) {
	type result struct {
		env protocol.Envelope
		err error
	}
	ch := make(chan result, 1)
	_, err := n.Request(dest, body,
		func(env protocol.Envelope) { ch <- result{env: env} },
		func(env protocol.Envelope) {
			ch <- result{env: env, err: &protocol.RPCError{Code: env.Head.Code, Text: env.Head.Text}}
		})
	if err != nil {
		return protocol.Envelope{}, err
	}
	select {
	case <-ctx.Done():
		// The continuation stays registered; if the reply ever arrives it
		// is consumed and discarded via the buffered channel.
		return protocol.Envelope{}, ctx.Err()
	case res := <-ch:
		return res.env, res.err
	}
}

func (n *Node) write(env protocol.Envelope) error {
	if err := n.out.WriteEnvelope(env); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	telemetry.EnvelopesTotal.WithLabelValues("out", env.Type()).Inc()
	return nil
}

package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"maelnode/pkg/node"
	"maelnode/pkg/protocol"
	"maelnode/storage"
)

// RegisterKV binds the key-value workload (read, write, cas) over a Storage
// backend. Keys and values are arbitrary JSON; both are stored in compact
// form so cas comparisons are byte-exact.
func RegisterKV(n *node.Node, store storage.Storage) {
	n.Handle("read", func(env protocol.Envelope) error {
		var body struct {
			Key json.RawMessage `json:"key"`
		}
		if err := env.ReadBody(&body); err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
		}
		val, ok, err := store.Get(context.Background(), compactJSON(body.Key))
		if err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.Crash, err.Error()))
		}
		if !ok {
			return n.Reply(env, protocol.ErrorBody(protocol.KeyDoesNotExist, "key does not exist"))
		}
		return n.Reply(env, map[string]any{
			"type":  "read_ok",
			"value": json.RawMessage(val),
		})
	})

	n.Handle("write", func(env protocol.Envelope) error {
		var body struct {
			Key   json.RawMessage `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		if err := env.ReadBody(&body); err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
		}
		if err := store.Set(context.Background(), compactJSON(body.Key), []byte(compactJSON(body.Value))); err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.Crash, err.Error()))
		}
		return n.Reply(env, protocol.Body{Type: "write_ok"})
	})

	n.Handle("cas", func(env protocol.Envelope) error {
		var body struct {
			Key  json.RawMessage `json:"key"`
			From json.RawMessage `json:"from"`
			To   json.RawMessage `json:"to"`
		}
		if err := env.ReadBody(&body); err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
		}
		err := store.CompareAndSwap(context.Background(),
			compactJSON(body.Key),
			[]byte(compactJSON(body.From)),
			[]byte(compactJSON(body.To)))
		switch {
		case errors.Is(err, storage.ErrKeyNotFound):
			return n.Reply(env, protocol.ErrorBody(protocol.KeyDoesNotExist, "key does not exist"))
		case errors.Is(err, storage.ErrCASMismatch):
			return n.Reply(env, protocol.ErrorBody(protocol.PreconditionFailed, "current value does not match from"))
		case err != nil:
			return n.Reply(env, protocol.ErrorBody(protocol.Crash, err.Error()))
		}
		return n.Reply(env, protocol.Body{Type: "cas_ok"})
	})
}

// compactJSON canonicalizes a raw JSON value so equal values compare equal
// regardless of source whitespace.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

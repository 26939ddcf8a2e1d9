// Package workload wires application message handlers onto the node runtime.
// Each workload registers the handlers for one harness workload type; the
// runtime owns routing, identity and correlation.
package workload

import (
	"encoding/json"

	"maelnode/pkg/node"
	"maelnode/pkg/protocol"
)

// RegisterEcho binds the echo workload: every echo request is answered with
// an echo_ok carrying the same payload.
func RegisterEcho(n *node.Node) {
	n.Handle("echo", func(env protocol.Envelope) error {
		var body struct {
			Echo json.RawMessage `json:"echo"`
		}
		if err := env.ReadBody(&body); err != nil {
			return n.Reply(env, protocol.ErrorBody(protocol.MalformedRequest, err.Error()))
		}
		return n.Reply(env, map[string]any{
			"type": "echo_ok",
			"echo": body.Echo,
		})
	})
}

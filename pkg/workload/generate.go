package workload

import (
	"github.com/google/uuid"

	"maelnode/pkg/node"
	"maelnode/pkg/protocol"
)

// RegisterGenerate binds the unique-id workload. Ids must be globally unique
// across the cluster with no coordination, so each one is a fresh UUID.
func RegisterGenerate(n *node.Node) {
	n.Handle("generate", func(env protocol.Envelope) error {
		return n.Reply(env, map[string]any{
			"type": "generate_ok",
			"id":   uuid.NewString(),
		})
	})
}

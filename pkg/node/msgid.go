package node

import (
	"strconv"
	"sync/atomic"

	"maelnode/pkg/protocol"
)

// Generator hands out process-unique message ids: strictly increasing
// integers starting at 1. Safe for concurrent use; handlers may fire several
// requests before returning.
type Generator struct {
	last atomic.Int64
}

// Next returns an id never returned before by this process.
func (g *Generator) Next() protocol.ID {
	return protocol.ID(strconv.FormatInt(g.last.Add(1), 10))
}

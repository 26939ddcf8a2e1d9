package transport

import (
	"bytes"
	"sync"

	"maelnode/pkg/protocol"
)

// Capture is an io.Writer that records every line written through it. It
// stands in for stdout in tests and demos so outbound envelopes can be
// inspected, including lines written by concurrent senders.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Lines returns the complete lines written so far.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, l := range bytes.Split(c.buf.Bytes(), []byte("\n")) {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	return out
}

// Envelopes decodes every captured line. Lines that fail to decode are
// skipped; tests asserting on malformed output should use Lines.
func (c *Capture) Envelopes() []protocol.Envelope {
	var out []protocol.Envelope
	for _, l := range c.Lines() {
		env, err := protocol.Decode([]byte(l))
		if err != nil {
			continue
		}
		out = append(out, env)
	}
	return out
}

// Package transport frames protocol envelopes as line-delimited JSON over a
// pair of byte streams. It carries no dispatch logic; the node runtime reads
// lines from a Reader and writes envelopes through a Writer.
package transport

import (
	"bufio"
	"io"
	"sync"

	"maelnode/pkg/protocol"
)

// maxLineSize bounds a single inbound line. Harness workloads stay well under
// this, but broadcast reads can grow large.
const maxLineSize = 4 << 20

// Reader yields one raw protocol line at a time from the input stream.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader wraps an input stream, typically os.Stdin.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Reader{sc: sc}
}

// Next returns the next input line. It returns io.EOF when the stream ends,
// which is the runtime's only shutdown signal.
func (r *Reader) Next() ([]byte, error) {
	if r.sc.Scan() {
		return r.sc.Bytes(), nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Writer emits newline-framed envelopes. Writes are serialized and flushed
// per envelope so concurrent senders never interleave partial lines.
type Writer struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewWriter wraps an output stream, typically os.Stdout.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteEnvelope encodes env and writes it as one complete line.
func (w *Writer) WriteEnvelope(env protocol.Envelope) error {
	buf, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.bw.Write(buf); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	return w.bw.Flush()
}

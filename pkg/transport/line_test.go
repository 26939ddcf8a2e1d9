package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"maelnode/pkg/protocol"
)

func TestReaderSplitsLines(t *testing.T) {
	r := NewReader(strings.NewReader("one\ntwo\n"))

	l1, err := r.Next()
	if err != nil || string(l1) != "one" {
		t.Fatalf("Next = %q, %v", l1, err)
	}
	l2, err := r.Next()
	if err != nil || string(l2) != "two" {
		t.Fatalf("Next = %q, %v", l2, err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next at end err = %v, want io.EOF", err)
	}
}

func TestReaderLastLineWithoutNewline(t *testing.T) {
	r := NewReader(strings.NewReader("tail"))
	l, err := r.Next()
	if err != nil || string(l) != "tail" {
		t.Fatalf("Next = %q, %v", l, err)
	}
}

func TestWriterConcurrentLinesDoNotInterleave(t *testing.T) {
	sink := &Capture{}
	w := NewWriter(sink)

	const G = 16
	const N = 100

	var wg sync.WaitGroup
	for g := 0; g < G; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < N; i++ {
				env, err := protocol.NewEnvelope("n1", "n2",
					map[string]any{"type": "ping", "seq": fmt.Sprintf("%d-%d", g, i)},
					protocol.ID(fmt.Sprint(g*N+i+1)), "")
				if err != nil {
					t.Errorf("NewEnvelope: %v", err)
					return
				}
				if err := w.WriteEnvelope(env); err != nil {
					t.Errorf("WriteEnvelope: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	lines := sink.Lines()
	if len(lines) != G*N {
		t.Fatalf("got %d lines, want %d", len(lines), G*N)
	}
	// Every line must decode cleanly; torn writes would not.
	for _, l := range lines {
		if _, err := protocol.Decode([]byte(l)); err != nil {
			t.Fatalf("interleaved or corrupt line %q: %v", l, err)
		}
	}
}

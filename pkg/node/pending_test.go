package node

import (
	"errors"
	"testing"

	"maelnode/pkg/protocol"
)

func reply(typ string, inReplyTo protocol.ID) protocol.Envelope {
	return protocol.Envelope{
		Src:  "n2",
		Dest: "n1",
		Head: protocol.Body{Type: typ, InReplyTo: inReplyTo},
	}
}

func TestPendingResolveSuccess(t *testing.T) {
	p := NewPending()

	var ok, fail int
	if err := p.Await("1", func(protocol.Envelope) { ok++ }, func(protocol.Envelope) { fail++ }); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if p.Size() != 1 {
		t.Fatalf("Size = %d, want 1", p.Size())
	}

	if !p.Resolve("1", reply("foo_ok", "1")) {
		t.Fatalf("Resolve returned false for registered id")
	}
	if ok != 1 || fail != 0 {
		t.Fatalf("callbacks fired ok=%d fail=%d, want 1,0", ok, fail)
	}
	if p.Size() != 0 {
		t.Fatalf("Size after resolve = %d, want 0", p.Size())
	}
}

func TestPendingResolveErrorBody(t *testing.T) {
	p := NewPending()

	var ok, fail int
	p.Await("7", func(protocol.Envelope) { ok++ }, func(protocol.Envelope) { fail++ })

	if !p.Resolve("7", reply("error", "7")) {
		t.Fatalf("Resolve returned false")
	}
	if ok != 0 || fail != 1 {
		t.Fatalf("callbacks fired ok=%d fail=%d, want 0,1", ok, fail)
	}
}

func TestPendingDuplicateReplyDropped(t *testing.T) {
	p := NewPending()

	fired := 0
	p.Await("3", func(protocol.Envelope) { fired++ }, nil)

	if !p.Resolve("3", reply("foo_ok", "3")) {
		t.Fatalf("first Resolve returned false")
	}
	if p.Resolve("3", reply("foo_ok", "3")) {
		t.Fatalf("second Resolve returned true, want drop")
	}
	if fired != 1 {
		t.Fatalf("callback fired %d times, want exactly once", fired)
	}
}

func TestPendingUnmatchedReply(t *testing.T) {
	p := NewPending()
	if p.Resolve("99", reply("foo_ok", "99")) {
		t.Fatalf("Resolve returned true with no pending request")
	}
}

func TestPendingDuplicateAwait(t *testing.T) {
	p := NewPending()
	if err := p.Await("5", nil, nil); err != nil {
		t.Fatalf("Await: %v", err)
	}
	err := p.Await("5", nil, nil)
	if !errors.Is(err, ErrDuplicateAwait) {
		t.Fatalf("second Await err = %v, want ErrDuplicateAwait", err)
	}
}

func TestPendingForget(t *testing.T) {
	p := NewPending()
	fired := 0
	p.Await("4", func(protocol.Envelope) { fired++ }, func(protocol.Envelope) { fired++ })
	p.Forget("4")
	if p.Size() != 0 {
		t.Fatalf("Size after Forget = %d, want 0", p.Size())
	}
	if p.Resolve("4", reply("foo_ok", "4")) {
		t.Fatalf("Resolve after Forget returned true")
	}
	if fired != 0 {
		t.Fatalf("callback fired after Forget")
	}
}

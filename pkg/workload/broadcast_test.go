package workload_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"maelnode/pkg/protocol"
	"maelnode/pkg/workload"
)

const topologyLine = `{"src":"c1","dest":"n1","body":{"type":"topology","msg_id":2,"topology":{"n1":["n2"],"n2":["n1"]}}}`

func TestBroadcastStoreAndRead(t *testing.T) {
	n, out := newTestNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workload.RegisterBroadcast(ctx, n, zaptest.NewLogger(t), time.Minute)

	runInput(t, n,
		initLine,
		topologyLine,
		`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":3,"message":7}}`,
		`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":4,"message":9}}`,
		`{"src":"c1","dest":"n1","body":{"type":"read","msg_id":5}}`,
	)

	byType := map[string]int{}
	var readReply protocol.Envelope
	for _, env := range out.Envelopes() {
		byType[env.Type()]++
		if env.Type() == "read_ok" {
			readReply = env
		}
	}
	require.Equal(t, 1, byType["init_ok"])
	require.Equal(t, 1, byType["topology_ok"])
	require.Equal(t, 2, byType["broadcast_ok"])
	require.Equal(t, 1, byType["read_ok"])

	var body struct {
		Messages []int64 `json:"messages"`
	}
	require.NoError(t, readReply.ReadBody(&body))
	require.ElementsMatch(t, []int64{7, 9}, body.Messages)
}

func TestBroadcastRelaysToNeighbors(t *testing.T) {
	n, out := newTestNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workload.RegisterBroadcast(ctx, n, zaptest.NewLogger(t), time.Minute)

	runInput(t, n,
		initLine,
		topologyLine,
		`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":3,"message":7}}`,
	)

	// The relay to n2 runs on its own goroutine; wait for it to show up.
	require.Eventually(t, func() bool {
		for _, env := range out.Envelopes() {
			if env.Dest == "n2" && env.Type() == "broadcast" {
				return true
			}
		}
		return false
	}, 5*time.Second, time.Millisecond)

	var relay protocol.Envelope
	for _, env := range out.Envelopes() {
		if env.Dest == "n2" && env.Type() == "broadcast" {
			relay = env
		}
	}
	require.Equal(t, "n1", relay.Src)
	require.False(t, relay.Head.MsgID.IsZero(), "relay must carry a msg_id so the ack can correlate")

	var body struct {
		Message int64 `json:"message"`
	}
	require.NoError(t, relay.ReadBody(&body))
	require.Equal(t, int64(7), body.Message)
}

func TestBroadcastDeduplicates(t *testing.T) {
	n, _ := newTestNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := workload.RegisterBroadcast(ctx, n, zaptest.NewLogger(t), time.Minute)

	runInput(t, n,
		initLine,
		topologyLine,
		`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":3,"message":7}}`,
		`{"src":"n2","dest":"n1","body":{"type":"broadcast","msg_id":4,"message":7}}`,
	)

	require.Equal(t, []int64{7}, b.Values())
}

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"maelnode/pkg/workload"
)

func counterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counter",
		Short: "Run the grow-only counter workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, rt *runtime) (func(), error) {
				c := workload.RegisterCounter(rt.node, rt.log)
				interval := time.Duration(rt.cfg.Counter.GossipIntervalMs) * time.Millisecond
				go c.Gossip(ctx, interval)
				return nil, nil
			})
		},
	}
}

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"maelnode/pkg/workload"
)

func broadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast",
		Short: "Run the broadcast workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, rt *runtime) (func(), error) {
				retry := time.Duration(rt.cfg.Broadcast.RetryIntervalMs) * time.Millisecond
				workload.RegisterBroadcast(ctx, rt.node, rt.log, retry)
				return nil, nil
			})
		},
	}
}

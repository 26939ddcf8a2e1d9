package main

import (
	"context"

	"github.com/spf13/cobra"

	"maelnode/pkg/workload"
)

func echoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "echo",
		Short: "Run the echo workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, rt *runtime) (func(), error) {
				workload.RegisterEcho(rt.node)
				return nil, nil
			})
		},
	}
}

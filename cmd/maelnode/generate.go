package main

import (
	"context"

	"github.com/spf13/cobra"

	"maelnode/pkg/workload"
)

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Run the unique-id generation workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, rt *runtime) (func(), error) {
				workload.RegisterGenerate(rt.node)
				return nil, nil
			})
		},
	}
}

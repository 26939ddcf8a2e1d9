package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"maelnode/pkg/workload"
	"maelnode/storage"
)

func kvCmd() *cobra.Command {
	var backend string
	var dataDir string

	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Run the key-value workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, rt *runtime) (func(), error) {
				if backend != "" {
					rt.cfg.Storage.Backend = backend
				}
				if dataDir != "" {
					rt.cfg.Storage.DataDir = dataDir
				}

				var store storage.Storage
				switch rt.cfg.Storage.Backend {
				case "badger":
					bs, err := storage.NewBadgerStorage(rt.cfg.Storage.DataDir)
					if err != nil {
						return nil, err
					}
					store = bs
				default:
					store = storage.NewMemoryStorage()
				}
				rt.log.Info("kv store opened", zap.String("backend", rt.cfg.Storage.Backend))

				workload.RegisterKV(rt.node, store)
				return func() {
					if err := store.Close(); err != nil {
						rt.log.Error("closing kv store", zap.Error(err))
					}
				}, nil
			})
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Storage backend (memory|badger)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory for the badger backend")
	return cmd
}

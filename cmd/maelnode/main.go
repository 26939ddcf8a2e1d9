package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"maelnode/config"
	"maelnode/pkg/node"
	"maelnode/pkg/telemetry"
	"maelnode/pkg/transport"
)

var (
	cfgPath     string
	logLevel    string
	metricsAddr string
)

func main() {
	root := &cobra.Command{
		Use:   "maelnode",
		Short: "maelnode - message-driven node runtime",
		Long: `maelnode runs a single cluster node under a simulated-network test
harness: envelopes in on stdin, envelopes out on stdout, diagnostics
on stderr. Each subcommand selects the workload the node serves.`,
	}

	// Global flags
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Enable the metrics listener on this address")

	// Add subcommands
	root.AddCommand(echoCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(broadcastCmd())
	root.AddCommand(counterCmd())
	root.AddCommand(kvCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles what a workload command needs to wire its handlers.
type runtime struct {
	cfg  *config.Config
	log  *zap.Logger
	node *node.Node
}

// run sets up logging, metrics and the node, lets the workload register its
// handlers, then drives the dispatch loop until stdin closes.
func run(register func(ctx context.Context, rt *runtime) (cleanup func(), err error)) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		cfg = config.GetDefaultConfig()
		fmt.Fprintf(os.Stderr, "using default configuration: %v\n", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics, logger)
	}

	n := node.New(transport.NewWriter(os.Stdout), logger)
	rt := &runtime{cfg: cfg, log: logger, node: n}
	cleanup, err := register(ctx, rt)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := n.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("input closed, node stopped", zap.String("node_id", n.ID()))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func serveMetrics(cfg config.MetricsConfig, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, telemetry.Handler())
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	logger.Info("metrics listener started", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener failed", zap.Error(err))
	}
}

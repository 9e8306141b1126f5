// Command flowgate extracts data from the Jubelio commerce API and loads
// it into a configured destination. It exposes three operations: a
// connection check, stream discovery, and a full sync run.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/internal/pipeline"
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/registry"
	"github.com/flowgate-io/flowgate/pkg/json"
	"github.com/flowgate-io/flowgate/pkg/logger"

	// Register built-in connectors
	_ "github.com/flowgate-io/flowgate/pkg/connector/destinations"
	_ "github.com/flowgate-io/flowgate/pkg/connector/sources"
)

var version = "dev"

// pipelineFile is the on-disk layout of a pipeline configuration.
type pipelineFile struct {
	Source      *config.BaseConfig `yaml:"source"`
	Destination *config.BaseConfig `yaml:"destination"`
	StatePath   string             `yaml:"state_path"`
}

func main() {
	var (
		configPath  string
		logLevel    string
		metricsAddr string
	)

	root := &cobra.Command{
		Use:     "flowgate",
		Short:   "Flowgate extracts commerce data from the Jubelio API",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel})
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "flowgate.yaml", "path to pipeline configuration")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the source configuration against the live API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), configPath)
		},
	}

	streamsCmd := &cobra.Command{
		Use:   "streams",
		Short: "List the streams the configured source exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreams(cmd.Context(), configPath)
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a full extraction from source to destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), configPath, metricsAddr)
		},
	}
	syncCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the sync (e.g. :9090)")

	connectorsCmd := &cobra.Command{
		Use:   "connectors",
		Short: "List registered source and destination connectors",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sources:")
			for _, name := range registry.ListSources() {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println("destinations:")
			for _, name := range registry.ListDestinations() {
				fmt.Printf("  %s\n", name)
			}
		},
	}

	root.AddCommand(checkCmd, streamsCmd, syncCmd, connectorsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// loadPipelineFile reads the pipeline configuration from disk.
func loadPipelineFile(path string) (*pipelineFile, error) {
	var pf pipelineFile
	if err := config.Load(path, &pf); err != nil {
		return nil, err
	}
	if pf.Source == nil {
		return nil, fmt.Errorf("config %s has no source section", path)
	}
	return &pf, nil
}

func runCheck(ctx context.Context, configPath string) error {
	pf, err := loadPipelineFile(configPath)
	if err != nil {
		return err
	}

	source, err := registry.CreateSource(pf.Source.Type, pf.Source)
	if err != nil {
		return err
	}
	defer source.Close(ctx)

	if err := source.Initialize(ctx, pf.Source); err != nil {
		fmt.Printf("FAILED: %v\n", err)
		return err
	}

	result := source.Check(ctx)
	if !result.Status {
		fmt.Printf("FAILED: %s\n", result.Message)
		return fmt.Errorf("connection check failed")
	}
	fmt.Println("SUCCEEDED")
	return nil
}

func runStreams(ctx context.Context, configPath string) error {
	pf, err := loadPipelineFile(configPath)
	if err != nil {
		return err
	}

	source, err := registry.CreateSource(pf.Source.Type, pf.Source)
	if err != nil {
		return err
	}
	defer source.Close(ctx)

	if err := source.Initialize(ctx, pf.Source); err != nil {
		return err
	}

	out, err := json.Marshal(source.Streams())
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runSync(ctx context.Context, configPath, metricsAddr string) error {
	pf, err := loadPipelineFile(configPath)
	if err != nil {
		return err
	}
	if pf.Destination == nil {
		return fmt.Errorf("config %s has no destination section", configPath)
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	p, err := pipeline.New(pipeline.Config{
		SourceName:        pf.Source.Type,
		DestinationName:   pf.Destination.Type,
		SourceConfig:      pf.Source,
		DestinationConfig: pf.Destination,
		StatePath:         pf.StatePath,
	})
	if err != nil {
		return err
	}

	return p.Run(ctx)
}

// serveMetrics exposes Prometheus metrics for the duration of the sync.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Get().Warn("metrics server stopped", zap.Error(err))
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/footprintlab/timeline-engine/internal/pipeline"
	"github.com/footprintlab/timeline-engine/internal/publish"
	"github.com/footprintlab/timeline-engine/internal/store"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/logger"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
	"github.com/footprintlab/timeline-engine/pkg/postgres"
)

var (
	runTarget string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a timeline once and write the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := runTarget
		if target == "" {
			target = cfg.Target.Identifier
		}
		if target == "" {
			return fmt.Errorf("no target: set target.identifier in config or pass --target")
		}

		dateRange, err := requestRange(cfg.Target)
		if err != nil {
			return err
		}

		engine, _, cleanup, err := assembleEngine(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := logger.WithRunID(cmd.Context(), fmt.Sprintf("run-%d", os.Getpid()))
		result, err := engine.Build(ctx, pipeline.Request{Target: target, Range: dateRange})
		if err != nil {
			return err
		}
		return writeResult(result, runOutput)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runTarget, "target", "t", "", "target identifier (handle, email, or hashtag)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write result to file instead of stdout")
}

// requestRange converts the configured from/to bounds into a DateRange; both
// empty means an unbounded request.
func requestRange(t config.TargetConfig) (*timeline.DateRange, error) {
	start, end, err := t.Range()
	if err != nil {
		return nil, err
	}
	if start.IsZero() && end.IsZero() {
		return nil, nil
	}
	return &timeline.DateRange{Start: start, End: end}, nil
}

// assembleEngine builds the engine with its optional store and publisher.
// The returned cleanup closes whatever was opened; it is safe to call even
// when assembly partially failed.
func assembleEngine(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*pipeline.Engine, *store.PostgresStore, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	var runStore *store.PostgresStore
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("connecting to postgres: %w", err)
		}
		closers = append(closers, func() { pg.Close() })
		runStore, err = store.New(ctx, pg)
		if err != nil {
			cleanup()
			return nil, nil, func() {}, err
		}
		opts = append(opts, pipeline.WithStore(runStore))
	}

	if cfg.Kafka.PublishEnriched {
		publisher := publish.New(cfg.Kafka)
		closers = append(closers, func() { publisher.Close() })
		opts = append(opts, pipeline.WithPublisher(publisher))
	}

	return pipeline.New(cfg, buildAdapters(cfg), opts...), runStore, cleanup, nil
}

func writeResult(result *pipeline.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing result: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

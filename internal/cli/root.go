// Package cli wires the timeline engine's command-line interface: a one-shot
// run mode, a long-running serve mode, and a source connectivity check.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/footprintlab/timeline-engine/internal/adapter"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/logger"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Aggregate, enrich, and analyze activity timelines across platforms",
	Long: `timeline builds a unified chronological activity record for one target
identity from heterogeneous sources (file exports, Kafka topics, blog
indexes), deduplicates and enriches it, and derives statistics and a
relationship graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(runCmd, serveCmd, checkCmd)
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildAdapters constructs one adapter per configured source entry.
func buildAdapters(cfg *config.Config) []adapter.Adapter {
	var adapters []adapter.Adapter
	for _, fc := range cfg.Adapters.File {
		adapters = append(adapters, adapter.NewFile(fc))
	}
	for _, kc := range cfg.Adapters.Kafka {
		adapters = append(adapters, adapter.NewKafka(kc, cfg.Kafka))
	}
	for _, bc := range cfg.Adapters.Blog {
		adapters = append(adapters, adapter.NewBlog(bc, nil))
	}
	return adapters
}

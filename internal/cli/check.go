package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/footprintlab/timeline-engine/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connectivity of every configured source",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapters := buildAdapters(cfg)
		if len(adapters) == 0 {
			return fmt.Errorf("no adapters configured")
		}
		log := logger.WithComponent("check")
		failed := 0
		for _, src := range adapters {
			if err := src.TestConnection(cmd.Context()); err != nil {
				failed++
				log.Error("source unreachable", "platform", src.Platform(), "error", err)
				fmt.Printf("FAIL  %-12s %v\n", src.Platform(), err)
				continue
			}
			fmt.Printf("OK    %s\n", src.Platform())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sources unreachable", failed, len(adapters))
		}
		return nil
	},
}

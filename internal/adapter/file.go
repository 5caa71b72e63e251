package adapter

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

// FileAdapter reads raw events from an NDJSON export file, one record per
// line. Malformed lines are dropped individually; the batch always completes.
type FileAdapter struct {
	platform timeline.Platform
	path     string
	logger   *slog.Logger
}

// NewFile creates a FileAdapter from its configuration.
func NewFile(cfg config.FileAdapterConfig) *FileAdapter {
	platform := timeline.Platform(cfg.Platform)
	return &FileAdapter{
		platform: platform,
		path:     cfg.Path,
		logger:   slog.Default().With("component", "file-adapter", "platform", cfg.Platform),
	}
}

// Platform returns the platform this adapter ingests for.
func (a *FileAdapter) Platform() timeline.Platform {
	return a.platform
}

// TestConnection verifies the export file exists and is readable.
func (a *FileAdapter) TestConnection(ctx context.Context) error {
	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("opening export %s: %w", a.path, err)
	}
	return f.Close()
}

// Ingest reads every line of the export, keeping records that match the
// target and fall inside the date range.
func (a *FileAdapter) Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("opening export %s: %w", a.path, err)
	}
	defer f.Close()

	var events []timeline.Event
	dropped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := decodeRecord(a.platform, line)
		if err != nil {
			dropped++
			a.logger.Warn("dropping malformed record", "line", lineNo, "error", err)
			continue
		}
		if !matchesTarget(target, &ev) || !dateRange.Contains(ev.Timestamp) {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export %s: %w", a.path, err)
	}
	a.logger.Info("export ingested", "events", len(events), "dropped", dropped)
	return events, nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/footprintlab/timeline-engine/internal/cache"
	"github.com/footprintlab/timeline-engine/internal/pipeline"
	"github.com/footprintlab/timeline-engine/internal/store"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/health"
	"github.com/footprintlab/timeline-engine/pkg/logger"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
	"github.com/footprintlab/timeline-engine/pkg/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve timeline builds over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// timelineRequest is the serve-mode request body. Range bounds are optional
// RFC 3339 or YYYY-MM-DD strings.
type timelineRequest struct {
	Target string `json:"target"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

func serve(ctx context.Context) error {
	log := logger.WithComponent("serve")
	m := metrics.New()

	engine, runStore, cleanup, err := assembleEngine(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer cleanup()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisClient.Close()
	}
	timelineCache := cache.New(redisClient, engine, cfg.Redis.CacheTTL, m)

	checker := health.NewChecker()
	registerHealthChecks(checker, redisClient, runStore)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/timeline", handleTimeline(timelineCache))
	if runStore != nil {
		mux.HandleFunc("GET /api/v1/runs", handleRuns(runStore))
		mux.HandleFunc("GET /api/v1/runs/{id}/events", handleRunEvents(runStore))
	}
	mux.HandleFunc("GET /healthz/live", checker.LiveHandler())
	mux.HandleFunc("GET /healthz/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var stopMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		stopMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		log.Info("shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if stopMetrics != nil {
		if err := stopMetrics(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

func handleTimeline(c *cache.TimelineCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timelineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
			return
		}
		if req.Target == "" {
			writeError(w, http.StatusBadRequest, "target is required")
			return
		}
		dateRange, err := parseRequestRange(req.From, req.To)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx := logger.WithRunID(r.Context(), fmt.Sprintf("serve-%d", time.Now().UnixNano()))
		result, err := c.GetOrBuild(ctx, pipeline.Request{Target: req.Target, Range: dateRange})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func parseRequestRange(from, to string) (*timeline.DateRange, error) {
	parse := func(field, s string) (time.Time, error) {
		if s == "" {
			return time.Time{}, nil
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, nil
		}
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s %q: want RFC 3339 or YYYY-MM-DD", field, s)
		}
		return ts, nil
	}
	start, err := parse("from", from)
	if err != nil {
		return nil, err
	}
	end, err := parse("to", to)
	if err != nil {
		return nil, err
	}
	if start.IsZero() && end.IsZero() {
		return nil, nil
	}
	return &timeline.DateRange{Start: start, End: end}, nil
}

// handleRuns lists recent persisted runs for a target.
func handleRuns(runStore *store.PostgresStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("target")
		if target == "" {
			writeError(w, http.StatusBadRequest, "target query parameter is required")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := runStore.RecentRuns(r.Context(), target, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if runs == nil {
			runs = []store.RunSummary{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	}
}

// handleRunEvents returns the persisted events of one run.
func handleRunEvents(runStore *store.PostgresStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "run id must be an integer")
			return
		}
		events, err := runStore.RunEvents(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if events == nil {
			events = []timeline.Event{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}
}

func registerHealthChecks(checker *health.Checker, redisClient *redis.Client, runStore *store.PostgresStore) {
	if runStore != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := runStore.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	for _, src := range buildAdapters(cfg) {
		src := src
		checker.Register("adapter:"+string(src.Platform()), func(ctx context.Context) health.ComponentHealth {
			if err := src.TestConnection(ctx); err != nil {
				// Sources come and go; a missing one degrades readiness
				// instead of failing it.
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/vireo/internal/adapters/http/api"
	app "github.com/okian/vireo/internal/app"
	"github.com/okian/vireo/internal/config"
	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	evalDataset := flag.String("eval-dataset", "", "run one evaluation over this dataset file and exit")
	evalRecommender := flag.String("eval-recommender", "day_window", "recommender to evaluate")
	flag.Parse()

	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Get().Error(context.Background(), "flush logs", logger.Error(err))
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithEBirdAPIKey(cfg.EBirdAPIKey),
		app.WithEBirdBaseURL(cfg.EBirdBaseURL),
		app.WithCachePath(cfg.EBirdCachePath),
		app.WithEBirdRateLimit(cfg.EBirdRequestsPerSecond),
		app.WithFetchWorkers(cfg.EBirdFetchWorkers),
		app.WithMaxResults(cfg.EBirdMaxResults),
		app.WithHistoricalYears(cfg.HistoricalYears),
		app.WithDayWindow(cfg.DayWindow),
		app.WithModelAPIKey(cfg.ModelAPIKey),
		app.WithModelName(cfg.ModelName),
		app.WithModelEndpoint(cfg.ModelEndpoint),
		app.WithModelMaxTokens(cfg.ModelMaxTokens),
		app.WithHybridWeights(cfg.ModelWeight, cfg.HeuristicWeight),
		app.WithEvalWorkers(cfg.EvalWorkers),
		app.WithEvalTopK(cfg.EvalTopK),
		app.WithEvalAreaKind(model.AreaKind(cfg.EvalAreaKind)),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// One-shot evaluation mode: run the dataset and print the aggregate.
	if *evalDataset != "" {
		runEvaluation(ctx, svc, *evalRecommender, *evalDataset)
		return
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// runEvaluation evaluates one recommender over a dataset file and writes
// the aggregate metrics as JSON to stdout.
func runEvaluation(ctx context.Context, svc *app.Service, recommender, path string) {
	log := logger.Get()

	perPoint, aggregate, err := svc.EvaluateDataset(ctx, recommender, path)
	if err != nil {
		log.Error(ctx, "evaluation finished with failures",
			logger.String("recommender", recommender),
			logger.Int("evaluated", len(perPoint)),
			logger.Error(err))
	}
	if len(perPoint) == 0 {
		os.Stderr.WriteString("no datapoints evaluated\n")
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(aggregate); err != nil {
		log.Error(ctx, "encode aggregate metrics", logger.Error(err))
	}
}

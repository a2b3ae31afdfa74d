// Command server runs the score submission and ranking engine.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/nipaa-droid/nipaa-web-sub000/app/api"
	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/processor"
	replayservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay/application"
	scoreservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/application"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	statsservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/application"
	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/metrics"
	"github.com/nipaa-droid/nipaa-web-sub000/config"
	"github.com/nipaa-droid/nipaa-web-sub000/internal/db/bundb"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	tracer := otel.Tracer("droid-score-server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	db, err := bundb.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	bus := eventbus.New(logger)
	defer bus.Close()

	proc := processor.NewClient(cfg.Processor.BaseURL, nil)
	provider := beatmap.NewHTTPProvider(cfg.Beatmap.BaseURL, nil)
	cache := beatmap.NewCache(provider, cfg.Beatmap.CacheCapacity, cfg.Beatmap.CacheTTL, logger,
		beatmap.WithRateLimit(rate.Limit(cfg.Beatmap.FetchRatePerSecond), cfg.Beatmap.FetchBurst),
		beatmap.WithMetrics(m),
	)

	scoreRepo := scoredb.NewRepository()
	statsRepo := statsdb.NewRepository()
	playing := scoreservice.NewPlayingRegistry()

	scores := scoreservice.NewScoreService(scoreRepo, db, cache, playing, proc, bus, logger, m, tracer, scoreservice.Config{
		Metric:          cfg.Submission.Metric,
		FreshnessWindow: cfg.Submission.FreshnessWindow,
	})
	replays := replayservice.NewReplayService(scoreRepo, db, cache, proc, proc, scores, bus, logger, m, tracer, replayservice.Tolerances{
		MinVersion:    cfg.Replay.MinVersion,
		Accuracy:      cfg.Replay.AccuracyTolerance,
		HitCount:      cfg.Replay.HitCountTolerance,
		Combo:         cfg.Replay.ComboTolerance,
		Speed:         cfg.Replay.SpeedTolerance,
		ScoreRelative: cfg.Replay.ScoreRelativeTol,
	})
	stats := statsservice.NewStatsService(scoreRepo, statsRepo, db, cfg.Submission.Metric, logger, tracer)

	go func() {
		if err := stats.RunSubscriber(ctx, bus); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Stats subscriber stopped", slog.Any("error", err))
		}
	}()

	handler := api.NewHandler(scores, replays, stats, playing, logger)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Score server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

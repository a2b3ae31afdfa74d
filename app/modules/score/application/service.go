package scoreservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/metrics"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/results"
)

// BeatmapSource resolves map hashes to metadata. Satisfied by *beatmap.Cache.
type BeatmapSource interface {
	Lookup(ctx context.Context, md5 string) (*beatmap.Info, error)
}

// PerformanceCalculator is the external difficulty/performance engine,
// consumed as a black box.
type PerformanceCalculator interface {
	Calculate(ctx context.Context, diff beatmap.Difficulty, set mods.ModSet, speed, accuracyFraction float64, maxCombo int, tapPenalty float64) (float64, error)
}

// EventPublisher emits domain events after persistence.
type EventPublisher interface {
	PublishScoreSubmitted(ctx context.Context, ev eventbus.ScoreSubmitted) error
}

// txRunner is the slice of *bun.DB the resolver needs to run its critical
// section in one transaction.
type txRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Config carries the deployment-time knobs of the submission path.
type Config struct {
	// Metric is the active leaderboard metric.
	Metric domain.Metric
	// FreshnessWindow bounds how old a submission timestamp may be.
	FreshnessWindow time.Duration
}

// ScoreService owns score submission: parsing, status resolution, and
// persistence.
type ScoreService struct {
	repo      scoredb.Repository
	tx        txRunner
	db        bun.IDB
	beatmaps  BeatmapSource
	playing   *PlayingRegistry
	perf      PerformanceCalculator
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	cfg       Config
	now       func() time.Time
}

// NewScoreService wires a ScoreService. db doubles as the transaction runner
// in production; tests substitute fakes for both.
func NewScoreService(
	repo scoredb.Repository,
	db *bun.DB,
	beatmaps BeatmapSource,
	playing *PlayingRegistry,
	perf PerformanceCalculator,
	publisher EventPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	tracer trace.Tracer,
	cfg Config,
) *ScoreService {
	return &ScoreService{
		repo:      repo,
		tx:        db,
		db:        db,
		beatmaps:  beatmaps,
		playing:   playing,
		perf:      perf,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, logging, and panic
// recovery. Business failures come back inside the result with a nil error.
func withTelemetry[S any, F any](
	s *ScoreService,
	ctx context.Context,
	operationName string,
	player domain.Player,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.Int64("player_id", player.ID),
	))
	defer span.End()

	s.logger.InfoContext(ctx, operationName+" triggered",
		slog.String("operation", operationName),
		slog.Int64("player_id", player.ID),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.Int64("player_id", player.ID),
				slog.Any("error", err),
			)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.Int64("player_id", player.ID),
			slog.Any("error", wrappedErr),
		)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.Int64("player_id", player.ID),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			slog.String("operation", operationName),
			slog.Int64("player_id", player.ID),
		)
	}

	return result, nil
}

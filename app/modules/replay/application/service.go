package replayservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/metrics"
)

// BeatmapSource resolves map hashes to metadata. Satisfied by *beatmap.Cache.
type BeatmapSource interface {
	Lookup(ctx context.Context, md5 string) (*beatmap.Info, error)
}

// PerformanceCalculator recalculates performance under the replay's actual
// modifiers, speed, and tap penalty.
type PerformanceCalculator interface {
	Calculate(ctx context.Context, diff beatmap.Difficulty, set mods.ModSet, speed, accuracyFraction float64, maxCombo int, tapPenalty float64) (float64, error)
}

// BestScorePromoter re-runs best-score resolution after an invalidation.
// Satisfied by *scoreservice.ScoreService.
type BestScorePromoter interface {
	PromoteNextBest(ctx context.Context, playerID int64, mapHash string, excludingID int64) error
}

// EventPublisher emits invalidation events.
type EventPublisher interface {
	PublishScoreInvalidated(ctx context.Context, ev eventbus.ScoreInvalidated) error
}

// Tolerances bounds how far a replay may drift from its stored score before
// the score is treated as forged.
type Tolerances struct {
	// MinVersion is the lowest accepted replay format version.
	MinVersion int
	// Accuracy is the absolute accuracy-fraction tolerance.
	Accuracy float64
	// HitCount is the per-category (geki, katu) count tolerance.
	HitCount int
	// Combo is the max combo tolerance.
	Combo int
	// Speed is the absolute custom speed tolerance.
	Speed float64
	// ScoreRelative scales the raw score tolerance by the mean of the stored
	// and re-derived values.
	ScoreRelative float64
}

// DefaultTolerances are the production settings.
func DefaultTolerances() Tolerances {
	return Tolerances{
		MinVersion:    3,
		Accuracy:      0.01,
		HitCount:      3,
		Combo:         3,
		Speed:         0.01,
		ScoreRelative: 0.15,
	}
}

// ReplayService cross-validates uploaded replays against stored scores.
type ReplayService struct {
	repo      scoredb.Repository
	db        bun.IDB
	beatmaps  BeatmapSource
	analyzer  replay.Analyzer
	perf      PerformanceCalculator
	promoter  BestScorePromoter
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	tol       Tolerances
	now       func() time.Time
}

// NewReplayService wires a ReplayService.
func NewReplayService(
	repo scoredb.Repository,
	db *bun.DB,
	beatmaps BeatmapSource,
	analyzer replay.Analyzer,
	perf PerformanceCalculator,
	promoter BestScorePromoter,
	publisher EventPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	tracer trace.Tracer,
	tol Tolerances,
) *ReplayService {
	return &ReplayService{
		repo:      repo,
		db:        db,
		beatmaps:  beatmaps,
		analyzer:  analyzer,
		perf:      perf,
		promoter:  promoter,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		tol:       tol,
		now:       time.Now,
	}
}

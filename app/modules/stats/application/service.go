// Package statsservice recomputes per-player aggregate statistics and ranks
// from the score set after every accepted submission or invalidation.
package statsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
)

// ErrPlayerNotFound is reported when rank queries reference a player with no
// statistics row.
var ErrPlayerNotFound = errors.New("player has no statistics")

// StatsService computes weighted aggregates and ranks. The active leaderboard
// metric is fixed at construction.
type StatsService struct {
	scoreRepo scoredb.Repository
	statsRepo statsdb.Repository
	db        bun.IDB
	metric    domain.Metric
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStatsService wires a StatsService.
func NewStatsService(
	scoreRepo scoredb.Repository,
	statsRepo statsdb.Repository,
	db bun.IDB,
	metric domain.Metric,
	logger *slog.Logger,
	tracer trace.Tracer,
) *StatsService {
	return &StatsService{
		scoreRepo: scoreRepo,
		statsRepo: statsRepo,
		db:        db,
		metric:    metric,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// RecomputeStats rebuilds the player's aggregate row from their current best
// scores and persists it. countPlay advances the play counter, which only
// submission events do; invalidations rebuild the aggregates without it. The
// counter moves atomically inside the upsert, so concurrent recomputes of the
// same row cannot drop an increment.
func (s *StatsService) RecomputeStats(ctx context.Context, playerID int64, mode domain.GameMode, countPlay bool) (*statsdb.PlayerStats, error) {
	ctx, span := s.tracer.Start(ctx, "RecomputeStats")
	defer span.End()

	best, err := s.scoreRepo.FindPlayerBestScores(ctx, s.db, playerID, mode, s.metric, maxWeightedScores)
	if err != nil {
		return nil, fmt.Errorf("recompute stats for player %d: %w", playerID, err)
	}

	// The weighted aggregates use only the top scores; the score sum ranks
	// over every qualifying score and so cannot come from the capped list.
	rankedScore, err := s.scoreRepo.SumScoreValues(ctx, s.db, playerID, mode)
	if err != nil {
		return nil, fmt.Errorf("recompute stats for player %d: %w", playerID, err)
	}

	playDelta := 0
	if countPlay {
		playDelta = 1
	}

	stats := &statsdb.PlayerStats{
		PlayerID:    playerID,
		Mode:        mode,
		PlayCount:   playDelta,
		Accuracy:    weightedAccuracy(best),
		Performance: weightedPerformance(best),
		RankedScore: rankedScore,
		TotalScore:  rankedScore,
		UpdatedAt:   s.now(),
	}

	if err := s.statsRepo.UpsertStats(ctx, s.db, stats, playDelta); err != nil {
		return nil, fmt.Errorf("recompute stats for player %d: %w", playerID, err)
	}

	s.logger.InfoContext(ctx, "Player stats recomputed",
		slog.Int64("player_id", playerID),
		slog.Int("play_count", stats.PlayCount),
		slog.Float64("performance", stats.Performance),
	)
	return stats, nil
}

// GetStats loads the player's aggregate row. Fresh players get the zero-score
// defaults (accuracy 100%, metric 0) rather than an error.
func (s *StatsService) GetStats(ctx context.Context, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error) {
	stats, err := s.statsRepo.GetStats(ctx, s.db, playerID, mode)
	if err != nil {
		if errors.Is(err, statsdb.ErrNotFound) {
			return &statsdb.PlayerStats{PlayerID: playerID, Mode: mode, Accuracy: 1}, nil
		}
		return nil, err
	}
	return stats, nil
}

// GlobalRank returns the player's 1-based global position under the active
// metric: one plus the number of other players at or above their value.
func (s *StatsService) GlobalRank(ctx context.Context, playerID int64, mode domain.GameMode) (int, error) {
	stats, err := s.statsRepo.GetStats(ctx, s.db, playerID, mode)
	if err != nil {
		if errors.Is(err, statsdb.ErrNotFound) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}

	var ahead int
	switch s.metric {
	case domain.MetricPerformance:
		ahead, err = s.statsRepo.CountPlayersWithPerformanceAtLeast(ctx, s.db, mode, stats.Performance, playerID)
	default:
		ahead, err = s.scoreRepo.CountPlayersWithScoreSumAtLeast(ctx, s.db, mode, stats.RankedScore, playerID)
	}
	if err != nil {
		return 0, fmt.Errorf("global rank for player %d: %w", playerID, err)
	}
	return ahead + 1, nil
}

// Placement returns a score's 1-based position on its map leaderboard.
func (s *StatsService) Placement(ctx context.Context, score *scoredb.Score) (int, error) {
	ahead, err := s.scoreRepo.CountScoresWithMetricAtLeast(ctx, s.db, score.MapHash, s.metric, score.MetricValue(s.metric), score.ID)
	if err != nil {
		return 0, fmt.Errorf("placement for score %d: %w", score.ID, err)
	}
	return ahead + 1, nil
}

// MapLeaderboard returns the top scores on a map under the active metric.
func (s *StatsService) MapLeaderboard(ctx context.Context, mapHash string, limit int) ([]scoredb.Score, error) {
	scores, err := s.scoreRepo.FindMapLeaderboard(ctx, s.db, mapHash, s.metric, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard for %s: %w", mapHash, err)
	}
	return scores, nil
}

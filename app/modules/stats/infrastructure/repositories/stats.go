package statsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// StatsDBImpl implements Repository on bun.
type StatsDBImpl struct{}

// NewRepository returns the bun-backed stats repository.
func NewRepository() *StatsDBImpl {
	return &StatsDBImpl{}
}

func (r *StatsDBImpl) GetStats(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (*PlayerStats, error) {
	stats := new(PlayerStats)
	err := db.NewSelect().
		Model(stats).
		Where("ps.player_id = ?", playerID).
		Where("ps.mode = ?", mode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch stats for player %d: %w", playerID, err)
	}
	return stats, nil
}

func (r *StatsDBImpl) UpsertStats(ctx context.Context, db bun.IDB, stats *PlayerStats, playCountDelta int) error {
	_, err := db.NewInsert().
		Model(stats).
		On("CONFLICT (player_id, mode) DO UPDATE").
		Set("play_count = ps.play_count + ?", playCountDelta).
		Set("accuracy = EXCLUDED.accuracy").
		Set("performance = EXCLUDED.performance").
		Set("ranked_score = EXCLUDED.ranked_score").
		Set("total_score = EXCLUDED.total_score").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("play_count").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert stats for player %d: %w", stats.PlayerID, err)
	}
	return nil
}

func (r *StatsDBImpl) CountPlayersWithPerformanceAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value float64, excludingPlayerID int64) (int, error) {
	count, err := db.NewSelect().
		Model((*PlayerStats)(nil)).
		Where("ps.mode = ?", mode).
		Where("ps.performance >= ?", value).
		Where("ps.player_id != ?", excludingPlayerID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count players by performance: %w", err)
	}
	return count, nil
}

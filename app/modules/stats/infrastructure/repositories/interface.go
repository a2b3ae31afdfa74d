package statsdb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// Repository is the persistence boundary for per-player aggregates.
type Repository interface {
	// GetStats loads the (player, mode) row. Returns ErrNotFound if absent.
	GetStats(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (*PlayerStats, error)

	// UpsertStats writes the row, inserting or replacing. The play counter
	// is advanced by playCountDelta relative to the stored row rather than
	// overwritten from stats, so concurrent recomputes of one player cannot
	// lose an increment; the stored value is scanned back into stats.
	UpsertStats(ctx context.Context, db bun.IDB, stats *PlayerStats, playCountDelta int) error

	// CountPlayersWithPerformanceAtLeast counts other players whose cached
	// weighted performance is >= value.
	CountPlayersWithPerformanceAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value float64, excludingPlayerID int64) (int, error)
}

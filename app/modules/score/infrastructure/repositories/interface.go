package scoredb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// Repository is the persistence boundary for scores. Every method takes a
// bun.IDB so the status resolver can thread a single transaction through the
// lookup/demote/promote sequence.
type Repository interface {
	// CreateScore inserts the candidate and fills in its generated ID.
	CreateScore(ctx context.Context, db bun.IDB, score *Score) error

	// FindScoreByID loads one score. Returns ErrNotFound if absent.
	FindScoreByID(ctx context.Context, db bun.IDB, id int64) (*Score, error)

	// FindBestScore returns the player's current best (status BEST or
	// APPROVED) on the map, or ErrNotFound. When forUpdate is true the row is
	// locked for the duration of the enclosing transaction.
	FindBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, forUpdate bool) (*Score, error)

	// FindNextBestScore returns the player's highest remaining score on the
	// map under the metric, excluding the given score ID, or ErrNotFound.
	FindNextBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, metric domain.Metric, excludingID int64) (*Score, error)

	// UpdateScoreStatus sets the status of one score.
	UpdateScoreStatus(ctx context.Context, db bun.IDB, id int64, status domain.SubmissionStatus) error

	// UpdateScorePerformance sets the stored performance value.
	UpdateScorePerformance(ctx context.Context, db bun.IDB, id int64, performance float64) error

	// SaveReplay attaches the raw replay bytes to a score.
	SaveReplay(ctx context.Context, db bun.IDB, id int64, replay []byte) error

	// DeleteScore removes a score row entirely.
	DeleteScore(ctx context.Context, db bun.IDB, id int64) error

	// FindPlayerBestScores returns the player's leaderboard-counting scores
	// ordered by the metric descending, at most limit rows.
	FindPlayerBestScores(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]Score, error)

	// FindMapLeaderboard returns the top leaderboard-counting scores on a map
	// ordered by the metric descending.
	FindMapLeaderboard(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]Score, error)

	// CountScoresWithMetricAtLeast counts leaderboard-counting scores on the
	// map whose metric value is >= value, excluding the given score ID
	// (pass 0 to exclude nothing).
	CountScoresWithMetricAtLeast(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error)

	// SumScoreValues totals the raw values of all the player's
	// leaderboard-counting scores, with no cap on how many participate.
	SumScoreValues(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (int64, error)

	// CountPlayersWithScoreSumAtLeast counts players whose summed
	// leaderboard-counting raw score is >= value, excluding a player.
	CountPlayersWithScoreSumAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error)
}

package scoredb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// ScoreDBImpl implements Repository on bun.
type ScoreDBImpl struct{}

// NewRepository returns the bun-backed score repository.
func NewRepository() *ScoreDBImpl {
	return &ScoreDBImpl{}
}

func metricColumn(metric domain.Metric) string {
	if metric == domain.MetricPerformance {
		return "performance"
	}
	return "value"
}

var leaderboardStatuses = []domain.SubmissionStatus{domain.StatusBest, domain.StatusApproved}

func (r *ScoreDBImpl) CreateScore(ctx context.Context, db bun.IDB, score *Score) error {
	if _, err := db.NewInsert().Model(score).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert score for player %d on %s: %w", score.PlayerID, score.MapHash, err)
	}
	return nil
}

func (r *ScoreDBImpl) FindScoreByID(ctx context.Context, db bun.IDB, id int64) (*Score, error) {
	score := new(Score)
	err := db.NewSelect().Model(score).Where("sc.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch score %d: %w", id, err)
	}
	return score, nil
}

func (r *ScoreDBImpl) FindBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, forUpdate bool) (*Score, error) {
	score := new(Score)
	q := db.NewSelect().
		Model(score).
		Where("sc.player_id = ?", playerID).
		Where("sc.map_hash = ?", mapHash).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses))
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch best score for player %d on %s: %w", playerID, mapHash, err)
	}
	return score, nil
}

func (r *ScoreDBImpl) FindNextBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, metric domain.Metric, excludingID int64) (*Score, error) {
	score := new(Score)
	err := db.NewSelect().
		Model(score).
		Where("sc.player_id = ?", playerID).
		Where("sc.map_hash = ?", mapHash).
		Where("sc.id != ?", excludingID).
		OrderExpr("sc.? DESC", bun.Ident(metricColumn(metric))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch next best score for player %d on %s: %w", playerID, mapHash, err)
	}
	return score, nil
}

func (r *ScoreDBImpl) UpdateScoreStatus(ctx context.Context, db bun.IDB, id int64, status domain.SubmissionStatus) error {
	res, err := db.NewUpdate().
		Model((*Score)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update status of score %d: %w", id, err)
	}
	return checkAffected(res)
}

func (r *ScoreDBImpl) UpdateScorePerformance(ctx context.Context, db bun.IDB, id int64, performance float64) error {
	res, err := db.NewUpdate().
		Model((*Score)(nil)).
		Set("performance = ?", performance).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update performance of score %d: %w", id, err)
	}
	return checkAffected(res)
}

func (r *ScoreDBImpl) SaveReplay(ctx context.Context, db bun.IDB, id int64, replay []byte) error {
	res, err := db.NewUpdate().
		Model((*Score)(nil)).
		Set("replay = ?", replay).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save replay for score %d: %w", id, err)
	}
	return checkAffected(res)
}

func (r *ScoreDBImpl) DeleteScore(ctx context.Context, db bun.IDB, id int64) error {
	res, err := db.NewDelete().
		Model((*Score)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete score %d: %w", id, err)
	}
	return checkAffected(res)
}

func (r *ScoreDBImpl) FindPlayerBestScores(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]Score, error) {
	var scores []Score
	err := db.NewSelect().
		Model(&scores).
		Where("sc.player_id = ?", playerID).
		Where("sc.mode = ?", mode).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses)).
		OrderExpr("sc.? DESC", bun.Ident(metricColumn(metric))).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch best scores for player %d: %w", playerID, err)
	}
	return scores, nil
}

func (r *ScoreDBImpl) FindMapLeaderboard(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]Score, error) {
	var scores []Score
	err := db.NewSelect().
		Model(&scores).
		Where("sc.map_hash = ?", mapHash).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses)).
		OrderExpr("sc.? DESC", bun.Ident(metricColumn(metric))).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard for %s: %w", mapHash, err)
	}
	return scores, nil
}

func (r *ScoreDBImpl) CountScoresWithMetricAtLeast(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error) {
	q := db.NewSelect().
		Model((*Score)(nil)).
		Where("sc.map_hash = ?", mapHash).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses)).
		Where("sc.? >= ?", bun.Ident(metricColumn(metric)), value)
	if excludingID != 0 {
		q = q.Where("sc.id != ?", excludingID)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count scores on %s: %w", mapHash, err)
	}
	return count, nil
}

func (r *ScoreDBImpl) SumScoreValues(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (int64, error) {
	var total int64
	err := db.NewSelect().
		Model((*Score)(nil)).
		ColumnExpr("COALESCE(SUM(sc.value), 0)").
		Where("sc.player_id = ?", playerID).
		Where("sc.mode = ?", mode).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses)).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum score values for player %d: %w", playerID, err)
	}
	return total, nil
}

func (r *ScoreDBImpl) CountPlayersWithScoreSumAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error) {
	sums := db.NewSelect().
		Model((*Score)(nil)).
		ColumnExpr("sc.player_id").
		ColumnExpr("SUM(sc.value) AS total").
		Where("sc.mode = ?", mode).
		Where("sc.status IN (?)", bun.In(leaderboardStatuses)).
		Where("sc.player_id != ?", excludingPlayerID).
		Group("sc.player_id").
		Having("SUM(sc.value) >= ?", value)

	count, err := db.NewSelect().
		TableExpr("(?) AS sums", sums).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count players by score sum: %w", err)
	}
	return count, nil
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

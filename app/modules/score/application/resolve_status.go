package scoreservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

// resolution describes the outcome of status resolution for one candidate.
type resolution struct {
	// Promoted is true when the candidate became the current best.
	Promoted bool
	// DemotedPreviousID is the ID of the prior best demoted to SUBMITTED,
	// or 0 when there was none.
	DemotedPreviousID int64
}

// promotedStatus picks the current-best status for a map category: APPROVED
// maps use APPROVED, all other submittable categories use BEST.
func promotedStatus(mapStatus beatmap.RankedStatus) domain.SubmissionStatus {
	if mapStatus == beatmap.StatusApproved {
		return domain.StatusApproved
	}
	return domain.StatusBest
}

// resolveAndPersist runs the best-score state machine for a fresh candidate
// and persists it, all inside one transaction. The previous best row is
// locked FOR UPDATE so two concurrent submissions for the same (player, map)
// serialize here instead of both reading "no previous best"; a partial unique
// index on the current-best predicate backs the invariant up at the schema
// level.
func (s *ScoreService) resolveAndPersist(ctx context.Context, candidate *scoredb.Score, mapStatus beatmap.RankedStatus) (resolution, error) {
	if candidate.ID != 0 || candidate.Status != domain.StatusFailed {
		err := fmt.Errorf("%w: candidate must be unpersisted with status FAILED, got id=%d status=%s",
			ErrInvariantViolation, candidate.ID, candidate.Status)
		s.logger.ErrorContext(ctx, "Refusing to resolve candidate",
			slog.Int64("player_id", candidate.PlayerID),
			slog.String("map_hash", candidate.MapHash),
			slog.Any("error", err),
		)
		return resolution{}, err
	}

	var res resolution
	err := s.tx.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		previous, err := s.repo.FindBestScore(ctx, tx, candidate.PlayerID, candidate.MapHash, true)
		if err != nil && !errors.Is(err, scoredb.ErrNotFound) {
			return err
		}

		switch {
		case previous == nil:
			candidate.Status = promotedStatus(mapStatus)
			res.Promoted = true

		case candidate.MetricValue(s.cfg.Metric) >= previous.MetricValue(s.cfg.Metric):
			if err := s.repo.UpdateScoreStatus(ctx, tx, previous.ID, domain.StatusSubmitted); err != nil {
				return fmt.Errorf("demote previous best %d: %w", previous.ID, err)
			}
			candidate.Status = promotedStatus(mapStatus)
			res.Promoted = true
			res.DemotedPreviousID = previous.ID

		default:
			// Not an improvement; the play is kept but never ranks.
			candidate.Status = domain.StatusFailed
		}

		return s.repo.CreateScore(ctx, tx, candidate)
	})
	if err != nil {
		return resolution{}, fmt.Errorf("status resolution for player %d on %s: %w", candidate.PlayerID, candidate.MapHash, err)
	}
	return res, nil
}

// PromoteNextBest re-runs resolution after a score was removed or demoted by
// replay validation: the player's highest remaining score on the map is
// promoted if the map still qualifies. Called with the invalidated score
// already gone or demoted.
func (s *ScoreService) PromoteNextBest(ctx context.Context, playerID int64, mapHash string, excludingID int64) error {
	info, err := s.beatmaps.Lookup(ctx, mapHash)
	if err != nil {
		if errors.Is(err, beatmap.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("beatmap lookup for re-promotion: %w", err)
	}
	if !info.Status.Submittable() {
		return nil
	}

	return s.tx.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// A current best may already exist if resolution ran in between.
		if _, err := s.repo.FindBestScore(ctx, tx, playerID, mapHash, true); err == nil {
			return nil
		} else if !errors.Is(err, scoredb.ErrNotFound) {
			return err
		}

		next, err := s.repo.FindNextBestScore(ctx, tx, playerID, mapHash, s.cfg.Metric, excludingID)
		if err != nil {
			if errors.Is(err, scoredb.ErrNotFound) {
				return nil
			}
			return err
		}
		return s.repo.UpdateScoreStatus(ctx, tx, next.ID, promotedStatus(info.Status))
	})
}

package scoreservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/results"
)

// SubmissionAccepted is the success payload of SubmitScore.
type SubmissionAccepted struct {
	ScoreID     int64                   `json:"score_id"`
	Status      domain.SubmissionStatus `json:"status"`
	Performance float64                 `json:"performance"`
	// MapPlacement is the score's 1-based leaderboard position on its map.
	// Zero when the score did not reach a leaderboard status.
	MapPlacement int `json:"map_placement,omitempty"`
}

// SubmitResult is what SubmitScore hands back: either an accepted submission
// or a structured rejection.
type SubmitResult = results.OperationResult[SubmissionAccepted, SubmissionRejection]

// SubmitScore runs the full submission pipeline: parse and validate the raw
// payload, resolve the candidate's status against the player's previous best,
// persist it, and publish the domain event. Client-data problems surface as a
// Failure payload with a nil error; no persistence write happens before every
// validation step has passed.
func (s *ScoreService) SubmitScore(ctx context.Context, raw string, player domain.Player) (SubmitResult, error) {
	start := s.now()

	result, err := withTelemetry(s, ctx, "SubmitScore", player, func(ctx context.Context) (SubmitResult, error) {
		candidate, info, rejection, err := s.parseSubmission(ctx, raw, player)
		if err != nil {
			return SubmitResult{}, err
		}
		if rejection != nil {
			return results.Failed[SubmissionAccepted, SubmissionRejection](*rejection), nil
		}

		res, err := s.resolveAndPersist(ctx, candidate, info.Status)
		if err != nil {
			return SubmitResult{}, err
		}

		accepted := SubmissionAccepted{
			ScoreID:     candidate.ID,
			Status:      candidate.Status,
			Performance: candidate.Performance,
		}

		if res.Promoted {
			placement, err := s.repo.CountScoresWithMetricAtLeast(ctx, s.db, candidate.MapHash, s.cfg.Metric, candidate.MetricValue(s.cfg.Metric), candidate.ID)
			if err != nil {
				return SubmitResult{}, err
			}
			accepted.MapPlacement = placement + 1
		}

		if res.DemotedPreviousID != 0 {
			s.logger.InfoContext(ctx, "Previous best demoted",
				slog.Int64("player_id", candidate.PlayerID),
				slog.String("map_hash", candidate.MapHash),
				slog.Int64("demoted_score_id", res.DemotedPreviousID),
			)
		}

		if err := s.publisher.PublishScoreSubmitted(ctx, eventbus.ScoreSubmitted{
			ScoreID:     candidate.ID,
			PlayerID:    candidate.PlayerID,
			Mode:        candidate.Mode,
			MapHash:     candidate.MapHash,
			Status:      candidate.Status,
			SubmittedAt: candidate.SubmittedAt,
		}); err != nil {
			// The score is already persisted; a publish failure only delays
			// stats recomputation until the next accepted submission.
			s.logger.WarnContext(ctx, "Failed to publish score submitted event",
				slog.Int64("score_id", candidate.ID),
				slog.Any("error", err),
			)
		}

		return results.Successful[SubmissionAccepted, SubmissionRejection](accepted), nil
	})

	outcome := "failed"
	switch {
	case err == nil && result.IsSuccess():
		outcome = "accepted"
	case err == nil && result.IsFailure():
		outcome = "rejected"
	}
	s.metrics.RecordSubmission(outcome, time.Since(start))

	return result, err
}

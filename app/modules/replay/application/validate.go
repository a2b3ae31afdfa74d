package replayservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/results"
)

// ReplayConfirmed is the success payload of ValidateReplay.
type ReplayConfirmed struct {
	ScoreID int64 `json:"score_id"`
	// Performance is the updated performance value after applying the tap
	// penalty under the replay's actual modifiers.
	Performance float64 `json:"performance"`
}

// ValidateResult carries either a confirmation or a named rejection.
type ValidateResult = results.OperationResult[ReplayConfirmed, ReplayRejection]

// ValidateReplay cross-validates an uploaded replay against the stored score
// it claims to prove. Every check rejects independently; any mismatch removes
// the score and promotes the player's next best on the map. On success the
// stored performance is recalculated with the replay's tap penalty and the
// replay bytes are persisted.
func (s *ReplayService) ValidateReplay(ctx context.Context, scoreID int64, rawReplay []byte) (ValidateResult, error) {
	ctx, span := s.tracer.Start(ctx, "ValidateReplay")
	defer span.End()

	result, err := s.validate(ctx, scoreID, rawReplay)

	outcome := "failed"
	switch {
	case err == nil && result.IsSuccess():
		outcome = "confirmed"
	case err == nil && result.IsFailure():
		outcome = "rejected"
	}
	s.metrics.RecordReplayValidation(outcome)

	if err != nil {
		wrapped := fmt.Errorf("ValidateReplay: %w", err)
		s.logger.ErrorContext(ctx, "Replay validation failed with error",
			slog.Int64("score_id", scoreID),
			slog.Any("error", wrapped),
		)
		span.RecordError(wrapped)
		return result, wrapped
	}
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Replay rejected",
			slog.Int64("score_id", scoreID),
			slog.String("code", string(result.Failure.Code)),
			slog.Bool("score_invalidated", result.Failure.ScoreInvalidated),
		)
	}
	return result, nil
}

func (s *ReplayService) validate(ctx context.Context, scoreID int64, rawReplay []byte) (ValidateResult, error) {
	score, err := s.repo.FindScoreByID(ctx, s.db, scoreID)
	if err != nil {
		if errors.Is(err, scoredb.ErrNotFound) {
			return reject(ReplayRejection{Code: RejectionScoreNotFound}), nil
		}
		return ValidateResult{}, err
	}

	info, err := s.beatmaps.Lookup(ctx, score.MapHash)
	if err != nil {
		if errors.Is(err, beatmap.ErrNotFound) {
			// The map vanished upstream; nothing to validate against, and
			// that is not the player's fault. The score stays.
			return reject(ReplayRejection{Code: RejectionBeatmapGone, Detail: score.MapHash}), nil
		}
		return ValidateResult{}, err
	}

	analysis, err := s.analyzer.Analyze(ctx, rawReplay, info)
	if err != nil || analysis == nil {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		return s.invalidate(ctx, score, ReplayRejection{Code: RejectionAnalysisFailed, Detail: detail})
	}

	if rejection := s.crossCheck(score, analysis, info); rejection != nil {
		return s.invalidate(ctx, score, *rejection)
	}

	performance, err := s.perf.Calculate(ctx, info.Difficulty, analysis.Mods, analysis.Speed, analysis.Accuracy, score.MaxCombo, analysis.TapPenalty)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("performance recalculation: %w", err)
	}
	if math.IsNaN(performance) || math.IsInf(performance, 0) || performance < 0 {
		performance = 0
	}

	if err := s.repo.UpdateScorePerformance(ctx, s.db, score.ID, performance); err != nil {
		return ValidateResult{}, err
	}
	if err := s.repo.SaveReplay(ctx, s.db, score.ID, rawReplay); err != nil {
		return ValidateResult{}, err
	}

	return results.Successful[ReplayConfirmed, ReplayRejection](ReplayConfirmed{
		ScoreID:     score.ID,
		Performance: performance,
	}), nil
}

// crossCheck runs the per-field comparisons. The first failing check wins;
// nil means the replay confirms the score.
func (s *ReplayService) crossCheck(score *scoredb.Score, analysis *replay.Analysis, info *beatmap.Info) *ReplayRejection {
	if analysis.PlayerName != score.PlayerName {
		return &ReplayRejection{
			Code:   RejectionNameMismatch,
			Detail: fmt.Sprintf("replay %q, score %q", analysis.PlayerName, score.PlayerName),
		}
	}

	if analysis.Version < s.tol.MinVersion {
		return &ReplayRejection{
			Code:   RejectionUnsupportedVersion,
			Detail: fmt.Sprintf("version %d < %d", analysis.Version, s.tol.MinVersion),
		}
	}

	storedAccuracy := score.AccuracyFraction()
	if math.Abs(analysis.Accuracy-storedAccuracy) > s.tol.Accuracy {
		return &ReplayRejection{
			Code:   RejectionAccuracyMismatch,
			Detail: fmt.Sprintf("replay %.4f, score %.4f", analysis.Accuracy, storedAccuracy),
		}
	}

	decoded, err := mods.Decode(score.Mods)
	if err != nil {
		// A stored mod string that no longer decodes is corrupt data, not a
		// replay problem.
		return &ReplayRejection{Code: RejectionModMismatch, Detail: "stored mods undecodable"}
	}
	if !decoded.Mods.Equal(analysis.Mods) {
		return &ReplayRejection{
			Code:   RejectionModMismatch,
			Detail: fmt.Sprintf("replay %s, score %s", analysis.Mods, decoded.Mods),
		}
	}

	if absInt(analysis.Geki-score.HitGeki) > s.tol.HitCount || absInt(analysis.Katu-score.HitKatu) > s.tol.HitCount {
		return &ReplayRejection{
			Code:   RejectionHitCountMismatch,
			Detail: fmt.Sprintf("geki %d/%d katu %d/%d", analysis.Geki, score.HitGeki, analysis.Katu, score.HitKatu),
		}
	}

	if absInt(analysis.MaxCombo-score.MaxCombo) > s.tol.Combo {
		return &ReplayRejection{
			Code:   RejectionComboMismatch,
			Detail: fmt.Sprintf("replay %d, score %d", analysis.MaxCombo, score.MaxCombo),
		}
	}

	if score.Speed != mods.DefaultSpeed && math.Abs(analysis.Speed-score.Speed) > s.tol.Speed {
		return &ReplayRejection{
			Code:   RejectionSpeedMismatch,
			Detail: fmt.Sprintf("replay %.2f, score %.2f", analysis.Speed, score.Speed),
		}
	}

	// Mods with a server-side score multiplier make the raw score estimate
	// unreliable, so the re-simulation check is skipped for them.
	if !decoded.Mods.HasScoreMultiplier() {
		estimated := EstimateRawScore(analysis.HitObjects, info.Difficulty.Stars, mods.SpeedScoreFactor(analysis.Speed))
		mean := (float64(estimated) + float64(score.Value)) / 2
		if mean > 0 && math.Abs(float64(estimated)-float64(score.Value)) > mean*s.tol.ScoreRelative {
			return &ReplayRejection{
				Code:   RejectionScoreMismatch,
				Detail: fmt.Sprintf("estimated %d, stored %d", estimated, score.Value),
			}
		}
	}

	return nil
}

// invalidate removes a score the replay disproved, promotes the player's next
// best on the map, and emits the invalidation event.
func (s *ReplayService) invalidate(ctx context.Context, score *scoredb.Score, rejection ReplayRejection) (ValidateResult, error) {
	if err := s.repo.DeleteScore(ctx, s.db, score.ID); err != nil && !errors.Is(err, scoredb.ErrNoRowsAffected) {
		return ValidateResult{}, err
	}
	rejection.ScoreInvalidated = true

	if err := s.promoter.PromoteNextBest(ctx, score.PlayerID, score.MapHash, score.ID); err != nil {
		// The invalidation already happened; a failed re-promotion is the
		// recoverable zero-current-best state and is healed by the next
		// submission's resolution.
		s.logger.WarnContext(ctx, "Failed to promote next best after invalidation",
			slog.Int64("player_id", score.PlayerID),
			slog.String("map_hash", score.MapHash),
			slog.Any("error", err),
		)
	}

	if err := s.publisher.PublishScoreInvalidated(ctx, eventbus.ScoreInvalidated{
		ScoreID:  score.ID,
		PlayerID: score.PlayerID,
		Mode:     score.Mode,
		MapHash:  score.MapHash,
		Reason:   string(rejection.Code),
	}); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish score invalidated event",
			slog.Int64("score_id", score.ID),
			slog.Any("error", err),
		)
	}

	return results.Failed[ReplayConfirmed, ReplayRejection](rejection), nil
}

// reject wraps a rejection that did not touch the stored score.
func reject(r ReplayRejection) ValidateResult {
	return results.Failed[ReplayConfirmed, ReplayRejection](r)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

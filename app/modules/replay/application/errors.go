package replayservice

// ReplayRejectionCode names a reason a replay upload was refused. Every code
// except ScoreNotFound and BeatmapGone also invalidates the stored score.
type ReplayRejectionCode string

const (
	RejectionScoreNotFound      ReplayRejectionCode = "SCORE_NOT_FOUND"
	RejectionBeatmapGone        ReplayRejectionCode = "BEATMAP_GONE"
	RejectionAnalysisFailed     ReplayRejectionCode = "ANALYSIS_FAILED"
	RejectionNameMismatch       ReplayRejectionCode = "NAME_MISMATCH"
	RejectionUnsupportedVersion ReplayRejectionCode = "UNSUPPORTED_VERSION"
	RejectionAccuracyMismatch   ReplayRejectionCode = "ACCURACY_MISMATCH"
	RejectionModMismatch        ReplayRejectionCode = "MOD_MISMATCH"
	RejectionHitCountMismatch   ReplayRejectionCode = "HIT_COUNT_MISMATCH"
	RejectionComboMismatch      ReplayRejectionCode = "COMBO_MISMATCH"
	RejectionSpeedMismatch      ReplayRejectionCode = "SPEED_MISMATCH"
	RejectionScoreMismatch      ReplayRejectionCode = "SCORE_MISMATCH"
)

// ReplayRejection is the typed failure payload of replay validation.
type ReplayRejection struct {
	Code   ReplayRejectionCode `json:"code"`
	Detail string              `json:"detail,omitempty"`
	// ScoreInvalidated is true when the stored score was removed because of
	// this rejection.
	ScoreInvalidated bool `json:"score_invalidated"`
}

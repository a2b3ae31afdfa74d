package scoreservice

import "errors"

// RejectionCode names a client-data validation failure. These are reported
// back to the caller as structured rejections, never raised as errors.
type RejectionCode string

const (
	RejectionMalformedPayload      RejectionCode = "MALFORMED_PAYLOAD"
	RejectionIncompatibleMods      RejectionCode = "INCOMPATIBLE_MODS"
	RejectionUnrankedMods          RejectionCode = "UNRANKED_MODS"
	RejectionInvalidCustomSpeed    RejectionCode = "INVALID_CUSTOM_SPEED"
	RejectionStaleSubmission       RejectionCode = "STALE_SUBMISSION"
	RejectionPlayerMismatch        RejectionCode = "PLAYER_MISMATCH"
	RejectionNotPlaying            RejectionCode = "NOT_PLAYING"
	RejectionBeatmapNotFound       RejectionCode = "BEATMAP_NOT_FOUND"
	RejectionBeatmapNotSubmittable RejectionCode = "BEATMAP_NOT_SUBMITTABLE"
	RejectionInvalidNumericField   RejectionCode = "INVALID_NUMERIC_FIELD"
	RejectionInvalidGrade          RejectionCode = "INVALID_GRADE"
)

// SubmissionRejection is the typed failure payload of a submission operation.
type SubmissionRejection struct {
	Code   RejectionCode `json:"code"`
	Detail string        `json:"detail,omitempty"`
}

var (
	// ErrInvariantViolation marks a programming error, e.g. routing an
	// already-persisted or non-FAILED candidate through the promotion path.
	// It aborts the call and is logged loudly, unlike ordinary rejections.
	ErrInvariantViolation = errors.New("submission invariant violation")
)

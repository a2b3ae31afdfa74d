// Package replay defines the externally-produced replay analysis consumed by
// the cross-validator. Decoding the binary replay format is not this engine's
// job; the Analyzer boundary hands over an already-structured result.
package replay

import (
	"context"
	"time"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
)

// HitResult is the judgement of one hit object in replay order.
type HitResult struct {
	// Value is the score value of the judgement: 300, 100, 50, or 0.
	Value int
	// Miss marks a missed object; Value is 0 for misses.
	Miss bool
}

// Analysis is the structured result of decoding one replay file.
type Analysis struct {
	PlayerName string
	// Version is the replay format version.
	Version int
	// Mods is the mod set converted from the replay's own representation.
	Mods mods.ModSet
	// Speed is the replay's reported speed modification.
	Speed float64
	// ForcedAR is set when the replay forces an approach rate.
	ForcedAR *float64
	// Accuracy is the accuracy fraction derived from the replay's hit data.
	Accuracy float64
	MaxCombo int
	Geki     int
	Katu     int
	// TapPenalty reduces performance for detected tap irregularities.
	TapPenalty float64
	// HitObjects lists per-object judgements in map order.
	HitObjects []HitResult
	// RecordedAt is the wall-clock time of the recording.
	RecordedAt time.Time
}

// Analyzer decodes raw replay bytes against the map they were played on.
// A nil result or an error means the replay is undecodable and the upload is
// rejected.
type Analyzer interface {
	Analyze(ctx context.Context, raw []byte, info *beatmap.Info) (*Analysis, error)
}

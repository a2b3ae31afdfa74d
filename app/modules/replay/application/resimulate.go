package replayservice

import "github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay"

// EstimateRawScore re-derives the raw score a legitimate client would have
// produced for the replay's judgement stream. It is a fold over the hit
// objects with an explicit running combo: every hit earns its judgement value
// plus a combo- and difficulty-weighted bonus, and a miss resets the combo to
// zero. The result only needs to land near the stored value, not match it,
// so the comparison against it is tolerance-based.
func EstimateRawScore(hits []replay.HitResult, difficulty, speedScoreFactor float64) int64 {
	var total int64
	combo := 0
	for _, h := range hits {
		if h.Miss || h.Value == 0 {
			combo = 0
			continue
		}
		value := int64(h.Value)
		bonus := float64(h.Value) * float64(combo) * difficulty * speedScoreFactor / 25.0
		total += value + int64(bonus)
		combo++
	}
	return total
}

package statsservice

import (
	"math"

	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

// At most the top 100 best scores participate in weighted aggregates; the
// i-th best (0-indexed) is discounted by 0.95^i.
const (
	maxWeightedScores = 100
	weightDecay       = 0.95
)

// weightedAccuracy computes the weight-normalized accuracy over a player's
// best scores, which must already be ordered by descending metric value.
// A player with no qualifying scores is fully accurate, not NaN.
func weightedAccuracy(scores []scoredb.Score) float64 {
	if len(scores) == 0 {
		return 1
	}
	var total, weightSum float64
	for i, sc := range scores {
		if i >= maxWeightedScores {
			break
		}
		weight := math.Pow(weightDecay, float64(i))
		total += sc.AccuracyFraction() * weight
		weightSum += weight
	}
	return total / weightSum
}

// weightedPerformance computes the unnormalized weighted performance sum over
// a player's best scores in descending metric order.
func weightedPerformance(scores []scoredb.Score) float64 {
	var total float64
	for i, sc := range scores {
		if i >= maxWeightedScores {
			break
		}
		total += sc.Performance * math.Pow(weightDecay, float64(i))
	}
	return total
}

// Package beatmap fronts the external beatmap metadata provider with a
// TTL-bounded, capacity-bounded lookup cache.
package beatmap

// RankedStatus is the approval category of a beatmap.
type RankedStatus int

const (
	StatusGraveyard RankedStatus = -2
	StatusWIP       RankedStatus = -1
	StatusPending   RankedStatus = 0
	StatusRanked    RankedStatus = 1
	StatusApproved  RankedStatus = 2
	StatusQualified RankedStatus = 3
	StatusLoved     RankedStatus = 4
)

// Submittable reports whether scores on a map in this category may enter
// leaderboards.
func (s RankedStatus) Submittable() bool {
	switch s {
	case StatusRanked, StatusApproved, StatusLoved:
		return true
	default:
		return false
	}
}

func (s RankedStatus) String() string {
	switch s {
	case StatusGraveyard:
		return "graveyard"
	case StatusWIP:
		return "wip"
	case StatusPending:
		return "pending"
	case StatusRanked:
		return "ranked"
	case StatusApproved:
		return "approved"
	case StatusQualified:
		return "qualified"
	case StatusLoved:
		return "loved"
	default:
		return "unknown"
	}
}

// Difficulty carries the precomputed difficulty attributes the performance
// calculator consumes.
type Difficulty struct {
	Stars        float64 `json:"stars"`
	ApproachRate float64 `json:"approach_rate"`
	OverallDiff  float64 `json:"overall_difficulty"`
	CircleSize   float64 `json:"circle_size"`
	HPDrain      float64 `json:"hp_drain"`
}

// Info is the cached metadata for one beatmap.
type Info struct {
	MD5         string       `json:"md5"`
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Status      RankedStatus `json:"status"`
	ObjectCount int          `json:"object_count"`
	MaxCombo    int          `json:"max_combo"`
	Difficulty  Difficulty   `json:"difficulty"`
}

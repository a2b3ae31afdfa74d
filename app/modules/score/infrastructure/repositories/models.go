package scoredb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/accuracy"
)

// Score is one persisted play attempt.
//
// The partial unique index on (player_id, map_hash) WHERE status IN (BEST,
// APPROVED) is the serialization backstop for the at-most-one-current-best
// invariant; the resolver additionally locks the previous best row FOR UPDATE
// inside its transaction.
type Score struct {
	bun.BaseModel `bun:"table:scores,alias:sc"`

	ID          int64                   `bun:"id,pk,autoincrement" json:"id"`
	PlayerID    int64                   `bun:"player_id,notnull" json:"player_id"`
	PlayerName  string                  `bun:"player_name,notnull" json:"player_name"`
	MapHash     string                  `bun:"map_hash,notnull" json:"map_hash"`
	Mode        domain.GameMode         `bun:"mode,notnull,default:0" json:"mode"`
	Value       int64                   `bun:"value,notnull" json:"value"`
	Performance float64                 `bun:"performance,notnull,default:0" json:"performance"`
	Hit300      int                     `bun:"hit300,notnull" json:"hit300"`
	Hit100      int                     `bun:"hit100,notnull" json:"hit100"`
	Hit50       int                     `bun:"hit50,notnull" json:"hit50"`
	HitMiss     int                     `bun:"hit_miss,notnull" json:"hit_miss"`
	HitGeki     int                     `bun:"hit_geki,notnull" json:"hit_geki"`
	HitKatu     int                     `bun:"hit_katu,notnull" json:"hit_katu"`
	MaxCombo    int                     `bun:"max_combo,notnull" json:"max_combo"`
	Mods        string                  `bun:"mods,notnull,default:'-'" json:"mods"`
	Speed       float64                 `bun:"speed,notnull,default:1.0" json:"speed"`
	Grade       domain.Grade            `bun:"grade,notnull" json:"grade"`
	Status      domain.SubmissionStatus `bun:"status,notnull,default:0" json:"status"`
	Replay      []byte                  `bun:"replay,nullzero" json:"-"`
	SubmittedAt time.Time               `bun:"submitted_at,notnull,default:current_timestamp" json:"submitted_at"`
}

// AccuracyFraction derives the play's accuracy from its hit counts.
func (s *Score) AccuracyFraction() float64 {
	return accuracy.Fraction(s.Hit300, s.Hit100, s.Hit50, s.HitMiss)
}

// MetricValue returns the score's value under the given leaderboard metric.
func (s *Score) MetricValue(metric domain.Metric) float64 {
	if metric == domain.MetricPerformance {
		return s.Performance
	}
	return float64(s.Value)
}

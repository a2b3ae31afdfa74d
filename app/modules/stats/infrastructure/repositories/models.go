package statsdb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// PlayerStats is the cached per-(player, mode) aggregate row. It is owned by
// the stats service and rewritten wholesale after every accepted submission
// or invalidation.
type PlayerStats struct {
	bun.BaseModel `bun:"table:player_stats,alias:ps"`

	PlayerID    int64           `bun:"player_id,pk" json:"player_id"`
	Mode        domain.GameMode `bun:"mode,pk" json:"mode"`
	PlayCount   int             `bun:"play_count,notnull,default:0" json:"play_count"`
	Accuracy    float64         `bun:"accuracy,notnull,default:1.0" json:"accuracy"`
	Performance float64         `bun:"performance,notnull,default:0" json:"performance"`
	RankedScore int64           `bun:"ranked_score,notnull,default:0" json:"ranked_score"`
	TotalScore  int64           `bun:"total_score,notnull,default:0" json:"total_score"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

package statsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating player_stats table...")

		if _, err := db.NewCreateTable().Model((*statsdb.PlayerStats)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// Global ranks count players above a performance or score threshold.
		if _, err := db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_player_stats_performance
			ON player_stats(mode, performance DESC);
		`); err != nil {
			return fmt.Errorf("failed to add performance index to player_stats: %w", err)
		}
		if _, err := db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_player_stats_ranked_score
			ON player_stats(mode, ranked_score DESC);
		`); err != nil {
			return fmt.Errorf("failed to add ranked-score index to player_stats: %w", err)
		}

		fmt.Println("player_stats table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping player_stats table...")

		if _, err := db.NewDropTable().Model((*statsdb.PlayerStats)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("player_stats table dropped successfully!")
		return nil
	})
}

package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding indices for the scores table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// At most one current best per (player, map, mode). Status 2 is
			// the best state, status 3 the approved state.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_scores_current_best
				ON scores(player_id, map_hash, mode)
				WHERE status IN (2, 3);
			`); err != nil {
				return fmt.Errorf("failed to add current-best index to scores: %w", err)
			}

			// Map leaderboards and placement counts scan ranking rows by map.
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_scores_map_ranking
				ON scores(map_hash, mode, value DESC, performance DESC)
				WHERE status IN (2, 3);
			`); err != nil {
				return fmt.Errorf("failed to add map-ranking index to scores: %w", err)
			}

			// Per-player best-score listings for the stats aggregation.
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_scores_player_bests
				ON scores(player_id, mode, performance DESC)
				WHERE status IN (2, 3);
			`); err != nil {
				return fmt.Errorf("failed to add player-bests index to scores: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping indices for the scores table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, name := range []string{
				"idx_scores_current_best",
				"idx_scores_map_ranking",
				"idx_scores_player_bests",
			} {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s;`, name)); err != nil {
					return fmt.Errorf("failed to drop index %s: %w", name, err)
				}
			}
			return nil
		})
	})
}

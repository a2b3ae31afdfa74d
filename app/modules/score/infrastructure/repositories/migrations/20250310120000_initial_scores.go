package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating scores table...")

		if _, err := db.NewCreateTable().Model((*scoredb.Score)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Scores table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping scores table...")

		if _, err := db.NewDropTable().Model((*scoredb.Score)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("Scores table dropped successfully!")
		return nil
	})
}

package migrations

import (
	"context"

	"gdpr-quiz-service/internal/infra/postgres/model"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewCreateTable().
				Model((*model.LeaderboardSnapshot)(nil)).
				IfNotExists().
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDropTable().
				Model((*model.LeaderboardSnapshot)(nil)).
				IfExists().
				Exec(ctx)
			return err
		},
	)
}

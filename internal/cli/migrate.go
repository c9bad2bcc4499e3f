package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gdpr-quiz-service/internal/config"
	"gdpr-quiz-service/internal/infra/memory"
	"gdpr-quiz-service/internal/infra/postgres"
	pgmigrations "gdpr-quiz-service/internal/infra/postgres/migrations"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations and imports the question bank.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and import the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			return runMigrationsWithConfig(cmd.Context(), cfg, logger)
		},
	}
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("Database is up to date")
	} else {
		logger.Info("Migrations applied", slog.String("group", group.String()))
	}

	if cfg.Quiz.QuestionsFile == "" {
		return nil
	}
	return importQuestionBank(ctx, cfg, logger)
}

// importQuestionBank upserts the bundled question file into question_banks.
func importQuestionBank(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	bank, err := memory.NewFileQuestionLoader(cfg.Quiz.BankID, cfg.Quiz.QuestionsFile).LoadBank(ctx, cfg.Quiz.BankID)
	if err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.NewQuestionLoader(pool).SaveBank(ctx, bank); err != nil {
		return err
	}
	logger.Info("Question bank imported",
		slog.String("bank_id", bank.ID),
		slog.Int("questions", len(bank.Questions)),
	)
	return nil
}

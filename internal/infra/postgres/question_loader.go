package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gdpr-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads question bank JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrQuestionBankNotFound, bankID)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load question bank: %w", err)
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal question bank: %w", err)
	}
	bank.ID = bankID
	return bank, nil
}

// SaveBank upserts a question bank, used by the seed command and tests.
func (l *QuestionLoader) SaveBank(ctx context.Context, bank domain.QuestionBank) error {
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_banks (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		bank.ID, string(data))
	if err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gdpr-quiz-service/internal/domain"
)

// QuestionLoader fetches a question bank from a backing store (file, Postgres).
type QuestionLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// StaticQuestionLoader serves banks from a map (tests, demos).
type StaticQuestionLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticQuestionLoader(banks map[string]domain.QuestionBank) *StaticQuestionLoader {
	return &StaticQuestionLoader{banks: banks}
}

func (l *StaticQuestionLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[bankID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrQuestionBankNotFound
}

// FileQuestionLoader reads one JSON question bank from disk and serves it
// under the configured bank id. The file is read on every load; caching is
// the repository's job.
type FileQuestionLoader struct {
	bankID string
	path   string
}

func NewFileQuestionLoader(bankID, path string) *FileQuestionLoader {
	return &FileQuestionLoader{bankID: bankID, path: path}
}

func (l *FileQuestionLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bankID != l.bankID {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrQuestionBankNotFound, bankID)
	}
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("%w: read %s: %v", domain.ErrQuestionBankNotFound, l.path, err)
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidQuestionBank, l.path, err)
	}
	if err := bank.Validate(); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("%s: %w", l.path, err)
	}
	bank.ID = bankID
	return bank, nil
}

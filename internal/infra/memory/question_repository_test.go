package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gdpr-quiz-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string]domain.QuestionBank{
			"gdpr": sampleBank(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	bank, err := repo.GetBank(context.Background(), "gdpr")
	if err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
}

func TestQuestionRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string]domain.QuestionBank{"gdpr": sampleBank()}),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank after expiry: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls.Load())
	}
}

func TestQuestionRepositoryUnknownBank(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(nil), time.Minute)
	_, err := repo.GetBank(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuestionBankNotFound) {
		t.Fatalf("expected ErrQuestionBankNotFound, got %v", err)
	}
}

func TestQuestionRepositoryServesCachedBankWhenReloadFails(t *testing.T) {
	loader := &flakyLoader{bank: sampleBank()}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank: %v", err)
	}

	loader.err = errors.New("connection refused")
	now = now.Add(2 * time.Minute)
	bank, err := repo.GetBank(context.Background(), "gdpr")
	if err != nil {
		t.Fatalf("expected cached bank while the loader is down, got %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected cached questions, got %d", len(bank.Questions))
	}

	// the failed reload is not retried before the retry window ends
	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank inside retry window: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected 2 loader calls, got %d", loader.calls)
	}

	loader.err = nil
	now = now.Add(staleRetry + time.Second)
	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank after recovery: %v", err)
	}
	if loader.calls != 3 {
		t.Fatalf("expected reload after retry window, got %d calls", loader.calls)
	}
}

func TestQuestionRepositoryDropsRemovedBank(t *testing.T) {
	loader := &flakyLoader{bank: sampleBank()}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetBank(context.Background(), "gdpr"); err != nil {
		t.Fatalf("get bank: %v", err)
	}

	loader.err = domain.ErrQuestionBankNotFound
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetBank(context.Background(), "gdpr"); !errors.Is(err, domain.ErrQuestionBankNotFound) {
		t.Fatalf("expected ErrQuestionBankNotFound, got %v", err)
	}
	if _, ok := repo.lookup("gdpr"); ok {
		t.Fatalf("expected removed bank to be evicted")
	}
}

func TestQuestionRepositoryFirstLoadErrorIsReturned(t *testing.T) {
	loader := &flakyLoader{err: errors.New("connection refused")}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "gdpr"); err == nil {
		t.Fatalf("expected error without a cached bank")
	}
}

func TestTTLJitterStaysWithinTenPercent(t *testing.T) {
	jitter := NewTTLJitter(time.Minute)
	for i := 0; i < 200; i++ {
		ttl := jitter.Next()
		if ttl < time.Minute || ttl > time.Minute+6*time.Second {
			t.Fatalf("ttl %v outside [1m, 1m6s]", ttl)
		}
	}
	if got := NewTTLJitter(0).Next(); got != 0 {
		t.Fatalf("expected 0 for disabled ttl, got %v", got)
	}
}

func TestFileQuestionLoaderRejectsInvalidBank(t *testing.T) {
	cases := map[string]string{
		"no questions":       `{"questions": []}`,
		"duplicate ids":      `{"questions": [{"id": 1, "difficulty": "easy", "question": "A?", "options": ["x", "y"], "correct_answer": "x"}, {"id": 1, "difficulty": "easy", "question": "B?", "options": ["x", "y"], "correct_answer": "y"}]}`,
		"answer not offered": `{"questions": [{"id": 1, "difficulty": "easy", "question": "A?", "options": ["x", "y"], "correct_answer": "z"}]}`,
		"single option":      `{"questions": [{"id": 1, "difficulty": "easy", "question": "A?", "options": ["x"], "correct_answer": "x"}]}`,
		"unknown difficulty": `{"questions": [{"id": 1, "difficulty": "extreme", "question": "A?", "options": ["x", "y"], "correct_answer": "x"}]}`,
		"broken json":        `{"questions": [`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bank.json")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("write bank: %v", err)
			}
			_, err := NewFileQuestionLoader("gdpr", path).LoadBank(context.Background(), "gdpr")
			if !errors.Is(err, domain.ErrInvalidQuestionBank) {
				t.Fatalf("expected ErrInvalidQuestionBank, got %v", err)
			}
		})
	}
}

func TestFileQuestionLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	content := `{
  "quiz_title": "GDPR Quiz",
  "quiz_description": "Test",
  "questions": [
    {"id": 1, "difficulty": "easy", "question": "Q?", "options": ["A", "B"], "correct_answer": "B", "explanation": "because"}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	loader := NewFileQuestionLoader("gdpr", path)
	bank, err := loader.LoadBank(context.Background(), "gdpr")
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if bank.ID != "gdpr" || bank.Title != "GDPR Quiz" {
		t.Fatalf("unexpected bank header: %+v", bank)
	}
	if len(bank.Questions) != 1 || !bank.Questions[0].IsCorrect(1) {
		t.Fatalf("unexpected questions: %+v", bank.Questions)
	}

	if _, err := loader.LoadBank(context.Background(), "other"); !errors.Is(err, domain.ErrQuestionBankNotFound) {
		t.Fatalf("expected ErrQuestionBankNotFound for other id, got %v", err)
	}
}

func TestFileQuestionLoaderShippedBank(t *testing.T) {
	loader := NewFileQuestionLoader("gdpr", filepath.Join("..", "..", "..", "data", "gdpr_quiz_questions.json"))
	bank, err := loader.LoadBank(context.Background(), "gdpr")
	if err != nil {
		t.Fatalf("load shipped bank: %v", err)
	}
	if len(bank.Questions) == 0 {
		t.Fatalf("expected questions in shipped bank")
	}
	for _, q := range bank.Questions {
		if !q.Difficulty.Valid() {
			t.Fatalf("question %d has invalid difficulty %q", q.ID, q.Difficulty)
		}
		found := false
		for i := range q.Options {
			if q.IsCorrect(i) {
				found = true
			}
		}
		if !found {
			t.Fatalf("question %d: correct answer %q not among options", q.ID, q.CorrectAnswer)
		}
	}
}

type countingLoader struct {
	QuestionLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls.Add(1)
	return l.QuestionLoader.LoadBank(ctx, bankID)
}

// flakyLoader returns err when set, bank otherwise. Not safe for concurrent use.
type flakyLoader struct {
	bank  domain.QuestionBank
	err   error
	calls int
}

func (l *flakyLoader) LoadBank(_ context.Context, _ string) (domain.QuestionBank, error) {
	l.calls++
	if l.err != nil {
		return domain.QuestionBank{}, l.err
	}
	return l.bank, nil
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:    "gdpr",
		Title: "GDPR Quiz",
		Questions: []domain.Question{
			{ID: 1, Difficulty: domain.DifficultyEasy, Question: "What does GDPR stand for?", Options: []string{"General Data Protection Regulation", "Global Data Privacy Rules"}, CorrectAnswer: "General Data Protection Regulation"},
			{ID: 2, Difficulty: domain.DifficultyHard, Question: "Maximum fine?", Options: []string{"2%", "4%"}, CorrectAnswer: "4%"},
		},
	}
}

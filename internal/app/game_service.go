package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/metrics"
	"github.com/google/uuid"
)

// GameEndHook is called once per finished game with the scored attempt.
type GameEndHook func(ctx context.Context, game *domain.Game, attempt domain.Attempt) (*Outcome, error)

// GameConfig holds the quiz flow settings.
type GameConfig struct {
	BankID              string
	QuestionsPerSession int
	// TimerSeconds is the time allowed per question; 0 disables the timer.
	TimerSeconds int
}

// GameResult is what a player sees after the last question.
type GameResult struct {
	GameID         string                `json:"gameId"`
	Player         domain.Player         `json:"player"`
	Difficulty     domain.Difficulty     `json:"difficulty"`
	Score          int                   `json:"score"`
	MaxScore       int                   `json:"maxScore"`
	Percentage     float64               `json:"percentage"`
	ElapsedSeconds int                   `json:"elapsedSeconds"`
	Message        string                `json:"message"`
	Answers        []domain.AnswerRecord `json:"answers"`
	Outcome        *Outcome              `json:"outcome,omitempty"`
}

// Step is the result of advancing a game: either the next question or the
// final result.
type Step struct {
	Question *domain.QuestionView `json:"question,omitempty"`
	Result   *GameResult          `json:"result,omitempty"`
}

// GameService runs quiz games. Each game is an explicit domain.Game kept in
// a GameStore from Start until the last Next (or Abandon).
type GameService struct {
	games     GameStore
	questions QuestionRepository
	cfg       GameConfig
	onGameEnd GameEndHook
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string

	locks gameLocks

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// GameOption customizes a GameService.
type GameOption func(*GameService)

// WithGameEndHook sets the hook called with every finished attempt.
func WithGameEndHook(hook GameEndHook) GameOption {
	return func(s *GameService) { s.onGameEnd = hook }
}

func WithGameLogger(logger *slog.Logger) GameOption {
	return func(s *GameService) { s.logger = logger }
}

func WithGameMetrics(m *metrics.Metrics) GameOption {
	return func(s *GameService) { s.metrics = m }
}

// WithGameClock is test-only for deterministic timing.
func WithGameClock(now func() time.Time) GameOption {
	return func(s *GameService) { s.now = now }
}

// WithGameRand fixes the question shuffle.
func WithGameRand(rnd *rand.Rand) GameOption {
	return func(s *GameService) { s.rnd = rnd }
}

func NewGameService(games GameStore, questions QuestionRepository, cfg GameConfig, opts ...GameOption) *GameService {
	if cfg.QuestionsPerSession <= 0 {
		cfg.QuestionsPerSession = 5
	}
	s := &GameService{
		games:     games,
		questions: questions,
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a game: questions of the requested difficulty (all of them
// for mixed) are shuffled and the first QuestionsPerSession are kept.
func (s *GameService) Start(ctx context.Context, player domain.Player, difficulty string) (*domain.Game, domain.QuestionView, error) {
	player.Name = strings.TrimSpace(player.Name)
	if player.Name == "" {
		return nil, domain.QuestionView{}, fmt.Errorf("%w: name required", domain.ErrInvalidPlayer)
	}
	d, err := domain.ParseDifficulty(difficulty)
	if err != nil {
		return nil, domain.QuestionView{}, err
	}

	bank, err := s.questions.GetBank(ctx, s.cfg.BankID)
	if err != nil {
		return nil, domain.QuestionView{}, err
	}

	s.rndMu.Lock()
	questions := s.selectQuestions(bank.Questions, d)
	s.rndMu.Unlock()
	if len(questions) == 0 {
		return nil, domain.QuestionView{}, fmt.Errorf("%w: %s", domain.ErrNoQuestions, d)
	}

	if player.ID == "" {
		player.ID = s.newID()
	}
	now := s.now()
	game := &domain.Game{
		ID:              s.newID(),
		Player:          player,
		Difficulty:      d,
		Questions:       questions,
		Answers:         make([]domain.AnswerRecord, 0, len(questions)),
		StartedAt:       now,
		QuestionShownAt: now,
		TimerSeconds:    s.cfg.TimerSeconds,
	}
	if err := s.games.Save(ctx, game); err != nil {
		return nil, domain.QuestionView{}, fmt.Errorf("save game: %w", err)
	}

	s.metrics.GameStarted()
	s.logger.Info("Game started",
		slog.String("game_id", game.ID),
		slog.String("player", player.Name),
		slog.String("difficulty", string(d)),
		slog.Int("questions", len(questions)),
	)
	return game, viewOf(game), nil
}

// Current returns the question the game is waiting on.
func (s *GameService) Current(ctx context.Context, gameID string) (domain.QuestionView, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if _, ok := game.Current(); !ok {
		return domain.QuestionView{}, domain.ErrGameFinished
	}
	return viewOf(game), nil
}

// Answer records the chosen option for the current question. An answer after
// the question deadline is recorded as timed out and incorrect.
func (s *GameService) Answer(ctx context.Context, gameID string, optionIndex int) (domain.Feedback, error) {
	defer s.locks.lock(gameID)()

	game, question, err := s.pending(ctx, gameID)
	if err != nil {
		return domain.Feedback{}, err
	}

	deadline := game.Deadline()
	if !deadline.IsZero() && s.now().After(deadline) {
		return s.recordLocked(ctx, game, question, domain.AnswerRecord{QuestionID: question.ID, TimedOut: true})
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.Feedback{}, fmt.Errorf("%w: index %d", domain.ErrInvalidOption, optionIndex)
	}
	return s.recordLocked(ctx, game, question, domain.AnswerRecord{
		QuestionID:     question.ID,
		SelectedOption: question.Options[optionIndex],
		Correct:        question.IsCorrect(optionIndex),
	})
}

// TimeUp records a timed-out answer for question number (1-based). A number
// other than the current question fails with domain.ErrStaleQuestion, so a
// late timer cannot time out the question shown after it.
func (s *GameService) TimeUp(ctx context.Context, gameID string, number int) (domain.Feedback, error) {
	defer s.locks.lock(gameID)()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.Feedback{}, err
	}
	if _, ok := game.Current(); ok && number != game.CurrentIndex+1 {
		return domain.Feedback{}, fmt.Errorf("%w: question %d, current is %d", domain.ErrStaleQuestion, number, game.CurrentIndex+1)
	}
	game, question, err := s.pending(ctx, gameID)
	if err != nil {
		return domain.Feedback{}, err
	}
	return s.recordLocked(ctx, game, question, domain.AnswerRecord{QuestionID: question.ID, TimedOut: true})
}

// Next moves past an answered question. After the last one the game is
// finished: it is removed from the store and handed to the game end hook.
func (s *GameService) Next(ctx context.Context, gameID string) (Step, error) {
	unlock := s.locks.lock(gameID)
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		unlock()
		return Step{}, err
	}
	if _, ok := game.Current(); !ok {
		unlock()
		return Step{}, domain.ErrGameFinished
	}
	if !game.Answered() {
		unlock()
		return Step{}, domain.ErrQuestionPending
	}

	game.CurrentIndex++
	if game.CurrentIndex < len(game.Questions) {
		game.QuestionShownAt = s.now()
		err := s.games.Save(ctx, game)
		unlock()
		if err != nil {
			return Step{}, fmt.Errorf("save game: %w", err)
		}
		view := viewOf(game)
		return Step{Question: &view}, nil
	}

	endedAt := s.now()
	if err := s.games.Delete(ctx, game.ID); err != nil {
		s.logger.Warn("Failed to delete finished game",
			slog.String("game_id", game.ID),
			slog.Any("error", err),
		)
	}
	unlock()

	result, err := s.finish(ctx, game, endedAt)
	return Step{Result: result}, err
}

// Abandon discards a game without scoring it.
func (s *GameService) Abandon(ctx context.Context, gameID string) error {
	defer s.locks.lock(gameID)()
	return s.games.Delete(ctx, gameID)
}

func (s *GameService) finish(ctx context.Context, game *domain.Game, endedAt time.Time) (*GameResult, error) {
	elapsed := int(math.Floor(endedAt.Sub(game.StartedAt).Seconds()))
	if elapsed < 0 {
		elapsed = 0
	}
	total := len(game.Questions)
	percentage := float64(game.Score) / float64(total) * 100
	result := &GameResult{
		GameID:         game.ID,
		Player:         game.Player,
		Difficulty:     game.Difficulty,
		Score:          game.Score,
		MaxScore:       total,
		Percentage:     percentage,
		ElapsedSeconds: elapsed,
		Message:        PerformanceMessage(percentage),
		Answers:        game.Answers,
	}

	s.logger.Info("Game finished",
		slog.String("game_id", game.ID),
		slog.String("player", game.Player.Name),
		slog.Int("score", game.Score),
		slog.Int("max_score", total),
		slog.Int("elapsed_seconds", elapsed),
	)

	if s.onGameEnd == nil {
		return result, nil
	}
	outcome, err := s.onGameEnd(ctx, game, domain.Attempt{
		PlayerName:     game.Player.Name,
		Country:        game.Player.Country,
		Correct:        game.Score,
		Total:          total,
		ElapsedSeconds: float64(elapsed),
		Difficulty:     game.Difficulty,
	})
	if err != nil {
		return result, fmt.Errorf("record attempt: %w", err)
	}
	result.Outcome = outcome
	return result, nil
}

func (s *GameService) pending(ctx context.Context, gameID string) (*domain.Game, domain.Question, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, domain.Question{}, err
	}
	question, ok := game.Current()
	if !ok {
		return nil, domain.Question{}, domain.ErrGameFinished
	}
	if game.Answered() {
		return nil, domain.Question{}, domain.ErrQuestionAnswered
	}
	return game, question, nil
}

func (s *GameService) recordLocked(ctx context.Context, game *domain.Game, question domain.Question, answer domain.AnswerRecord) (domain.Feedback, error) {
	game.Answers = append(game.Answers, answer)
	if answer.Correct {
		game.Score++
	}
	if err := s.games.Save(ctx, game); err != nil {
		return domain.Feedback{}, fmt.Errorf("save game: %w", err)
	}
	return domain.Feedback{
		QuestionID:    question.ID,
		Correct:       answer.Correct,
		TimedOut:      answer.TimedOut,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
		Score:         game.Score,
		Last:          game.CurrentIndex == len(game.Questions)-1,
	}, nil
}

// selectQuestions filters by difficulty, shuffles (Fisher-Yates) and keeps
// at most QuestionsPerSession. Callers hold s.rndMu.
func (s *GameService) selectQuestions(all []domain.Question, d domain.Difficulty) []domain.Question {
	filtered := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if d == domain.DifficultyMixed || q.Difficulty == d {
			filtered = append(filtered, q)
		}
	}
	for i := len(filtered) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}
	if len(filtered) > s.cfg.QuestionsPerSession {
		filtered = filtered[:s.cfg.QuestionsPerSession]
	}
	return filtered
}

func viewOf(game *domain.Game) domain.QuestionView {
	q, _ := game.Current()
	return domain.QuestionView{
		GameID:   game.ID,
		Number:   game.CurrentIndex + 1,
		Total:    len(game.Questions),
		Question: q.Question,
		Options:  q.Options,
		Deadline: game.Deadline(),
	}
}

// PerformanceMessage is the closing line shown for a percentage of correct answers.
func PerformanceMessage(percentage float64) string {
	switch {
	case percentage >= 100:
		return "Perfect! You're a GDPR expert!"
	case percentage >= 80:
		return "Great job! You have a strong understanding of GDPR."
	case percentage >= 60:
		return "Good effort! You know the basics of GDPR."
	case percentage >= 40:
		return "You're on your way to understanding GDPR. Keep learning!"
	default:
		return "You might want to review GDPR basics. Keep trying!"
	}
}

// RecordWithConsent is the standard game end hook: the attempt always enters
// the in-memory rankings, and is persisted only if the player consented.
// With consent the game is also added to the player's history when players
// is set; a failure there is logged and does not fail the game.
func RecordWithConsent(leaderboard *LeaderboardService, consents *ConsentService, players *PlayerService) GameEndHook {
	return func(ctx context.Context, game *domain.Game, attempt domain.Attempt) (*Outcome, error) {
		persist := consents.AllowsPersistence(ctx, game.Player.ID)
		outcome, err := leaderboard.RecordAttempt(ctx, attempt, persist)
		if err != nil {
			return nil, err
		}
		if !persist || players == nil {
			return &outcome, nil
		}

		entry := domain.HistoryEntry{
			GameID:          game.ID,
			Name:            attempt.PlayerName,
			Country:         attempt.Country,
			InRegion:        outcome.InRegion,
			Difficulty:      attempt.Difficulty,
			Score:           attempt.Correct,
			MaxScore:        attempt.Total,
			CalculatedScore: outcome.Entry.CalculatedScore,
			ElapsedSeconds:  int(attempt.ElapsedSeconds),
			Timestamp:       outcome.Entry.Timestamp,
		}
		if err := players.recordGame(ctx, game.Player, entry); err != nil {
			players.logger.Warn("Failed to record player history",
				slog.String("game_id", game.ID),
				slog.String("player_id", game.Player.ID),
				slog.Any("error", err),
			)
			return &outcome, nil
		}
		outcome.HistorySaved = true
		return &outcome, nil
	}
}

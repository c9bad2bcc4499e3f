package domain

import (
	"fmt"
	"slices"
	"time"
)

// Difficulty is the difficulty label of a question or a whole quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// DifficultyAll is accepted by read-side filters only; it is never stored on an entry.
const DifficultyAll = "all"

// ParseDifficulty validates a raw difficulty label.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(raw)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, raw)
	}
	return d, nil
}

// Valid reports whether d is one of the four known labels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// Player identifies who plays a game. Names are not unique.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Attempt is one completed quiz outcome submitted for scoring.
type Attempt struct {
	PlayerName     string     `json:"playerName"`
	Country        string     `json:"country"`
	Correct        int        `json:"correct"`
	Total          int        `json:"total"`
	ElapsedSeconds float64    `json:"elapsedSeconds"`
	Difficulty     Difficulty `json:"difficulty"`
}

// Question is a multiple choice question from the question bank.
type Question struct {
	ID            int        `json:"id"`
	Difficulty    Difficulty `json:"difficulty"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Explanation   string     `json:"explanation"`
}

// IsCorrect reports whether the option at index matches the correct answer.
func (q Question) IsCorrect(index int) bool {
	return index >= 0 && index < len(q.Options) && q.Options[index] == q.CorrectAnswer
}

// QuestionBank is the full set of questions a game draws from.
type QuestionBank struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"quiz_title"`
	Description string     `json:"quiz_description"`
	Questions   []Question `json:"questions"`
}

// Validate checks that every question can be played: a known difficulty, at
// least two options, the correct answer among them and a unique id.
func (b QuestionBank) Validate() error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestionBank)
	}
	seen := make(map[int]bool, len(b.Questions))
	for _, q := range b.Questions {
		switch {
		case seen[q.ID]:
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidQuestionBank, q.ID)
		case q.Difficulty == DifficultyMixed || !q.Difficulty.Valid():
			return fmt.Errorf("%w: question %d has difficulty %q", ErrInvalidQuestionBank, q.ID, q.Difficulty)
		case len(q.Options) < 2:
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuestionBank, q.ID)
		case !slices.Contains(q.Options, q.CorrectAnswer):
			return fmt.Errorf("%w: question %d: correct answer %q is not an option", ErrInvalidQuestionBank, q.ID, q.CorrectAnswer)
		}
		seen[q.ID] = true
	}
	return nil
}

// AnswerRecord is what a player chose for one question.
type AnswerRecord struct {
	QuestionID     int    `json:"questionId"`
	SelectedOption string `json:"selectedOption,omitempty"`
	Correct        bool   `json:"isCorrect"`
	TimedOut       bool   `json:"timedOut,omitempty"`
}

// Game is the state of one quiz session, created at start and discarded at the end.
type Game struct {
	ID              string         `json:"id"`
	Player          Player         `json:"player"`
	Difficulty      Difficulty     `json:"difficulty"`
	Questions       []Question     `json:"questions"`
	CurrentIndex    int            `json:"currentIndex"`
	Score           int            `json:"score"`
	Answers         []AnswerRecord `json:"answers"`
	StartedAt       time.Time      `json:"startedAt"`
	QuestionShownAt time.Time      `json:"questionShownAt"`
	TimerSeconds    int            `json:"timerSeconds"`
}

// Current returns the question being played, or false once all are done.
func (g *Game) Current() (Question, bool) {
	if g.CurrentIndex < 0 || g.CurrentIndex >= len(g.Questions) {
		return Question{}, false
	}
	return g.Questions[g.CurrentIndex], true
}

// Answered reports whether the current question already has an answer.
func (g *Game) Answered() bool {
	return len(g.Answers) > g.CurrentIndex
}

// Deadline is the instant after which the current question counts as timed out.
// Zero when the timer is disabled.
func (g *Game) Deadline() time.Time {
	if g.TimerSeconds <= 0 {
		return time.Time{}
	}
	return g.QuestionShownAt.Add(time.Duration(g.TimerSeconds) * time.Second)
}

// QuestionView is a question as shown to a player, without the answer.
type QuestionView struct {
	GameID   string    `json:"gameId"`
	Number   int       `json:"number"`
	Total    int       `json:"total"`
	Question string    `json:"question"`
	Options  []string  `json:"options"`
	Deadline time.Time `json:"deadline,omitempty"`
}

// Feedback summarizes the outcome of answering a single question.
type Feedback struct {
	QuestionID    int    `json:"questionId"`
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	Score         int    `json:"score"`
	Last          bool   `json:"last"`
}

// ConsentLevel is the banner choice a player made.
type ConsentLevel string

const (
	ConsentAll       ConsentLevel = "all"
	ConsentNecessary ConsentLevel = "necessary"
	ConsentCustom    ConsentLevel = "custom"
)

// Consents are the individual cookie/storage categories.
type Consents struct {
	Necessary   bool `json:"necessary"`
	Preferences bool `json:"preferences"`
	Analytics   bool `json:"analytics"`
}

// Consent is the stored consent record of a player.
type Consent struct {
	Consents Consents  `json:"consents"`
	Date     time.Time `json:"date"`
	Version  string    `json:"version"`
}

// HistoryEntry is one finished game kept in a player's history.
type HistoryEntry struct {
	GameID          string     `json:"gameId"`
	Name            string     `json:"name"`
	Country         string     `json:"country"`
	InRegion        bool       `json:"inRegion"`
	Difficulty      Difficulty `json:"difficulty"`
	Score           int        `json:"score"`
	MaxScore        int        `json:"maxScore"`
	CalculatedScore int        `json:"calculatedScore"`
	ElapsedSeconds  int        `json:"elapsedSeconds"`
	Timestamp       time.Time  `json:"timestamp"`
}

// Preferences prefill the start screen for a returning player.
type Preferences struct {
	PlayerName string     `json:"playerName"`
	Country    string     `json:"country"`
	Difficulty Difficulty `json:"difficulty"`
}

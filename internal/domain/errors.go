package domain

import "errors"

var (
	// ErrInvalidAttempt is returned when an attempt cannot be scored (bad counts, timing or difficulty).
	ErrInvalidAttempt = errors.New("invalid attempt")
	// ErrInvalidDifficulty indicates a difficulty label outside easy|medium|hard|mixed.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidPlayer is returned when a player has no name or id where one is required.
	ErrInvalidPlayer = errors.New("invalid player")
	// ErrGameNotFound is returned when a quiz game has not been started or was already discarded.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFinished is returned when a player acts on a game with no questions left.
	ErrGameFinished = errors.New("game already finished")
	// ErrQuestionAnswered is returned when the current question already has an answer.
	ErrQuestionAnswered = errors.New("question already answered")
	// ErrStaleQuestion is returned when an action targets a question the game has moved past.
	ErrStaleQuestion = errors.New("question no longer current")
	// ErrQuestionPending is returned when advancing before the current question is answered.
	ErrQuestionPending = errors.New("current question not answered")
	// ErrInvalidOption indicates a submitted option index is out of range.
	ErrInvalidOption = errors.New("option not found")
	// ErrQuestionBankNotFound indicates the question bank could not be loaded.
	ErrQuestionBankNotFound = errors.New("question bank not found")
	// ErrInvalidQuestionBank indicates a loaded bank holds questions that cannot be played.
	ErrInvalidQuestionBank = errors.New("invalid question bank")
	// ErrNoQuestions is returned when no question matches the requested difficulty.
	ErrNoQuestions = errors.New("no questions for difficulty")
	// ErrConsentNotFound means no valid (current version, unexpired) consent is stored.
	ErrConsentNotFound = errors.New("consent not found")
	// ErrConsentRequired is returned when storing player data without preferences consent.
	ErrConsentRequired = errors.New("preferences consent required")
	// ErrPreferencesNotFound means no saved preferences exist for the player.
	ErrPreferencesNotFound = errors.New("preferences not found")
	// ErrInvalidConsentLevel indicates a consent level outside all|necessary|custom.
	ErrInvalidConsentLevel = errors.New("invalid consent level")
)

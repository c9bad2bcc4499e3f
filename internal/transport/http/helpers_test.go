package http

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/infra/memory"
	"gdpr-quiz-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type testServer struct {
	*httptest.Server
	leaderboard *app.LeaderboardService
	consents    *app.ConsentService
	players     *app.PlayerService
	playerData  *memory.PlayerStore
	games       *memory.GameStore
}

func newTestServer(t *testing.T, cfg app.GameConfig) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	leaderboard := app.NewLeaderboardService(memory.NewSnapshotStore(), app.LeaderboardOptions{Logger: logger, Metrics: m})
	consents := app.NewConsentService(memory.NewConsentStore(), "1.0", time.Hour, logger)
	playerData := memory.NewPlayerStore()
	players := app.NewPlayerService(playerData, playerData, consents, 0, logger)
	games := memory.NewGameStore()
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.QuestionBank{"gdpr": sampleBank()}), time.Minute)
	if cfg.BankID == "" {
		cfg.BankID = "gdpr"
	}
	gameService := app.NewGameService(games, repo, cfg,
		app.WithGameLogger(logger),
		app.WithGameMetrics(m),
		app.WithGameRand(rand.New(rand.NewSource(1))),
		app.WithGameEndHook(app.RecordWithConsent(leaderboard, consents, players)),
	)

	server := httptest.NewServer(NewRouter(Services{
		Games:       gameService,
		Leaderboard: leaderboard,
		Consents:    consents,
		Players:     players,
		Logger:      logger,
		Gatherer:    reg,
	}))
	t.Cleanup(server.Close)
	return &testServer{
		Server:      server,
		leaderboard: leaderboard,
		consents:    consents,
		players:     players,
		playerData:  playerData,
		games:       games,
	}
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:    "gdpr",
		Title: "GDPR Quiz",
		Questions: []domain.Question{
			{
				ID:            1,
				Difficulty:    domain.DifficultyEasy,
				Question:      "What does GDPR stand for?",
				Options:       []string{"Global Data Privacy Rules", "General Data Protection Regulation"},
				CorrectAnswer: "General Data Protection Regulation",
				Explanation:   "GDPR is the General Data Protection Regulation.",
			},
			{
				ID:            7,
				Difficulty:    domain.DifficultyHard,
				Question:      "Within how many hours must a breach be notified?",
				Options:       []string{"24", "72"},
				CorrectAnswer: "72",
				Explanation:   "Article 33 sets 72 hours.",
			},
		},
	}
}

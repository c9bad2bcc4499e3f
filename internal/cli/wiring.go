package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/config"
	"gdpr-quiz-service/internal/infra/memory"
	"gdpr-quiz-service/internal/infra/postgres"
	infraredis "gdpr-quiz-service/internal/infra/redis"
	"gdpr-quiz-service/internal/metrics"
	"gdpr-quiz-service/internal/ranking"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// runtime holds the services and connections shared by the subcommands.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	leaderboard *app.LeaderboardService
	consents    *app.ConsentService
	players     *app.PlayerService
	games       *app.GameService

	closers []func()
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newRuntime connects the configured backends and builds the services. The
// leaderboard is loaded from its snapshot before returning.
func newRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(rt.registry)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	var db *bun.DB
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		db = postgres.OpenDB(cfg.Postgres.URL)
		rt.closers = append(rt.closers, func() { _ = db.Close() })
	}

	var snapshots app.SnapshotStore
	switch backend := cfg.LeaderboardBackend(); backend {
	case "redis":
		if redisClient == nil {
			rt.Close()
			return nil, fmt.Errorf("leaderboard storage redis needs redis.addr")
		}
		snapshots = infraredis.NewSnapshotStore(redisClient)
	case "postgres":
		if db == nil {
			rt.Close()
			return nil, fmt.Errorf("leaderboard storage postgres needs postgres.url")
		}
		snapshots = postgres.NewSnapshotStore(db)
	default:
		snapshots = memory.NewSnapshotStore()
	}

	var consentStore app.ConsentStore = memory.NewConsentStore()
	var gameStore app.GameStore = memory.NewGameStore()
	var history app.HistoryStore
	var preferences app.PreferencesStore
	if redisClient != nil {
		playerStore := infraredis.NewPlayerStore(redisClient)
		history, preferences = playerStore, playerStore
		consentStore = infraredis.NewConsentStore(redisClient)
		gameStore = infraredis.NewGameStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	}

	var loader memory.QuestionLoader = memory.NewFileQuestionLoader(cfg.Quiz.BankID, cfg.Quiz.QuestionsFile)
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository = memory.NewQuestionRepository(loader, quizTTL)
	if redisClient != nil {
		questions = infraredis.NewQuestionRepository(redisClient, loader, quizTTL)
	}

	rt.leaderboard = app.NewLeaderboardService(snapshots, app.LeaderboardOptions{
		StorageKey: cfg.Leaderboard.StorageKey,
		Capacity:   cfg.Leaderboard.Capacity,
		Region:     ranking.NewRegion(cfg.Leaderboard.Region...),
		Tiers:      ranking.TierTable(cfg.Leaderboard.Tiers),
		Logger:     logger,
		Metrics:    m,
	})
	rt.leaderboard.Load(ctx)

	if history == nil {
		playerStore := memory.NewPlayerStore()
		history, preferences = playerStore, playerStore
	}

	rt.consents = app.NewConsentService(consentStore, cfg.Consent.Version, cfg.ConsentExpiry(), logger)
	rt.players = app.NewPlayerService(history, preferences, rt.consents, cfg.Players.HistoryLimit, logger)
	rt.games = app.NewGameService(gameStore, questions, app.GameConfig{
		BankID:              cfg.Quiz.BankID,
		QuestionsPerSession: cfg.Quiz.QuestionsPerSession,
		TimerSeconds:        cfg.Quiz.TimerSeconds,
	},
		app.WithGameLogger(logger),
		app.WithGameMetrics(m),
		app.WithGameEndHook(app.RecordWithConsent(rt.leaderboard, rt.consents, rt.players)),
	)

	logger.Info("Runtime ready",
		slog.String("leaderboard_storage", cfg.LeaderboardBackend()),
		slog.Bool("redis", redisClient != nil),
		slog.Bool("postgres", pool != nil),
	)
	return rt, nil
}

// Close releases connections in reverse order of creation.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// loadRuntime is the common prologue of the subcommands.
func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	return newRuntime(ctx, cfg, logger)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/metrics"
	"gdpr-quiz-service/internal/ranking"
)

// LeaderboardOptions configures a LeaderboardService.
type LeaderboardOptions struct {
	StorageKey string
	Capacity   int
	Region     ranking.Region
	Tiers      ranking.TierTable
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// Clock stamps new entries; defaults to time.Now.
	Clock func() time.Time
}

// LeaderboardService owns the regional and global rankings of the process
// and mirrors them to a SnapshotStore after every permitted mutation.
type LeaderboardService struct {
	store   SnapshotStore
	key     string
	tiers   ranking.TierTable
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.Mutex
	board *ranking.Board
}

// RankedEntry is an entry with its 1-based rank and tier, ready for display.
type RankedEntry struct {
	Rank int `json:"rank"`
	ranking.Entry
	Tier ranking.Tier `json:"tier"`
}

// Standings is a read-only view of both collections.
type Standings struct {
	Difficulty string        `json:"difficulty"`
	Regional   []RankedEntry `json:"regional"`
	Global     []RankedEntry `json:"global"`
}

// Outcome describes what recording one attempt did to the rankings.
type Outcome struct {
	Entry ranking.Entry `json:"entry"`
	Tier  ranking.Tier  `json:"tier"`
	// InRegion is false when the player's country is outside the region;
	// RegionalRank and RegionalChange are then empty.
	InRegion       bool               `json:"inRegion"`
	RegionalRank   int                `json:"regionalRank,omitempty"`
	RegionalChange ranking.RankChange `json:"regionalChange,omitempty"`
	GlobalRank     int                `json:"globalRank,omitempty"`
	GlobalChange   ranking.RankChange `json:"globalChange"`
	Persisted      bool               `json:"persisted"`
	HistorySaved   bool               `json:"historySaved"`
	Standings      Standings          `json:"standings"`
}

func NewLeaderboardService(store SnapshotStore, opts LeaderboardOptions) *LeaderboardService {
	if opts.StorageKey == "" {
		opts.StorageKey = "gdpr_leaderboard"
	}
	if opts.Region == nil {
		opts.Region = ranking.NewRegion(ranking.EUCountries...)
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = ranking.DefaultTiers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &LeaderboardService{
		store:   store,
		key:     opts.StorageKey,
		tiers:   opts.Tiers,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Clock,
		board:   ranking.NewBoard(opts.Capacity, opts.Region),
	}
}

// Load replaces the in-memory rankings with the stored snapshot. Missing,
// unreadable or corrupt data leaves the rankings empty; it is logged, never returned.
func (s *LeaderboardService) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.board.Reset()
	data, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.metrics.StorageError("read")
		s.logger.Warn("Failed to read leaderboard snapshot, starting empty",
			slog.String("key", s.key),
			slog.Any("error", err),
		)
		return
	}
	if !found {
		s.logger.Info("No leaderboard snapshot stored, starting empty", slog.String("key", s.key))
		return
	}

	snapshot, err := ranking.DecodeSnapshot(data, s.logger)
	if err != nil {
		s.metrics.StorageError("decode")
		s.logger.Warn("Corrupt leaderboard snapshot, starting empty",
			slog.String("key", s.key),
			slog.Any("error", err),
		)
		return
	}
	s.board.Restore(snapshot)
	s.updateGauges()
	s.logger.Info("Leaderboard loaded",
		slog.Int("regional", s.board.Regional().Len()),
		slog.Int("global", s.board.Global().Len()),
	)
}

// RecordAttempt scores the attempt, inserts it into the rankings and, when
// persist is true, writes the new snapshot. A failed write keeps the
// in-memory rankings; the next mutation rewrites the whole snapshot.
func (s *LeaderboardService) RecordAttempt(ctx context.Context, attempt domain.Attempt, persist bool) (Outcome, error) {
	entry, err := ranking.NewEntry(attempt, s.now())
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.board.Record(entry)
	out := Outcome{
		Entry:        entry,
		Tier:         s.tiers.For(entry.CalculatedScore),
		InRegion:     s.board.InRegion(entry.Country),
		GlobalRank:   rankOf(s.board.Global(), entry),
		GlobalChange: s.board.Global().RankDelta(entry.Name, previous.Global),
	}
	if out.InRegion {
		out.RegionalRank = rankOf(s.board.Regional(), entry)
		out.RegionalChange = s.board.Regional().RankDelta(entry.Name, previous.Regional)
	}
	out.Standings = s.standingsLocked(domain.DifficultyAll)

	s.metrics.AttemptRecorded(string(entry.Difficulty))
	s.updateGauges()
	if persist {
		out.Persisted = s.persistLocked(ctx) == nil
	}

	s.logger.Info("Attempt recorded",
		slog.String("name", entry.Name),
		slog.String("country", entry.Country),
		slog.String("difficulty", string(entry.Difficulty)),
		slog.Int("calculated_score", entry.CalculatedScore),
		slog.Int("global_rank", out.GlobalRank),
		slog.Bool("persisted", out.Persisted),
	)
	return out, nil
}

// Standings returns the rankings filtered by difficulty ("all" for everything).
func (s *LeaderboardService) Standings(difficulty string) (Standings, error) {
	if difficulty == "" {
		difficulty = domain.DifficultyAll
	}
	if difficulty != domain.DifficultyAll {
		if _, err := domain.ParseDifficulty(difficulty); err != nil {
			return Standings{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standingsLocked(difficulty), nil
}

// Snapshot returns a copy of both collections.
func (s *LeaderboardService) Snapshot() ranking.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

// Tiers returns the tier table.
func (s *LeaderboardService) Tiers() ranking.TierTable {
	return s.tiers
}

// Reset clears both collections, persisting the empty snapshot when allowed.
func (s *LeaderboardService) Reset(ctx context.Context, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.board.Reset()
	s.updateGauges()
	s.logger.Info("Leaderboard reset", slog.Bool("persist", persist))
	if !persist {
		return nil
	}
	return s.persistLocked(ctx)
}

var (
	seedNames            = []string{"Alex", "Jamie", "Taylor", "Jordan", "Casey", "Riley", "Avery", "Quinn", "Morgan", "Reese"}
	seedOutsideCountries = []string{"US", "CA", "UK", "JP", "AU", "BR", "IN", "ZA", "MX", "AR"}
)

// Seed replaces the rankings with generated demo data: regional players from
// the region, the two best of them copied into the global list, the rest of
// the global list from outside the region. Development use only.
func (s *LeaderboardService) Seed(ctx context.Context, regionalCount, globalCount int, rnd *rand.Rand, persist bool) error {
	if regionalCount < 0 || globalCount < 0 {
		return fmt.Errorf("seed counts must not be negative")
	}
	now := s.now()
	gen := func(name, country string) (ranking.Entry, error) {
		attempt := domain.Attempt{
			PlayerName:     name,
			Country:        country,
			Correct:        rnd.Intn(5) + 1,
			Total:          5,
			ElapsedSeconds: float64(30 + rnd.Intn(60)),
			Difficulty:     domain.DifficultyMixed,
		}
		return ranking.NewEntry(attempt, now.Add(-time.Duration(rnd.Intn(1000000))*time.Millisecond))
	}

	regional := make([]ranking.Entry, 0, regionalCount)
	for i := 0; i < regionalCount; i++ {
		e, err := gen(fmt.Sprintf("%s_%d", seedNames[rnd.Intn(len(seedNames))], i),
			ranking.EUCountries[rnd.Intn(len(ranking.EUCountries))])
		if err != nil {
			return err
		}
		regional = append(regional, e)
	}
	regionalSorted := ranking.NewCollection(len(regional)+1, regional...).Entries()

	copied := min(2, len(regionalSorted))
	global := append([]ranking.Entry{}, regionalSorted[:copied]...)
	for i := 0; i < globalCount-copied; i++ {
		e, err := gen(fmt.Sprintf("%s_G%d", seedNames[rnd.Intn(len(seedNames))], i),
			seedOutsideCountries[rnd.Intn(len(seedOutsideCountries))])
		if err != nil {
			return err
		}
		global = append(global, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.Restore(ranking.Snapshot{Regional: regional, Global: global})
	s.updateGauges()
	s.logger.Warn("Leaderboard seeded with generated data",
		slog.Int("regional", s.board.Regional().Len()),
		slog.Int("global", s.board.Global().Len()),
	)
	if !persist {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *LeaderboardService) persistLocked(ctx context.Context) error {
	data, err := ranking.EncodeSnapshot(s.board.Snapshot())
	if err == nil {
		err = s.store.Set(ctx, s.key, data)
	}
	if err != nil {
		s.metrics.StorageError("write")
		s.logger.Error("Failed to persist leaderboard snapshot, keeping in-memory state",
			slog.String("key", s.key),
			slog.Any("error", err),
		)
		return fmt.Errorf("persist leaderboard: %w", err)
	}
	return nil
}

func (s *LeaderboardService) standingsLocked(difficulty string) Standings {
	filtered := s.board.Filter(difficulty)
	return Standings{
		Difficulty: difficulty,
		Regional:   s.rank(filtered.Regional),
		Global:     s.rank(filtered.Global),
	}
}

func (s *LeaderboardService) rank(entries []ranking.Entry) []RankedEntry {
	out := make([]RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = RankedEntry{Rank: i + 1, Entry: e, Tier: s.tiers.For(e.CalculatedScore)}
	}
	return out
}

func (s *LeaderboardService) updateGauges() {
	s.metrics.SetEntries(s.board.Regional().Len(), s.board.Global().Len())
}

// rankOf finds the exact entry (not just the name) and returns its 1-based
// rank, or 0 when it did not make the cut.
func rankOf(c *ranking.Collection, e ranking.Entry) int {
	for i, kept := range c.Entries() {
		if kept.Name == e.Name && kept.Timestamp.Equal(e.Timestamp) && kept.CalculatedScore == e.CalculatedScore {
			return i + 1
		}
	}
	return 0
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the quiz service collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and CLI commands free of registries.
type Metrics struct {
	GamesStarted     prometheus.Counter
	AttemptsRecorded *prometheus.CounterVec
	StorageErrors    *prometheus.CounterVec
	Entries          *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "games_started_total",
			Help:      "Number of quiz games started.",
		}),
		AttemptsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "attempts_recorded_total",
			Help:      "Number of scored attempts recorded on the leaderboard.",
		}, []string{"difficulty"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Subsystem: "leaderboard",
			Name:      "storage_errors_total",
			Help:      "Leaderboard snapshot storage failures by operation.",
		}, []string{"op"}),
		Entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quiz",
			Subsystem: "leaderboard",
			Name:      "entries",
			Help:      "Entries currently kept per leaderboard collection.",
		}, []string{"collection"}),
	}
	reg.MustRegister(m.GamesStarted, m.AttemptsRecorded, m.StorageErrors, m.Entries)
	return m
}

func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.GamesStarted.Inc()
}

func (m *Metrics) AttemptRecorded(difficulty string) {
	if m == nil {
		return
	}
	m.AttemptsRecorded.WithLabelValues(difficulty).Inc()
}

func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SetEntries(regional, global int) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues("regional").Set(float64(regional))
	m.Entries.WithLabelValues("global").Set(float64(global))
}

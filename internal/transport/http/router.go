package http

import (
	"log/slog"
	"net/http"
	"time"

	"gdpr-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Games       *app.GameService
	Leaderboard *app.LeaderboardService
	Consents    *app.ConsentService
	// Players backs /api/players and prefills /ws; nil disables both.
	Players *app.PlayerService
	Logger  *slog.Logger
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(s Services) http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(chiMiddleware.Timeout(15 * time.Second))
		NewLeaderboardHandler(s.Leaderboard).RegisterRoutes(api)
		NewConsentHandler(s.Consents, s.Players).RegisterRoutes(api)
		if s.Players != nil {
			NewPlayerHandler(s.Players).RegisterRoutes(api)
		}
	})

	if s.Games != nil {
		r.Get("/ws", NewWSHandler(s.Games, s.Players, s.Logger).ServeWS)
	}
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}

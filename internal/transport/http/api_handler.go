package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/ranking"
	"github.com/go-chi/chi/v5"
)

// LeaderboardHandler serves the rankings, the tier table and the score calculator.
type LeaderboardHandler struct {
	leaderboard *app.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *app.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.standings) // GET /api/leaderboard?difficulty=hard
	r.Get("/tiers", h.tiers)
	r.Post("/score", h.score)
}

func (h *LeaderboardHandler) standings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboard.Standings(r.URL.Query().Get("difficulty"))
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, standings)
}

func (h *LeaderboardHandler) tiers(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.leaderboard.Tiers())
}

type scoreRequest struct {
	Correct        int               `json:"correct"`
	Total          int               `json:"total"`
	ElapsedSeconds float64           `json:"elapsedSeconds"`
	Difficulty     domain.Difficulty `json:"difficulty"`
}

type scoreResponse struct {
	CalculatedScore int          `json:"calculatedScore"`
	TimeBonus       int          `json:"timeBonus"`
	Multiplier      float64      `json:"multiplier"`
	Tier            ranking.Tier `json:"tier"`
}

// score computes a calculated score without recording anything.
func (h *LeaderboardHandler) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	calculated, err := ranking.Compute(req.Correct, req.Total, req.ElapsedSeconds, req.Difficulty)
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	multiplier, _ := ranking.Multiplier(req.Difficulty)
	respondJSON(w, http.StatusOK, scoreResponse{
		CalculatedScore: calculated,
		TimeBonus:       ranking.TimeBonus(req.ElapsedSeconds / float64(req.Total)),
		Multiplier:      multiplier,
		Tier:            h.leaderboard.Tiers().For(calculated),
	})
}

// ConsentHandler stores, returns and withdraws the consent banner choice of
// a player. With players set, withdrawing also erases the player's data.
type ConsentHandler struct {
	consents *app.ConsentService
	players  *app.PlayerService
}

func NewConsentHandler(consents *app.ConsentService, players *app.PlayerService) *ConsentHandler {
	return &ConsentHandler{consents: consents, players: players}
}

func (h *ConsentHandler) RegisterRoutes(r chi.Router) {
	r.Put("/consent/{playerID}", h.give)
	r.Get("/consent/{playerID}", h.current)
	r.Delete("/consent/{playerID}", h.withdraw)
}

type consentRequest struct {
	Level       domain.ConsentLevel `json:"level"`
	Preferences bool                `json:"preferences"`
	Analytics   bool                `json:"analytics"`
}

func (h *ConsentHandler) give(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	consent, err := h.consents.Give(r.Context(), chi.URLParam(r, "playerID"), req.Level, domain.Consents{
		Preferences: req.Preferences,
		Analytics:   req.Analytics,
	})
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, consent)
}

func (h *ConsentHandler) current(w http.ResponseWriter, r *http.Request) {
	consent, err := h.consents.Current(r.Context(), chi.URLParam(r, "playerID"))
	if errors.Is(err, domain.ErrConsentNotFound) {
		respondError(w, http.StatusNotFound, "consent required")
		return
	}
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, consent)
}

func (h *ConsentHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	var err error
	if h.players != nil {
		err = h.players.Forget(r.Context(), playerID)
	} else {
		err = h.consents.Withdraw(r.Context(), playerID)
	}
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlayerHandler serves the history and preferences a player allowed us to keep.
type PlayerHandler struct {
	players *app.PlayerService
}

func NewPlayerHandler(players *app.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

func (h *PlayerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/history", h.history)
		r.Get("/preferences", h.getPreferences)
		r.Put("/preferences", h.savePreferences)
	})
}

type historyResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

func (h *PlayerHandler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.players.History(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (h *PlayerHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.players.Preferences(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (h *PlayerHandler) savePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := h.players.SavePreferences(r.Context(), chi.URLParam(r, "playerID"), prefs); err != nil {
		respondError(w, statusFromError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

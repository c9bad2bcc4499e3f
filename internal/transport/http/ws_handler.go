package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	games    *app.GameService
	players  *app.PlayerService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler serves quiz games; players may be nil.
func NewWSHandler(games *app.GameService, players *app.PlayerService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		games:   games,
		players: players,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type timeUpPayload struct {
	Number int `json:"number"`
}

// armedQuestion is the question the deadline timer watches; a zero deadline
// disarms it.
type armedQuestion struct {
	number   int
	deadline time.Time
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades to a websocket and plays one game over it:
//
//	server: question -> client: answer{optionIndex} | timeUp{number} -> server: feedback
//	client: next -> server: question | result
//
// When the timer is enabled the server sends the timed out feedback itself
// once the deadline passes. Closing the socket before the result abandons the game.
// Saved preferences of playerId fill in a missing name, country or difficulty.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	player := domain.Player{
		ID:      query.Get("playerId"),
		Name:    query.Get("name"),
		Country: query.Get("country"),
	}
	difficulty := query.Get("difficulty")
	if h.players != nil && player.ID != "" {
		if prefs, err := h.players.Preferences(r.Context(), player.ID); err == nil {
			if player.Name == "" {
				player.Name = prefs.PlayerName
			}
			if player.Country == "" {
				player.Country = prefs.Country
			}
			if difficulty == "" {
				difficulty = string(prefs.Difficulty)
			}
		}
	}
	if difficulty == "" {
		difficulty = string(domain.DifficultyMixed)
	}
	if player.Name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	game, view, err := h.games.Start(ctx, player, difficulty)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	gameID := game.ID

	send := make(chan outboundMessage, 16)
	deadlines := make(chan armedQuestion, 1)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	timerDone := make(chan struct{})

	// Single writer: gorilla connections support one concurrent writer.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("WebSocket write failed", slog.String("game_id", gameID), slog.Any("error", err))
				// unblocks the read loop; keep draining until send is closed
				failed = true
				_ = conn.Close()
			}
		}
	}()

	go func() {
		defer close(timerDone)
		h.watchDeadlines(ctx, gameID, deadlines, send, closeSignals)
	}()

	current := view.Number
	send <- outboundMessage{Type: "question", Payload: view}
	deadlines <- armedQuestion{number: current, deadline: view.Deadline}

	finished := false
	for !finished {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.OptionIndex == nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			fb, err := h.games.Answer(ctx, gameID, *payload.OptionIndex)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			deadlines <- armedQuestion{}
			send <- outboundMessage{Type: "feedback", Payload: fb}
		case "timeUp":
			payload := timeUpPayload{Number: current}
			if len(inbound.Payload) > 0 && string(inbound.Payload) != "null" {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid timeUp payload"}}
					continue
				}
			}
			fb, err := h.games.TimeUp(ctx, gameID, payload.Number)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			deadlines <- armedQuestion{}
			send <- outboundMessage{Type: "feedback", Payload: fb}
		case "next":
			step, err := h.games.Next(ctx, gameID)
			if step.Result != nil {
				if err != nil {
					h.logger.Error("Failed to record finished game", slog.String("game_id", gameID), slog.Any("error", err))
				}
				send <- outboundMessage{Type: "result", Payload: step.Result}
				finished = true
				continue
			}
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			current = step.Question.Number
			send <- outboundMessage{Type: "question", Payload: step.Question}
			deadlines <- armedQuestion{number: current, deadline: step.Question.Deadline}
		default:
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-timerDone
	close(send)
	<-writerDone

	if !finished {
		if err := h.games.Abandon(context.WithoutCancel(ctx), gameID); err != nil {
			h.logger.Warn("Failed to abandon game", slog.String("game_id", gameID), slog.Any("error", err))
		}
	}
}

// watchDeadlines times out the armed question when its deadline passes.
// The question number travels with the deadline, so a timer that fires after
// the game moved on is rejected by the game service.
func (h *WSHandler) watchDeadlines(ctx context.Context, gameID string, deadlines <-chan armedQuestion, send chan<- outboundMessage, closeSignals <-chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time
	var armed armedQuestion
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		fire = nil
	}
	defer stop()

	for {
		select {
		case armed = <-deadlines:
			stop()
			if armed.deadline.IsZero() {
				continue
			}
			timer = time.NewTimer(time.Until(armed.deadline))
			fire = timer.C
		case <-fire:
			fire = nil
			fb, err := h.games.TimeUp(ctx, gameID, armed.number)
			if err != nil {
				// answered or moved on meanwhile
				continue
			}
			select {
			case send <- outboundMessage{Type: "feedback", Payload: fb}:
			case <-closeSignals:
				return
			}
		case <-closeSignals:
			return
		}
	}
}

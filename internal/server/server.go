// Package server exposes the processing core as a small JSON HTTP API.
// Handlers stay thin: decode, delegate, map errors.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/service"

	"github.com/rs/zerolog"
)

type LadderServer struct {
	processor   *service.ProcessorService
	decay       *service.DecayService
	prediction  *service.PredictionService
	leaderboard *service.LeaderboardService
	players     *service.PlayerService
	logger      zerolog.Logger
}

func NewLadderServer(
	processor *service.ProcessorService,
	decay *service.DecayService,
	prediction *service.PredictionService,
	leaderboard *service.LeaderboardService,
	players *service.PlayerService,
	logger zerolog.Logger,
) *LadderServer {
	return &LadderServer{
		processor:   processor,
		decay:       decay,
		prediction:  prediction,
		leaderboard: leaderboard,
		players:     players,
		logger:      logger,
	}
}

// Routes registers all handlers on mux.
func (s *LadderServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/matches", s.handleProcessMatch)
	mux.HandleFunc("POST /v1/decay", s.handleDecay)
	mux.HandleFunc("POST /v1/players", s.handleRegisterPlayer)
	mux.HandleFunc("GET /v1/players/{id}", s.handleGetPlayer)
	mux.HandleFunc("GET /v1/prediction", s.handlePrediction)
	mux.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
}

type matchRequest struct {
	MatchID         string        `json:"match_id"`
	Player1ID       string        `json:"player1_id"`
	Player2ID       string        `json:"player2_id"`
	WinnerID        string        `json:"winner_id,omitempty"`
	DurationSeconds int           `json:"duration_seconds"`
	MoveHistory     []domain.Move `json:"move_history"`
	MatchType       string        `json:"match_type"`
	PlayedAt        time.Time     `json:"played_at,omitzero"`
}

type ratingChangeResponse struct {
	PlayerID  string `json:"player_id"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
	Change    int    `json:"change"`
}

type achievementResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Points   int    `json:"points"`
}

type matchResponse struct {
	MatchID       string                           `json:"match_id"`
	RatingChanges map[string]ratingChangeResponse  `json:"rating_changes"`
	Achievements  map[string][]achievementResponse `json:"achievements_earned"`
}

func (s *LadderServer) handleProcessMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	summary, err := s.processor.ProcessMatch(r.Context(), &domain.MatchResult{
		MatchID:         req.MatchID,
		Player1ID:       req.Player1ID,
		Player2ID:       req.Player2ID,
		WinnerID:        req.WinnerID,
		DurationSeconds: req.DurationSeconds,
		MoveHistory:     req.MoveHistory,
		MatchType:       req.MatchType,
		PlayedAt:        req.PlayedAt,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{
		MatchID: summary.MatchID,
		RatingChanges: map[string]ratingChangeResponse{
			"player1": toRatingChange(summary.Player1),
			"player2": toRatingChange(summary.Player2),
		},
		Achievements: map[string][]achievementResponse{
			"player1": toAchievements(summary.Player1Achievements),
			"player2": toAchievements(summary.Player2Achievements),
		},
	})
}

type decayRequest struct {
	DaysThreshold int `json:"days_threshold"`
}

func (s *LadderServer) handleDecay(w http.ResponseWriter, r *http.Request) {
	var req decayRequest
	if r.Body != nil {
		// An empty body means the configured default threshold.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	summary, err := s.decay.ApplyInactivityDecay(r.Context(), req.DaysThreshold)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type registerRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

func (s *LadderServer) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	player, err := s.players.Register(r.Context(), req.PlayerID, req.DisplayName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (s *LadderServer) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	standing, err := s.players.GetStanding(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

func (s *LadderServer) handlePrediction(w http.ResponseWriter, r *http.Request) {
	p1 := r.URL.Query().Get("player1")
	p2 := r.URL.Query().Get("player2")
	if p1 == "" || p2 == "" {
		writeError(w, http.StatusBadRequest, "player1 and player2 query parameters are required")
		return
	}

	prediction, err := s.prediction.Predict(r.Context(), p1, p2)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *LadderServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.leaderboard.Top(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *LadderServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMatchAlreadyProcessed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrLockContention):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func toRatingChange(c domain.PlayerRatingChange) ratingChangeResponse {
	return ratingChangeResponse{
		PlayerID:  c.PlayerID,
		OldRating: c.OldRating,
		NewRating: c.NewRating,
		Change:    c.Change,
	}
}

func toAchievements(defs []domain.Achievement) []achievementResponse {
	out := make([]achievementResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, achievementResponse{ID: d.ID, Name: d.Name, Category: d.Category, Points: d.Points})
	}
	return out
}

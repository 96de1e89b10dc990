// Package notify publishes match-completion events to downstream
// consumers (leaderboard caches, user-facing alerts). Delivery is
// best-effort and outside the match's atomic unit.
package notify

import (
	"encoding/json"
	"time"

	"ladder-tracker/internal/config"
	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type Notifier struct {
	url    string
	client *fasthttp.Client
	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) *Notifier {
	return &Notifier{
		url: cfg.WebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.NotifyTimeout,
			WriteTimeout:        constants.NotifyTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type ratingChangePayload struct {
	PlayerID  string `json:"player_id"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
	Change    int    `json:"change"`
}

type completionPayload struct {
	MatchID       string                         `json:"match_id"`
	RatingChanges map[string]ratingChangePayload `json:"rating_changes"`
	Achievements  map[string][]string            `json:"achievements_earned"`
}

// PublishMatchCompleted sends the completion event. Failures are logged,
// never returned: a webhook outage must not affect match processing.
func (n *Notifier) PublishMatchCompleted(summary *domain.MatchSummary) {
	if n.url == "" {
		return
	}

	payload := completionPayload{
		MatchID: summary.MatchID,
		RatingChanges: map[string]ratingChangePayload{
			"player1": toRatingChange(summary.Player1),
			"player2": toRatingChange(summary.Player2),
		},
		Achievements: map[string][]string{
			"player1": achievementIDs(summary.Player1Achievements),
			"player2": achievementIDs(summary.Player2Achievements),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error().Err(err).Str("match_id", summary.MatchID).Msg("failed to marshal completion event")
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := n.client.DoTimeout(req, resp, constants.NotifyTimeout); err != nil {
		n.logger.Warn().Err(err).Str("match_id", summary.MatchID).Msg("failed to deliver completion event")
		return
	}
	if resp.StatusCode() >= 300 {
		n.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("match_id", summary.MatchID).
			Msg("completion event rejected by webhook")
		return
	}

	n.logger.Debug().Str("match_id", summary.MatchID).Msg("completion event delivered")
}

func toRatingChange(c domain.PlayerRatingChange) ratingChangePayload {
	return ratingChangePayload{
		PlayerID:  c.PlayerID,
		OldRating: c.OldRating,
		NewRating: c.NewRating,
		Change:    c.Change,
	}
}

func achievementIDs(defs []domain.Achievement) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}

package domain

import (
	"time"
)

// Outcome is the result of a match from a fixed perspective: player1 vs
// player2 as submitted.
type Outcome string

const (
	OutcomePlayer1Wins Outcome = "player1_wins"
	OutcomePlayer2Wins Outcome = "player2_wins"
	OutcomeDraw        Outcome = "draw"
)

// HistoryReason tags a rating history row with why the rating moved.
type HistoryReason string

const (
	ReasonWin   HistoryReason = "win"
	ReasonLoss  HistoryReason = "loss"
	ReasonDraw  HistoryReason = "draw"
	ReasonDecay HistoryReason = "decay"
)

type Player struct {
	ID                   string     `json:"id"`
	DisplayName          string     `json:"display_name"`
	Rating               int        `json:"rating"`
	GamesPlayed          int        `json:"games_played"`
	GamesWon             int        `json:"games_won"`
	GamesLost            int        `json:"games_lost"`
	GamesDrawn           int        `json:"games_drawn"`
	CurrentStreak        int        `json:"current_streak"` // positive = consecutive wins, negative = consecutive losses
	LongestWinStreak     int        `json:"longest_win_streak"`
	TotalPlaytimeSeconds int64      `json:"total_playtime_seconds"`
	AvgMovesPerGame      float64    `json:"avg_moves_per_game"`
	RankingPercentile    *float64   `json:"ranking_percentile"` // nil until the player has enough games
	LastMatchAt          *time.Time `json:"last_match_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Established reports whether the player is out of provisional status for
// the given threshold.
func (p *Player) Established(provisionalGames int) bool {
	return p.GamesPlayed >= provisionalGames
}

// Move is one entry of a match's move history, tagged with the player who
// made it.
type Move struct {
	PlayerID   string `json:"player_id"`
	Notation   string `json:"notation"`
	TimeMillis int64  `json:"time_millis"`
}

// MatchResult is the immutable inbound record of one completed match.
type MatchResult struct {
	MatchID         string
	Player1ID       string
	Player2ID       string
	WinnerID        string // empty for a draw
	DurationSeconds int
	MoveHistory     []Move
	MatchType       string
	PlayedAt        time.Time
}

// Outcome maps the winner field to the internal three-value enum.
func (m *MatchResult) Outcome() Outcome {
	switch m.WinnerID {
	case "":
		return OutcomeDraw
	case m.Player1ID:
		return OutcomePlayer1Wins
	default:
		return OutcomePlayer2Wins
	}
}

type RatingHistoryEntry struct {
	ID        string        `json:"id"`
	PlayerID  string        `json:"player_id"`
	MatchID   string        `json:"match_id,omitempty"` // empty for decay rows
	OldRating int           `json:"old_rating"`
	NewRating int           `json:"new_rating"`
	Change    int           `json:"change"`
	Reason    HistoryReason `json:"reason"`
	CreatedAt time.Time     `json:"created_at"`
}

// Achievement is a seeded, read-mostly definition.
type Achievement struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	ConditionType  string `json:"condition_type"`
	ConditionValue int    `json:"condition_value"`
	Points         int    `json:"points"`
}

// PlayerAchievement records that a player earned an achievement; the
// (player, achievement) pair is unique.
type PlayerAchievement struct {
	PlayerID      string
	AchievementID string
	EarnedAt      time.Time
	Progress      int
}

// Match is the stored fact derived from an accepted MatchResult.
type Match struct {
	MatchID         string
	Player1ID       string
	Player2ID       string
	WinnerID        string
	DurationSeconds int
	MatchType       string
	Player1Moves    int
	Player2Moves    int
	PlayedAt        time.Time
}

type LeaderboardEntry struct {
	PlayerID      string  `json:"player_id"`
	DisplayName   string  `json:"display_name"`
	Rank          int     `json:"rank"`
	Rating        int     `json:"rating"`
	Wins          int     `json:"wins"`
	WinPercentage float64 `json:"win_percentage"`
	RankChange    int     `json:"rank_change"` // +1 climbing, -1 falling, 0 steady
}

// PlayerRatingChange is the per-player slice of a process-match summary.
type PlayerRatingChange struct {
	PlayerID  string
	OldRating int
	NewRating int
	Change    int
}

// MatchSummary is returned to the caller of ProcessMatch.
type MatchSummary struct {
	MatchID             string
	Player1             PlayerRatingChange
	Player2             PlayerRatingChange
	Player1Achievements []Achievement
	Player2Achievements []Achievement
}

// DecayedPlayer is one entry of a decay batch summary.
type DecayedPlayer struct {
	PlayerID  string `json:"player_id"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
}

type DecaySummary struct {
	Scanned int             `json:"scanned"`
	Decayed int             `json:"decayed"`
	Players []DecayedPlayer `json:"players,omitempty"`
	Errors  int             `json:"errors"`
}

// OutcomeDeltas holds the rating changes a player would see for each of
// the three possible outcomes of an upcoming match.
type OutcomeDeltas struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

type MatchPrediction struct {
	Player1ID       string        `json:"player1_id"`
	Player2ID       string        `json:"player2_id"`
	Player1Rating   int           `json:"player1_rating"`
	Player2Rating   int           `json:"player2_rating"`
	Player1WinProb  float64       `json:"player1_win_probability"`
	Player2WinProb  float64       `json:"player2_win_probability"`
	DrawProb        float64       `json:"draw_probability"`
	Player1Deltas   OutcomeDeltas `json:"player1_deltas"`
	Player2Deltas   OutcomeDeltas `json:"player2_deltas"`
	HeadToHeadTotal int           `json:"head_to_head_total"`
	Player1H2HWins  int           `json:"player1_h2h_wins"`
	Player2H2HWins  int           `json:"player2_h2h_wins"`
	HeadToHeadDraws int           `json:"head_to_head_draws"`
}

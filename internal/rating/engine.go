package rating

import (
	"fmt"
	"math"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
)

// PlayerState is the slice of a player the engine needs. The engine is
// stateless; callers load and persist.
type PlayerState struct {
	Rating      int
	GamesPlayed int
}

// Change is the computed rating movement for one player.
type Change struct {
	OldRating int
	NewRating int
	Change    int
}

// Interval is a 95% confidence interval around a rating, plus a 0-100
// confidence score that grows as the deviation shrinks.
type Interval struct {
	Low        int     `json:"low"`
	High       int     `json:"high"`
	Deviation  float64 `json:"deviation"`
	Confidence int     `json:"confidence"`
}

// ExpectedScore returns the probability-like expected score of a against b
// under the standard ELO curve.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFactor picks the sensitivity multiplier for one player. New-player
// status takes precedence over expert status so provisional ratings
// converge quickly regardless of where they start.
func KFactor(rating, gamesPlayed int) int {
	if gamesPlayed < constants.ProvisionalGames {
		return constants.KNewPlayer
	}
	if rating >= constants.ExpertRating {
		return constants.KExpert
	}
	return constants.KRegular
}

// NewRatings computes both players' rating changes for one match outcome.
// Each side is K-factored independently and bounded after the change is
// applied.
func NewRatings(p1, p2 PlayerState, outcome domain.Outcome) (Change, Change, error) {
	if err := validateRating(p1.Rating); err != nil {
		return Change{}, Change{}, fmt.Errorf("player1: %w", err)
	}
	if err := validateRating(p2.Rating); err != nil {
		return Change{}, Change{}, fmt.Errorf("player2: %w", err)
	}

	var actual1, actual2 float64
	switch outcome {
	case domain.OutcomePlayer1Wins:
		actual1, actual2 = 1, 0
	case domain.OutcomePlayer2Wins:
		actual1, actual2 = 0, 1
	case domain.OutcomeDraw:
		actual1, actual2 = 0.5, 0.5
	default:
		return Change{}, Change{}, domain.NewValidationError("outcome", fmt.Sprintf("unknown outcome %q", outcome))
	}

	expected1 := ExpectedScore(p1.Rating, p2.Rating)
	expected2 := ExpectedScore(p2.Rating, p1.Rating)

	change1 := int(math.Round(float64(KFactor(p1.Rating, p1.GamesPlayed)) * (actual1 - expected1)))
	change2 := int(math.Round(float64(KFactor(p2.Rating, p2.GamesPlayed)) * (actual2 - expected2)))

	new1 := ApplyBounds(p1.Rating+change1, p1.GamesPlayed)
	new2 := ApplyBounds(p2.Rating+change2, p2.GamesPlayed)

	return Change{OldRating: p1.Rating, NewRating: new1, Change: new1 - p1.Rating},
		Change{OldRating: p2.Rating, NewRating: new2, Change: new2 - p2.Rating},
		nil
}

// ApplyBounds clamps a rating to the global range, and additionally to the
// rating floor once the player is established.
func ApplyBounds(rating, gamesPlayed int) int {
	if rating > constants.MaxRating {
		return constants.MaxRating
	}
	floor := constants.MinRating
	if gamesPlayed >= constants.ProvisionalGames {
		floor = constants.RatingFloor
	}
	if rating < floor {
		return floor
	}
	return rating
}

// Decay returns the rating after daysInactive days without a match. Up to
// the threshold nothing happens; beyond it the rating decays geometrically
// per day, never below the rating floor.
func Decay(rating, daysInactive int) int {
	if daysInactive <= constants.DecayThresholdDays {
		return rating
	}
	daysBeyond := daysInactive - constants.DecayThresholdDays
	decayed := float64(rating) * math.Pow(1-constants.DecayDailyRate, float64(daysBeyond))
	result := int(math.Round(decayed))
	if result < constants.RatingFloor {
		return constants.RatingFloor
	}
	return result
}

// WinProbabilities estimates win/draw/win probabilities for a match
// between the two ratings. A draw share proportional to how close the
// matchup is gets carved out of both win probabilities. Rounded to two
// decimals; the three values need not sum to exactly 1 after rounding.
func WinProbabilities(ratingA, ratingB int) (winA, draw, winB float64) {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := ExpectedScore(ratingB, ratingA)

	draw = constants.MaxDrawProbability * (1 - math.Abs(expectedA-expectedB))

	winA = math.Max(0, expectedA-draw/2)
	winB = math.Max(0, expectedB-draw/2)

	return round2(winA), round2(draw), round2(winB)
}

// ConfidenceInterval reports how settled a rating is: the deviation
// shrinks with 1/sqrt(1+games/20).
func ConfidenceInterval(rating, gamesPlayed int) Interval {
	deviation := constants.BaseDeviation / math.Sqrt(1+float64(gamesPlayed)/20.0)
	margin := constants.DeviationZScore * deviation

	return Interval{
		Low:        int(math.Round(float64(rating) - margin)),
		High:       int(math.Round(float64(rating) + margin)),
		Deviation:  deviation,
		Confidence: int(math.Round((1 - deviation/constants.BaseDeviation) * 100)),
	}
}

func validateRating(rating int) error {
	if rating < constants.MinRating || rating > constants.MaxRating {
		return domain.NewValidationError("rating", fmt.Sprintf("%d outside [%d, %d]", rating, constants.MinRating, constants.MaxRating))
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

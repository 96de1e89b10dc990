package rating

import (
	"math"
	"testing"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
)

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{
		{1200, 1200},
		{1500, 1400},
		{100, 3000},
		{2000, 1999},
		{800, 2400},
	}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("ExpectedScore(%d,%d)+ExpectedScore(%d,%d) = %f, want 1", p[0], p[1], p[1], p[0], sum)
		}
	}
}

func TestExpectedScoreEqualRatings(t *testing.T) {
	if got := ExpectedScore(1200, 1200); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("ExpectedScore(1200,1200) = %f, want 0.5", got)
	}
}

func TestKFactor(t *testing.T) {
	tests := []struct {
		name        string
		rating      int
		gamesPlayed int
		want        int
	}{
		{"new player", 1200, 5, constants.KNewPlayer},
		{"new player high rating", 2200, 10, constants.KNewPlayer},
		{"regular", 1500, 50, constants.KRegular},
		{"expert", 2100, 50, constants.KExpert},
		{"expert boundary", 2000, 30, constants.KExpert},
		{"provisional boundary", 1500, 29, constants.KNewPlayer},
		{"just established", 1500, 30, constants.KRegular},
	}
	for _, tt := range tests {
		if got := KFactor(tt.rating, tt.gamesPlayed); got != tt.want {
			t.Errorf("%s: KFactor(%d, %d) = %d, want %d", tt.name, tt.rating, tt.gamesPlayed, got, tt.want)
		}
	}
}

func TestNewRatingsEvenMatchWin(t *testing.T) {
	p1 := PlayerState{Rating: 1200, GamesPlayed: 10}
	p2 := PlayerState{Rating: 1200, GamesPlayed: 10}

	c1, c2, err := NewRatings(p1, p2, domain.OutcomePlayer1Wins)
	if err != nil {
		t.Fatalf("NewRatings: %v", err)
	}
	if c1.Change != 16 || c1.NewRating != 1216 {
		t.Errorf("player1 change = %+d (new %d), want +16 (1216)", c1.Change, c1.NewRating)
	}
	if c2.Change != -16 || c2.NewRating != 1184 {
		t.Errorf("player2 change = %+d (new %d), want -16 (1184)", c2.Change, c2.NewRating)
	}
}

func TestNewRatingsEvenMatchDraw(t *testing.T) {
	p1 := PlayerState{Rating: 1200, GamesPlayed: 10}
	p2 := PlayerState{Rating: 1200, GamesPlayed: 10}

	c1, c2, err := NewRatings(p1, p2, domain.OutcomeDraw)
	if err != nil {
		t.Fatalf("NewRatings: %v", err)
	}
	if c1.Change != 0 || c2.Change != 0 {
		t.Errorf("draw changes = %+d, %+d, want 0, 0", c1.Change, c2.Change)
	}
}

func TestNewRatingsIndependentKFactors(t *testing.T) {
	// Provisional player1 (K=32) beats established regular player2 (K=24).
	p1 := PlayerState{Rating: 1200, GamesPlayed: 5}
	p2 := PlayerState{Rating: 1200, GamesPlayed: 50}

	c1, c2, err := NewRatings(p1, p2, domain.OutcomePlayer1Wins)
	if err != nil {
		t.Fatalf("NewRatings: %v", err)
	}
	if c1.Change != 16 {
		t.Errorf("player1 change = %+d, want +16", c1.Change)
	}
	if c2.Change != -12 {
		t.Errorf("player2 change = %+d, want -12", c2.Change)
	}
}

func TestNewRatingsRejectsInvalidInput(t *testing.T) {
	valid := PlayerState{Rating: 1200, GamesPlayed: 10}

	if _, _, err := NewRatings(PlayerState{Rating: 50}, valid, domain.OutcomePlayer1Wins); !domain.IsValidation(err) {
		t.Errorf("under-range rating: got %v, want validation error", err)
	}
	if _, _, err := NewRatings(valid, PlayerState{Rating: 3500}, domain.OutcomeDraw); !domain.IsValidation(err) {
		t.Errorf("over-range rating: got %v, want validation error", err)
	}
	if _, _, err := NewRatings(valid, valid, domain.Outcome("player3_wins")); !domain.IsValidation(err) {
		t.Errorf("unknown outcome: got %v, want validation error", err)
	}
}

func TestNewRatingsStaysInBounds(t *testing.T) {
	// Boundary fuzz over the validated input space.
	ratings := []int{constants.MinRating, constants.MinRating + 1, 800, 1200, 1999, 2000, constants.MaxRating - 1, constants.MaxRating}
	games := []int{0, 1, 29, 30, 500}
	outcomes := []domain.Outcome{domain.OutcomePlayer1Wins, domain.OutcomePlayer2Wins, domain.OutcomeDraw}

	for _, r1 := range ratings {
		for _, r2 := range ratings {
			for _, g := range games {
				for _, o := range outcomes {
					c1, c2, err := NewRatings(PlayerState{r1, g}, PlayerState{r2, g}, o)
					if err != nil {
						t.Fatalf("NewRatings(%d,%d,%d,%s): %v", r1, r2, g, o, err)
					}
					for _, c := range []Change{c1, c2} {
						if c.NewRating < constants.MinRating || c.NewRating > constants.MaxRating {
							t.Fatalf("rating %d out of bounds after (%d vs %d, games=%d, %s)", c.NewRating, r1, r2, g, o)
						}
					}
				}
			}
		}
	}
}

func TestApplyBoundsFloorForEstablished(t *testing.T) {
	// A provisional player may drop toward MinRating; an established
	// player stops at the rating floor.
	if got := ApplyBounds(500, 10); got != 500 {
		t.Errorf("provisional at 500 = %d, want 500", got)
	}
	if got := ApplyBounds(500, 30); got != constants.RatingFloor {
		t.Errorf("established at 500 = %d, want floor %d", got, constants.RatingFloor)
	}
	if got := ApplyBounds(50, 10); got != constants.MinRating {
		t.Errorf("provisional at 50 = %d, want min %d", got, constants.MinRating)
	}
	if got := ApplyBounds(9000, 100); got != constants.MaxRating {
		t.Errorf("over max = %d, want %d", got, constants.MaxRating)
	}
}

func TestDecay(t *testing.T) {
	// At exactly the threshold nothing happens.
	if got := Decay(1500, constants.DecayThresholdDays); got != 1500 {
		t.Errorf("at threshold = %d, want 1500", got)
	}
	// One day beyond starts decaying.
	oneDay := Decay(1500, constants.DecayThresholdDays+1)
	if oneDay >= 1500 {
		t.Errorf("one day beyond threshold = %d, want < 1500", oneDay)
	}
	want := int(math.Round(1500 * (1 - constants.DecayDailyRate)))
	if oneDay != want {
		t.Errorf("one day beyond threshold = %d, want %d", oneDay, want)
	}
	// Decay is monotone in days inactive.
	if Decay(1500, 200) >= oneDay {
		t.Errorf("decay not monotone: %d >= %d", Decay(1500, 200), oneDay)
	}
	// Never below the floor, even after years.
	if got := Decay(1500, 10000); got != constants.RatingFloor {
		t.Errorf("long decay = %d, want floor %d", got, constants.RatingFloor)
	}
	// A rating already at the floor stays put.
	if got := Decay(constants.RatingFloor, 365); got != constants.RatingFloor {
		t.Errorf("decay at floor = %d, want %d", got, constants.RatingFloor)
	}
}

func TestWinProbabilities(t *testing.T) {
	winA, draw, winB := WinProbabilities(1200, 1200)
	if winA != winB {
		t.Errorf("even matchup asymmetric: %f vs %f", winA, winB)
	}
	if draw != round2(constants.MaxDrawProbability) {
		t.Errorf("even matchup draw = %f, want %f", draw, constants.MaxDrawProbability)
	}

	winA, draw, winB = WinProbabilities(2000, 1200)
	if winA <= winB {
		t.Errorf("stronger player not favored: %f vs %f", winA, winB)
	}
	if draw >= constants.MaxDrawProbability {
		t.Errorf("lopsided matchup draw = %f, want < %f", draw, constants.MaxDrawProbability)
	}
	// Rounded to 2 decimals.
	for _, v := range []float64{winA, draw, winB} {
		if v != round2(v) {
			t.Errorf("probability %v not rounded to 2 decimals", v)
		}
	}
}

func TestConfidenceInterval(t *testing.T) {
	fresh := ConfidenceInterval(1200, 0)
	settled := ConfidenceInterval(1200, 200)

	if fresh.Deviation != constants.BaseDeviation {
		t.Errorf("fresh deviation = %f, want %f", fresh.Deviation, constants.BaseDeviation)
	}
	if fresh.Confidence != 0 {
		t.Errorf("fresh confidence = %d, want 0", fresh.Confidence)
	}
	if settled.Deviation >= fresh.Deviation {
		t.Errorf("deviation did not shrink: %f >= %f", settled.Deviation, fresh.Deviation)
	}
	if settled.Confidence <= fresh.Confidence {
		t.Errorf("confidence did not grow: %d <= %d", settled.Confidence, fresh.Confidence)
	}
	if settled.Low >= 1200 || settled.High <= 1200 {
		t.Errorf("interval [%d, %d] does not bracket the rating", settled.Low, settled.High)
	}
	// 95% interval is ±1.96 deviations.
	wantHigh := int(math.Round(1200 + constants.DeviationZScore*settled.Deviation))
	if settled.High != wantHigh {
		t.Errorf("interval high = %d, want %d", settled.High, wantHigh)
	}
}

package achievement

import (
	"context"
	"testing"
	"time"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/stats"

	"github.com/rs/zerolog"
)

type fakeScanner struct {
	days      []string
	total     int
	wins      int
	comebacks int
}

func (f *fakeScanner) MatchDays(context.Context, string, int) ([]string, error) {
	return f.days, nil
}

func (f *fakeScanner) RecentRecord(context.Context, string, time.Time) (int, int, error) {
	return f.total, f.wins, nil
}

func (f *fakeScanner) CountComebackWins(context.Context, string) (int, error) {
	return f.comebacks, nil
}

func evalCtx(player *domain.Player, outcome stats.PlayerOutcome, match *domain.Match, sc HistoryScanner) *EvalContext {
	if match == nil {
		match = &domain.Match{MatchID: "m1", DurationSeconds: 600, PlayedAt: time.Now()}
	}
	if sc == nil {
		sc = &fakeScanner{}
	}
	return &EvalContext{Player: player, Outcome: outcome, Match: match, History: sc}
}

func def(id, condType string, value int) domain.Achievement {
	return domain.Achievement{ID: id, ConditionType: condType, ConditionValue: value}
}

func TestThresholdConditions(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1", Rating: 1450, GamesPlayed: 25, GamesWon: 10, CurrentStreak: 3}

	defs := []domain.Achievement{
		def("wins-10", CondTotalWins, 10),
		def("wins-50", CondTotalWins, 50),
		def("streak-3", CondWinStreak, 3),
		def("streak-5", CondWinStreak, 5),
		def("games-10", CondGamesPlayed, 10),
		def("rating-1400", CondRatingReached, 1400),
		def("rating-1800", CondRatingReached, 1800),
	}

	unlocked, err := reg.Evaluate(context.Background(), defs, map[string]bool{}, evalCtx(player, stats.OutcomeWin, nil, nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := map[string]bool{"wins-10": true, "streak-3": true, "games-10": true, "rating-1400": true}
	if len(unlocked) != len(want) {
		t.Fatalf("unlocked %d achievements, want %d: %+v", len(unlocked), len(want), unlocked)
	}
	for _, a := range unlocked {
		if !want[a.ID] {
			t.Errorf("unexpected unlock %s", a.ID)
		}
	}
}

func TestEarnedSetSkipsReevaluation(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1", GamesWon: 10}

	defs := []domain.Achievement{def("wins-10", CondTotalWins, 10)}
	earned := map[string]bool{"wins-10": true}

	unlocked, err := reg.Evaluate(context.Background(), defs, earned, evalCtx(player, stats.OutcomeWin, nil, nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(unlocked) != 0 {
		t.Errorf("already-earned achievement re-unlocked: %+v", unlocked)
	}
}

func TestMatchScopedConditions(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1"}

	fast := &domain.Match{MatchID: "m1", DurationSeconds: 120, PlayedAt: time.Now()}
	long := &domain.Match{MatchID: "m2", DurationSeconds: 4000, PlayedAt: time.Now()}

	tests := []struct {
		name    string
		d       domain.Achievement
		outcome stats.PlayerOutcome
		match   *domain.Match
		want    bool
	}{
		{"fast win inside threshold", def("blitz", CondFastWin, 180), stats.OutcomeWin, fast, true},
		{"fast win over threshold", def("blitz", CondFastWin, 60), stats.OutcomeWin, fast, false},
		{"fast win requires a win", def("blitz", CondFastWin, 180), stats.OutcomeLoss, fast, false},
		{"long win over threshold", def("marathon", CondLongWin, 3600), stats.OutcomeWin, long, true},
		{"long win under threshold", def("marathon", CondLongWin, 3600), stats.OutcomeWin, fast, false},
		{"long win on a draw", def("marathon", CondLongWin, 3600), stats.OutcomeDraw, long, false},
	}
	for _, tt := range tests {
		unlocked, err := reg.Evaluate(context.Background(), []domain.Achievement{tt.d}, map[string]bool{}, evalCtx(player, tt.outcome, tt.match, nil))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := len(unlocked) == 1; got != tt.want {
			t.Errorf("%s: unlocked = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDailyStreak(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1"}
	d := def("daily-3", CondDailyStreak, 3)

	tests := []struct {
		name string
		days []string
		want bool
	}{
		{"three consecutive days", []string{"2026-09-01", "2026-08-31", "2026-08-30"}, true},
		{"gap breaks the run", []string{"2026-09-01", "2026-08-31", "2026-08-29"}, false},
		{"not enough days", []string{"2026-09-01", "2026-08-31"}, false},
		{"no matches", nil, false},
		{"longer run still qualifies", []string{"2026-09-01", "2026-08-31", "2026-08-30", "2026-08-29"}, true},
	}
	for _, tt := range tests {
		sc := &fakeScanner{days: tt.days}
		unlocked, err := reg.Evaluate(context.Background(), []domain.Achievement{d}, map[string]bool{}, evalCtx(player, stats.OutcomeWin, nil, sc))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := len(unlocked) == 1; got != tt.want {
			t.Errorf("%s: unlocked = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPerfectWeek(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1"}
	d := def("perfect", CondPerfectWeek, 5)

	tests := []struct {
		name        string
		total, wins int
		want        bool
	}{
		{"five wins no losses", 5, 5, true},
		{"six wins no losses", 6, 6, true},
		{"one non-win spoils it", 5, 4, false},
		{"too few matches", 4, 4, false},
	}
	for _, tt := range tests {
		sc := &fakeScanner{total: tt.total, wins: tt.wins}
		unlocked, err := reg.Evaluate(context.Background(), []domain.Achievement{d}, map[string]bool{}, evalCtx(player, stats.OutcomeWin, nil, sc))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := len(unlocked) == 1; got != tt.want {
			t.Errorf("%s: unlocked = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestComebackWins(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1"}
	d := def("giant-slayer", CondComebackWins, 10)

	for _, tt := range []struct {
		comebacks int
		want      bool
	}{{9, false}, {10, true}, {30, true}} {
		sc := &fakeScanner{comebacks: tt.comebacks}
		unlocked, err := reg.Evaluate(context.Background(), []domain.Achievement{d}, map[string]bool{}, evalCtx(player, stats.OutcomeWin, nil, sc))
		if err != nil {
			t.Fatalf("comebacks=%d: %v", tt.comebacks, err)
		}
		if got := len(unlocked) == 1; got != tt.want {
			t.Errorf("comebacks=%d: unlocked = %v, want %v", tt.comebacks, got, tt.want)
		}
	}
}

func TestUnknownConditionTypeIsNeverTrue(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	player := &domain.Player{ID: "p1", GamesWon: 100}

	defs := []domain.Achievement{
		def("mystery", "lunar_eclipse_win", 1),
		def("wins-10", CondTotalWins, 10),
	}
	unlocked, err := reg.Evaluate(context.Background(), defs, map[string]bool{}, evalCtx(player, stats.OutcomeWin, nil, nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "wins-10" {
		t.Errorf("unlocked = %+v, want only wins-10 (unknown kind must not block others)", unlocked)
	}
}

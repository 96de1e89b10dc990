package constants

import "time"

// Rating policy.
const (
	DefaultRating = 1200
	MinRating     = 100
	MaxRating     = 3000

	// RatingFloor protects established players from falling arbitrarily
	// low; it only applies once a player is out of provisional status.
	RatingFloor = 800

	ProvisionalGames = 30
	ExpertRating     = 2000

	KNewPlayer = 32
	KRegular   = 24
	KExpert    = 16
)

// Inactivity decay.
const (
	DecayThresholdDays = 90
	DecayDailyRate     = 0.005
)

// Confidence interval model: deviation shrinks with games played.
const (
	BaseDeviation   = 350.0
	DeviationZScore = 1.96
)

// Draw probability estimate used by win probabilities: the closer the
// matchup, the likelier a draw.
const MaxDrawProbability = 0.15

const (
	MinMatchDuration = 1
	MaxMatchDuration = 86400
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	NotifyTimeout   = 10 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	// LockAcquireTimeout bounds how long a match waits for a contended
	// player row before surfacing a concurrency error.
	LockAcquireTimeout = 5 * time.Second

	BusyRetryBase     = 50 * time.Millisecond
	BusyRetryAttempts = 5
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 200
)

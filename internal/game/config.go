package game

import (
	"context"
	"time"
)

// Config carries the tunables of a match. One Config is shared by every
// room the registry creates.
type Config struct {
	// StartDelay is the shared countdown between READY and the first serve.
	StartDelay time.Duration
	// RoundDelay is the pause between END_ROUND and the next serve.
	RoundDelay time.Duration
	// RoundsToWin ends the match; 3 gives the best-of-five format.
	RoundsToWin int
	// TickInterval is the simulation frame interval.
	TickInterval time.Duration
	// ResyncInterval caps how long clients go without a ball snapshot.
	ResyncInterval time.Duration
	Physics        Settings
}

func DefaultConfig() Config {
	return Config{
		StartDelay:     3 * time.Second,
		RoundDelay:     2 * time.Second,
		RoundsToWin:    3,
		TickInterval:   50 * time.Millisecond,
		ResyncInterval: time.Second,
		Physics:        DefaultSettings(),
	}
}

// Notifier receives match lifecycle notifications. Implementations must
// not block the caller; the room loop invokes these inline.
type Notifier interface {
	MatchStarted(ctx context.Context, matchID string, players [2]string)
	MatchEnded(ctx context.Context, matchID, winner string, score [2]int, reason string)
}

// NopNotifier is used when no event broker is configured.
type NopNotifier struct{}

func (NopNotifier) MatchStarted(ctx context.Context, matchID string, players [2]string) {}
func (NopNotifier) MatchEnded(ctx context.Context, matchID, winner string, score [2]int, reason string) {
}

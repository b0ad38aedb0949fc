package store

import "context"

// Status mirrors the lifecycle of a match room as it is persisted.
type Status string

const (
	StatusCreated Status = "CR" // room allocated, nobody connected
	StatusWaiting Status = "WA" // one participant connected
	StatusRunning Status = "RU" // both participants connected
	StatusP1Win   Status = "P1"
	StatusP2Win   Status = "P2"
	// StatusAbandoned is terminal with no winner: the room tore down
	// before pairing, or both participants were gone at once.
	StatusAbandoned Status = "AB"
)

// Recorder persists match room lifecycle changes. Recording is strictly
// best-effort: a failing recorder must never affect a running match, so
// callers log returned errors and move on.
type Recorder interface {
	MatchCreated(ctx context.Context, matchID, username string) error
	SetStatus(ctx context.Context, matchID string, status Status) error
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) MatchCreated(ctx context.Context, matchID, username string) error { return nil }
func (NopRecorder) SetStatus(ctx context.Context, matchID string, status Status) error {
	return nil
}

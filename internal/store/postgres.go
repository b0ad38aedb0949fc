package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq" // Used for handling specific PostgreSQL errors
)

var ErrRoomExists = errors.New("game room already recorded")

type postgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder returns a Recorder backed by the game_rooms table.
func NewPostgresRecorder(db *sql.DB) Recorder {
	return &postgresRecorder{db: db}
}

// MatchCreated inserts the room row when the ticket is issued.
func (r *postgresRecorder) MatchCreated(ctx context.Context, matchID, username string) error {
	query := `
		INSERT INTO game_rooms (id, created_by, status)
		VALUES ($1, $2, $3);`

	_, err := r.db.ExecContext(ctx, query, matchID, username, StatusCreated)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			slog.Warn("Game room already recorded", "matchID", matchID)
			return ErrRoomExists
		}
		slog.Error("Failed to record game room", "matchID", matchID, "error", err)
		return err
	}
	return nil
}

// SetStatus advances the persisted room status.
func (r *postgresRecorder) SetStatus(ctx context.Context, matchID string, status Status) error {
	query := `
		UPDATE game_rooms
		SET status = $2, updated_at = now()
		WHERE id = $1;`

	res, err := r.db.ExecContext(ctx, query, matchID, status)
	if err != nil {
		slog.Error("Failed to update game room status", "matchID", matchID, "status", status, "error", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Warn("No game room row to update", "matchID", matchID, "status", status)
	}
	return nil
}

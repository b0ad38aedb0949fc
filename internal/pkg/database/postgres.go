package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const connectTimeout = 5 * time.Second

// NewPostgresDB opens the connection pool backing the match room store
// and verifies connectivity before returning it. Match recording is
// optional, so a misconfigured database surfaces here, at boot, rather
// than mid-match.
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

package database

import (
	"context"
	"fmt"

	"github.com/yourusername/fantasy-grid/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id               UUID PRIMARY KEY,
	event            TEXT NOT NULL,
	total_laps       INTEGER NOT NULL,
	rain_probability DOUBLE PRECISION NOT NULL,
	iterations       INTEGER NOT NULL,
	seed             BIGINT NOT NULL,
	weather          TEXT NOT NULL,
	weather_counts   JSONB NOT NULL DEFAULT '{}',
	forecasts        JSONB NOT NULL,
	trace            JSONB,
	duration_ms      BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_predictions_event_created
	ON predictions (event, created_at DESC);
`

// Initialize creates a database connection pool and makes sure the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the predictions table and its index if missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

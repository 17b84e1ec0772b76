package exclusion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the part of *pgxpool.Pool the store uses
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps records in the feature_exclusions table
type PostgresStore struct {
	db querier
}

// NewPostgresStore creates a postgres-backed store
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS feature_exclusions (
			key         TEXT PRIMARY KEY,
			source_file TEXT NOT NULL,
			exclusions  JSONB NOT NULL DEFAULT '[]'::jsonb,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create feature_exclusions: %w", err)
	}
	return nil
}

// Get reads the record for key
func (s *PostgresStore) Get(ctx context.Context, key string) (Record, error) {
	query := `
		SELECT source_file, exclusions
		FROM feature_exclusions
		WHERE key = $1
	`

	var rec Record
	var exclusionsJSON []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&rec.SourceFile, &exclusionsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get exclusions: %w", err)
	}

	if err := json.Unmarshal(exclusionsJSON, &rec.Exclusions); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal exclusions: %w", err)
	}
	return rec, nil
}

// Put upserts the record
func (s *PostgresStore) Put(ctx context.Context, key string, rec Record) error {
	exclusionsJSON, err := json.Marshal(rec.Exclusions)
	if err != nil {
		return fmt.Errorf("failed to marshal exclusions: %w", err)
	}

	query := `
		INSERT INTO feature_exclusions (key, source_file, exclusions, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			source_file = EXCLUDED.source_file,
			exclusions = EXCLUDED.exclusions,
			updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, key, rec.SourceFile, exclusionsJSON); err != nil {
		return fmt.Errorf("failed to save exclusions: %w", err)
	}
	return nil
}

// Delete removes the record
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM feature_exclusions WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete exclusions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Package usage persists per-request token accounting reported by providers.
// It stores token counters only, never message content.
package usage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store handles persistence of usage records.
// It implements gateway.Recorder.
type Store struct {
	db *sql.DB
}

// Summary aggregates token usage per provider and model.
type Summary struct {
	Provider         string
	Model            string
	Requests         int64
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Open opens (creating if needed) the SQLite database at path and applies
// pending migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database %s: %w", path, err)
	}

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. The caller is responsible for
// migrations; Open is the usual entry point.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record implements gateway.Recorder.
func (s *Store) Record(ctx context.Context, rec gateway.UsageRecord) error {
	occurredAt := rec.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	query := sq.Insert("usage_records").
		Columns("provider", "model", "operation", "prompt_tokens", "completion_tokens", "total_tokens", "occurred_at").
		Values(rec.Provider, rec.Model, rec.Operation,
			rec.Tokens.PromptTokens, rec.Tokens.CompletionTokens, rec.Tokens.TotalTokens,
			occurredAt.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// Summarize aggregates usage per provider and model since the given time.
// A zero since covers everything.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	query := sq.Select(
		"provider",
		"model",
		"COUNT(*)",
		"SUM(prompt_tokens)",
		"SUM(completion_tokens)",
		"SUM(total_tokens)",
	).
		From("usage_records").
		GroupBy("provider", "model").
		OrderBy("provider", "model")

	if !since.IsZero() {
		query = query.Where(sq.GtOrEq{"occurred_at": since.Unix()})
	}

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Provider, &sum.Model, &sum.Requests,
			&sum.PromptTokens, &sum.CompletionTokens, &sum.TotalTokens); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations applies all pending embedded migrations.
func runMigrations(db *sql.DB, logger zerolog.Logger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Debug().Msg("Usage database migrations applied")
	return nil
}

// Ensure Store implements gateway.Recorder
var _ gateway.Recorder = (*Store)(nil)

// Package metadata: versioned schema migration support, grounded on
// cartographus's internal/database/migrations.go runner shape. The
// initial schema (creators/videos/fingerprints/live_ingest_state) is
// created directly by Init; this file exists for post-v1 changes so
// later additions don't need a second migration mechanism bolted on.
package metadata

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Migration is a versioned, append-only schema change.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	applied_at  TIMESTAMP NOT NULL
);`

// getMigrations returns all versioned migrations in order. Empty for
// now: the schema this repo ships with is created directly by Init.
// Add new migrations here starting at version 1 when the schema needs
// to change after data already exists.
func (s *Store) getMigrations() []Migration {
	return []Migration{}
}

func (s *Store) createMigrationsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaMigrationsTable)
	return wrapDBErr(err)
}

func (s *Store) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version;`)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, wrapDBErr(err)
		}
		applied[m.Version] = m
	}
	return applied, wrapDBErr(rows.Err())
}

// runVersionedMigrations applies any migration not yet recorded in
// schema_migrations, in version order.
func (s *Store) runVersionedMigrations(ctx context.Context) error {
	if err := s.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	for _, m := range s.getMigrations() {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, wrapDBErr(err))
		}
		const insert = `INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?);`
		if _, err := s.db.ExecContext(ctx, insert, m.Version, m.Name, m.Description, time.Now().UTC()); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, wrapDBErr(err))
		}
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration
// version, or 0 if none have run.
func (s *Store) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	applied, err := s.getAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}
	max := 0
	for v := range applied {
		if v > max {
			max = v
		}
	}
	return max, nil
}

// GetMigrationHistory returns all applied migrations in version order.
func (s *Store) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	applied, err := s.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(applied))
	for _, m := range applied {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

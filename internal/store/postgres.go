// Package store persists run records so the job layer can poll run state
// after the request that started it has returned.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxIface interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// PostgresStore implements harvest.RunStore on a runs table.
type PostgresStore struct {
	pool  pgxIface
	table string
}

// NewPostgresStore connects a pool from the config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStoreWithPool(pool, cfg.Table)
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool pgxIface, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateRun inserts a new run row.
func (s *PostgresStore) CreateRun(ctx context.Context, rec harvest.RunRecord) error {
	stats, err := json.Marshal(rec.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s
		(id, query_text, state, degraded, item_count, statistics, artifact_uri, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.QueryText, string(rec.State), rec.Degraded, rec.ItemCount,
		stats, rec.ArtifactURI, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// UpdateRun rewrites the mutable columns of an existing row.
func (s *PostgresStore) UpdateRun(ctx context.Context, rec harvest.RunRecord) error {
	stats, err := json.Marshal(rec.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET
		state = $2, degraded = $3, item_count = $4, statistics = $5,
		artifact_uri = $6, finished_at = $7
		WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.State), rec.Degraded, rec.ItemCount,
		stats, rec.ArtifactURI, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("update run %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update run %s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

// GetRun loads one run row.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (harvest.RunRecord, error) {
	query := fmt.Sprintf(`SELECT id, query_text, state, degraded, item_count,
		statistics, artifact_uri, started_at, finished_at
		FROM %s WHERE id = $1`, s.table)

	var rec harvest.RunRecord
	var state string
	var stats []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.QueryText, &state, &rec.Degraded, &rec.ItemCount,
		&stats, &rec.ArtifactURI, &rec.StartedAt, &rec.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return harvest.RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return harvest.RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	rec.State = harvest.RunState(state)
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &rec.Statistics); err != nil {
			return harvest.RunRecord{}, fmt.Errorf("unmarshal statistics: %w", err)
		}
	}
	return rec, nil
}

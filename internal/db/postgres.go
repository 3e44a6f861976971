// Package db persists the sweep audit log and pool health snapshots (one
// per pool health request) spec.md §4.J / SPEC_FULL.md describe, adapted from the
// teacher's PostgresStore (connection-pool lifecycle, pgx usage) but
// re-pointed at this repo's own schema instead of the forensics tables.
package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/privacypool/pkg/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for privacy pool audit store")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes the schema.sql file.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}

	_, err = s.pool.Exec(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Privacy pool audit schema initialized")
	return nil
}

// SaveSweepResult persists one deposit-batch or withdrawal sweep outcome,
// the audit trail SweepHistory reads back for GET /api/v1/pools/:id/sweeps.
func (s *PostgresStore) SaveSweepResult(ctx context.Context, result models.SweepResult) error {
	sql := `
		INSERT INTO sweep_audit_log
			(kind, pool_id, tx_id, batch_size, ring_before, ring_after, value_before, value_after, dry_run, error)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
	`
	_, err := s.pool.Exec(ctx, sql,
		string(result.Kind), result.PoolID, result.TxID, result.BatchSize,
		result.RingBefore, result.RingAfter, result.ValueBefore, result.ValueAfter,
		result.DryRun, result.Err,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sweep_audit_log: %v", err)
	}
	return nil
}

// SweepHistory returns the most recent sweeps for poolID, newest first.
func (s *PostgresStore) SweepHistory(ctx context.Context, poolID string, limit int) ([]models.SweepResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	sql := `
		SELECT kind, pool_id, COALESCE(tx_id, ''), batch_size, ring_before, ring_after,
		       value_before, value_after, dry_run, COALESCE(error, '')
		FROM sweep_audit_log
		WHERE pool_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, sql, poolID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SweepResult
	for rows.Next() {
		var r models.SweepResult
		var kind string
		if err := rows.Scan(&kind, &r.PoolID, &r.TxID, &r.BatchSize, &r.RingBefore, &r.RingAfter,
			&r.ValueBefore, &r.ValueAfter, &r.DryRun, &r.Err); err != nil {
			return nil, err
		}
		r.Kind = models.DraftKind(kind)
		out = append(out, r)
	}
	if out == nil {
		out = []models.SweepResult{}
	}
	return out, nil
}

// SavePoolSnapshot records a point-in-time health reading for poolID,
// feeding historical trend queries over a pool's risk-flag evolution.
func (s *PostgresStore) SavePoolSnapshot(ctx context.Context, report models.HealthReport) error {
	sql := `
		INSERT INTO pool_snapshots
			(pool_id, denomination, ring_size, unique_key_count, nullifier_count, token_balance, risk_flags, score, raw_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, sql,
		report.PoolID, report.Denomination, report.RingSize, report.EffectiveAnonymity,
		report.NullifierCount, report.TokenBalance, report.RiskFlags, string(report.Score), report.RawScore,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool_snapshots: %v", err)
	}
	return nil
}

// GetPool exposes the connection pool for subsystems that need raw access
// (e.g. a future migration tool).
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}

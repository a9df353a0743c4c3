package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// MetricsStore holds the raw analysis signals evidence adapters read:
// one value per (claim, source) pair, written by upstream analyzers.
// The engine only reads it; Put exists for ingestion tooling and tests.
// Thread-safety: all methods are safe for concurrent use.
type MetricsStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenMetricsStore opens (and migrates) the metrics database.
func OpenMetricsStore(path string) (*MetricsStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	s := &MetricsStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create metric tables: %w", err)
	}
	return s, nil
}

func (s *MetricsStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metrics (
		claim_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		value REAL NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (claim_id, source_type)
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_claim ON metrics(claim_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *MetricsStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *MetricsStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Lookup returns the raw value for (claimID, source). The second return
// is false when the signal is absent — absence is normal, not an error.
func (s *MetricsStore) Lookup(ctx context.Context, claimID string, source claim.SourceType) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v float64
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM metrics WHERE claim_id = ? AND source_type = ?
	`, claimID, string(source)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(err)
	}
	return v, true, nil
}

// Put upserts a metric value.
func (s *MetricsStore) Put(ctx context.Context, claimID string, source claim.SourceType, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (claim_id, source_type, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(claim_id, source_type) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, claimID, string(source), value, time.Now())
	return classify(err)
}

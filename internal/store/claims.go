// Package store provides the two embedded SQLite databases behind the
// grounding engine: the claim store (confidence parameters, feedback
// log, verdict history, causal edges) and the metrics store (the raw
// analysis signals evidence adapters read).
//
// The two databases evolve independently and are never written inside
// a single transaction; callers read from one store and release before
// writing to the other. Write contention (SQLITE_BUSY) surfaces as
// ErrContention so the resilience layer can retry with backoff.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fyrsmithlabs/groundd/internal/claim"
)

// ErrContention marks transient write contention on an embedded store.
// Callers retry writes with bounded backoff; reads fail fast.
var ErrContention = errors.New("store contention")

// ClaimStore persists everything the engine owns about claims.
// Thread-safety: all methods are safe for concurrent use.
type ClaimStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenClaimStore opens (and migrates) the claims database.
// Uses WAL mode for file-based databases; ":memory:" is wired for
// single-connection shared-cache use in tests.
func OpenClaimStore(path string) (*ClaimStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	s := &ClaimStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create claim tables: %w", err)
	}
	return s, nil
}

func (s *ClaimStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		claim_type TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		last_grounded_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS confidence_params (
		claim_id TEXT PRIMARY KEY,
		alpha REAL NOT NULL,
		beta REAL NOT NULL,
		static_default REAL NOT NULL,
		last_updated DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback_log (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS verdict_history (
		claim_id TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score REAL NOT NULL,
		checked_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS causal_edges (
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		relation TEXT NOT NULL,
		strength REAL NOT NULL,
		evidence_note TEXT,
		PRIMARY KEY (source_id, target_id, relation)
	);

	CREATE TABLE IF NOT EXISTS contradictions (
		claim_id TEXT NOT NULL,
		note TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_claim ON feedback_log(claim_id);
	CREATE INDEX IF NOT EXISTS idx_verdicts_claim ON verdict_history(claim_id, checked_at);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON causal_edges(source_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *ClaimStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *ClaimStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListClaimIDs returns all known claim IDs, ordered for determinism.
func (s *ClaimStore) ListClaimIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM claims ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertClaim inserts or refreshes a claim row.
func (s *ClaimStore) UpsertClaim(ctx context.Context, c *claim.Claim) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, claim_type, created_at, last_grounded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET claim_type = excluded.claim_type
	`, c.ID, string(c.Type), c.CreatedAt, nullTime(c.LastGroundedAt))
	return classify(err)
}

// GetClaim retrieves a claim by ID.
func (s *ClaimStore) GetClaim(ctx context.Context, id string) (*claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c claim.Claim
	var claimType string
	var grounded sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, claim_type, created_at, last_grounded_at FROM claims WHERE id = ?
	`, id).Scan(&c.ID, &claimType, &c.CreatedAt, &grounded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, claim.ErrClaimNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	c.Type = claim.Type(claimType)
	if grounded.Valid {
		c.LastGroundedAt = grounded.Time
	}
	return &c, nil
}

// TouchGrounded stamps a claim's last grounding time.
func (s *ClaimStore) TouchGrounded(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET last_grounded_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return claim.ErrClaimNotFound
	}
	return nil
}

// GetParams reads a claim's confidence parameters. Returns
// claim.ErrClaimNotFound when no row exists; the ledger seeds the
// uniform prior on first write.
func (s *ClaimStore) GetParams(ctx context.Context, claimID string) (*claim.ConfidenceParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p claim.ConfidenceParams
	err := s.db.QueryRowContext(ctx, `
		SELECT claim_id, alpha, beta, static_default, last_updated
		FROM confidence_params WHERE claim_id = ?
	`, claimID).Scan(&p.ClaimID, &p.Alpha, &p.Beta, &p.StaticDefault, &p.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, claim.ErrClaimNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

// PutParams writes a claim's confidence parameters.
func (s *ClaimStore) PutParams(ctx context.Context, p *claim.ConfidenceParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confidence_params (claim_id, alpha, beta, static_default, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(claim_id) DO UPDATE SET
			alpha = excluded.alpha,
			beta = excluded.beta,
			static_default = excluded.static_default,
			last_updated = excluded.last_updated
	`, p.ClaimID, p.Alpha, p.Beta, p.StaticDefault, p.LastUpdated)
	return classify(err)
}

// AppendFeedback appends one record to the append-only feedback log.
func (s *ClaimStore) AppendFeedback(ctx context.Context, rec *claim.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_log (id, claim_id, action, actor, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.ClaimID, string(rec.Action), rec.Actor, rec.Timestamp)
	return classify(err)
}

// ListFeedback returns a claim's feedback records in insertion order.
func (s *ClaimStore) ListFeedback(ctx context.Context, claimID string) ([]claim.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, action, actor, created_at
		FROM feedback_log WHERE claim_id = ? ORDER BY created_at
	`, claimID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var recs []claim.FeedbackRecord
	for rows.Next() {
		var r claim.FeedbackRecord
		var action string
		if err := rows.Scan(&r.ID, &r.ClaimID, &action, &r.Actor, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Action = claim.FeedbackAction(action)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// AppendVerdict appends one entry to a claim's verdict history.
func (s *ClaimStore) AppendVerdict(ctx context.Context, e *claim.VerdictEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verdict_history (claim_id, verdict, score, checked_at)
		VALUES (?, ?, ?, ?)
	`, e.ClaimID, string(e.Verdict), e.Score, e.CheckedAt)
	return classify(err)
}

// VerdictHistory returns a claim's verdicts in wall-clock order.
func (s *ClaimStore) VerdictHistory(ctx context.Context, claimID string) ([]claim.VerdictEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT claim_id, verdict, score, checked_at
		FROM verdict_history WHERE claim_id = ? ORDER BY checked_at
	`, claimID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var entries []claim.VerdictEntry
	for rows.Next() {
		var e claim.VerdictEntry
		var verdict string
		if err := rows.Scan(&e.ClaimID, &verdict, &e.Score, &e.CheckedAt); err != nil {
			return nil, err
		}
		e.Verdict = claim.Verdict(verdict)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PersistEdge upserts a causal edge row.
func (s *ClaimStore) PersistEdge(ctx context.Context, e *claim.CausalEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO causal_edges (source_id, target_id, relation, strength, evidence_note)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, relation) DO UPDATE SET
			strength = excluded.strength,
			evidence_note = excluded.evidence_note
	`, e.SourceID, e.TargetID, string(e.Relation), e.Strength, e.EvidenceNote)
	return classify(err)
}

// RemoveEdge deletes a causal edge row.
func (s *ClaimStore) RemoveEdge(ctx context.Context, sourceID, targetID string, relation claim.CausalRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM causal_edges WHERE source_id = ? AND target_id = ? AND relation = ?
	`, sourceID, targetID, string(relation))
	return classify(err)
}

// LoadEdges returns every persisted causal edge, for graph hydration
// at startup.
func (s *ClaimStore) LoadEdges(ctx context.Context) ([]claim.CausalEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, target_id, relation, strength, evidence_note FROM causal_edges
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var edges []claim.CausalEdge
	for rows.Next() {
		var e claim.CausalEdge
		var relation string
		var note sql.NullString
		if err := rows.Scan(&e.SourceID, &e.TargetID, &relation, &e.Strength, &note); err != nil {
			return nil, err
		}
		e.Relation = claim.CausalRelation(relation)
		e.EvidenceNote = note.String
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AppendContradiction records a contradiction event for a claim.
func (s *ClaimStore) AppendContradiction(ctx context.Context, claimID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contradictions (claim_id, note, created_at) VALUES (?, ?, ?)
	`, claimID, note, time.Now())
	return classify(err)
}

// CountContradictions returns the number of recorded contradictions
// for a claim.
func (s *ClaimStore) CountContradictions(ctx context.Context, claimID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contradictions WHERE claim_id = ?`, claimID).Scan(&n)
	return n, classify(err)
}

// openSQLite opens a database with the WAL/:memory: conventions shared
// by both stores.
func openSQLite(path string) (*sql.DB, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	return db, nil
}

// classify maps SQLite busy/locked errors to ErrContention and passes
// everything else through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return fmt.Errorf("%w: %v", ErrContention, err)
	}
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

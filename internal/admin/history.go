package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO

	"github.com/aman-cerp/fdblayer/internal/entity"
)

// HistoryStore persists query-plan explain traces and index build
// history to a small SQLite database. The `explain` and `rebuild-index`
// CLI commands write to it; RecentExplains and RecentBuilds read it back,
// and no CLI command prints it. WAL mode and a
// single-writer connection pool keep concurrent writers from corrupting
// the database under load.
type HistoryStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenHistoryStore opens (creating if necessary) the SQLite database at
// path. An empty path opens an in-memory database, for tests.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	dsn := ":memory:"
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history store directory: %w", err)
			}
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	h := &HistoryStore{db: db}
	if err := h.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *HistoryStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS explain_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_type TEXT NOT NULL,
		query_signature TEXT NOT NULL,
		plan_description TEXT NOT NULL,
		estimated_cost REAL NOT NULL,
		recorded_at_version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS build_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		index_name TEXT NOT NULL,
		status TEXT NOT NULL,
		records_processed INTEGER NOT NULL,
		built_through_version INTEGER NOT NULL,
		error TEXT
	);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Close releases the underlying database connection.
func (h *HistoryStore) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}

// ExplainRecord is one row of explain history: a plan decision made for
// one query shape, as the `explain` CLI command records it.
type ExplainRecord struct {
	EntityType         entity.TypeName
	QuerySignature     string
	PlanDescription    string
	EstimatedCost      float64
	RecordedAtVersion  uint64
}

// RecordExplain appends one explain trace.
func (h *HistoryStore) RecordExplain(ctx context.Context, rec ExplainRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO explain_history (entity_type, query_signature, plan_description, estimated_cost, recorded_at_version)
		 VALUES (?, ?, ?, ?, ?)`,
		string(rec.EntityType), rec.QuerySignature, rec.PlanDescription, rec.EstimatedCost, rec.RecordedAtVersion)
	return err
}

// RecentExplains returns up to limit most recent explain records for
// entityType, newest first.
func (h *HistoryStore) RecentExplains(ctx context.Context, entityType entity.TypeName, limit int) ([]ExplainRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rows, err := h.db.QueryContext(ctx,
		`SELECT entity_type, query_signature, plan_description, estimated_cost, recorded_at_version
		 FROM explain_history WHERE entity_type = ? ORDER BY id DESC LIMIT ?`,
		string(entityType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExplainRecord
	for rows.Next() {
		var rec ExplainRecord
		var typeName string
		if err := rows.Scan(&typeName, &rec.QuerySignature, &rec.PlanDescription, &rec.EstimatedCost, &rec.RecordedAtVersion); err != nil {
			return nil, err
		}
		rec.EntityType = entity.TypeName(typeName)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BuildRecord is one row of index build history: the outcome of one
// rebuild attempt, as the `rebuild-index` CLI command records it.
type BuildRecord struct {
	IndexName           entity.IndexDescriptorName
	Status              entity.IndexStatus
	RecordsProcessed    int
	BuiltThroughVersion uint64
	Err                 string
}

// RecordBuild appends one build history entry.
func (h *HistoryStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO build_history (index_name, status, records_processed, built_through_version, error)
		 VALUES (?, ?, ?, ?, ?)`,
		string(rec.IndexName), string(rec.Status), rec.RecordsProcessed, rec.BuiltThroughVersion, nullIfEmpty(rec.Err))
	return err
}

// RecentBuilds returns up to limit most recent build records for
// indexName, newest first.
func (h *HistoryStore) RecentBuilds(ctx context.Context, indexName entity.IndexDescriptorName, limit int) ([]BuildRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rows, err := h.db.QueryContext(ctx,
		`SELECT index_name, status, records_processed, built_through_version, COALESCE(error, '')
		 FROM build_history WHERE index_name = ? ORDER BY id DESC LIMIT ?`,
		string(indexName), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var indexName, status string
		if err := rows.Scan(&indexName, &status, &rec.RecordsProcessed, &rec.BuiltThroughVersion, &rec.Err); err != nil {
			return nil, err
		}
		rec.IndexName = entity.IndexDescriptorName(indexName)
		rec.Status = entity.IndexStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

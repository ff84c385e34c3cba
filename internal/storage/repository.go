package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/gqlnodes/pkg/nodequery"
)

// Run is one generation pass against one endpoint.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Endpoint    string    `json:"endpoint" yaml:"endpoint"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	QueryDepth  int       `json:"queryDepth" yaml:"queryDepth"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`

	Result nodequery.Result `json:"result" yaml:"result"`
}

// Repository handles database operations for runs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveRun stores run and its bundles in one transaction. An empty ID is
// filled with a fresh UUID and a zero CreatedAt with the current time.
func (r *Repository) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	fetched, err := json.Marshal(nonNil(run.Result.FetchedTypes))
	if err != nil {
		return fmt.Errorf("failed to encode fetched types: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, endpoint, fingerprint, query_depth, fetched_types, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Endpoint, run.Fingerprint, run.QueryDepth, string(fetched), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for plural, b := range run.Result.Bundles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bundles (run_id, plural_name, singular_name, nodes_type_name, list_query, item_query, selection_set, exclude, node_interface)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, plural, b.TypeInfo.SingularName, b.TypeInfo.NodesTypeName,
			b.ListQuery, b.ItemQuery, b.SelectionSet, b.Settings.Exclude, b.Settings.NodeInterface)
		if err != nil {
			return fmt.Errorf("failed to store bundle %s: %w", plural, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run and its bundles by ID. It returns nil when the run
// does not exist.
func (r *Repository) GetRun(ctx context.Context, id string) (*Run, error) {
	return r.scanRun(ctx, r.db.QueryRowContext(ctx, `
		SELECT id, endpoint, fingerprint, query_depth, fetched_types, created_at
		FROM runs WHERE id = ?
	`, id))
}

// LatestRun retrieves the most recently saved run, or nil when there is
// none.
func (r *Repository) LatestRun(ctx context.Context) (*Run, error) {
	return r.scanRun(ctx, r.db.QueryRowContext(ctx, `
		SELECT id, endpoint, fingerprint, query_depth, fetched_types, created_at
		FROM runs ORDER BY rowid DESC LIMIT 1
	`))
}

// LatestRunWithFingerprint retrieves the most recent run made against a
// schema with the given fingerprint, or nil.
func (r *Repository) LatestRunWithFingerprint(ctx context.Context, fingerprint string) (*Run, error) {
	return r.scanRun(ctx, r.db.QueryRowContext(ctx, `
		SELECT id, endpoint, fingerprint, query_depth, fetched_types, created_at
		FROM runs WHERE fingerprint = ? ORDER BY rowid DESC LIMIT 1
	`, fingerprint))
}

func (r *Repository) scanRun(ctx context.Context, row *sql.Row) (*Run, error) {
	run := &Run{}
	var fetched string
	err := row.Scan(&run.ID, &run.Endpoint, &run.Fingerprint, &run.QueryDepth, &fetched, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal([]byte(fetched), &run.Result.FetchedTypes); err != nil {
		return nil, fmt.Errorf("failed to decode fetched types of run %s: %w", run.ID, err)
	}

	run.Result.Bundles, err = r.Bundles(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Bundles returns the bundles of a run keyed by plural root field name.
func (r *Repository) Bundles(ctx context.Context, runID string) (map[string]nodequery.QueryBundle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT plural_name, singular_name, nodes_type_name, list_query, item_query, selection_set, exclude, node_interface
		FROM bundles WHERE run_id = ? ORDER BY plural_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	defer rows.Close()

	bundles := make(map[string]nodequery.QueryBundle)
	for rows.Next() {
		var b nodequery.QueryBundle
		if err := rows.Scan(
			&b.TypeInfo.PluralName, &b.TypeInfo.SingularName, &b.TypeInfo.NodesTypeName,
			&b.ListQuery, &b.ItemQuery, &b.SelectionSet,
			&b.Settings.Exclude, &b.Settings.NodeInterface,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bundle: %w", err)
		}
		bundles[b.TypeInfo.PluralName] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	return bundles, nil
}

// RunSummary is a run without its bundles.
type RunSummary struct {
	ID          string    `json:"id" yaml:"id"`
	Endpoint    string    `json:"endpoint" yaml:"endpoint"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Bundles     int       `json:"bundles" yaml:"bundles"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// ListRuns returns the newest runs first, at most limit of them.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.endpoint, r.fingerprint, r.created_at, COUNT(b.plural_name)
		FROM runs r LEFT JOIN bundles b ON b.run_id = r.id
		GROUP BY r.id ORDER BY r.rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.Fingerprint, &s.CreatedAt, &s.Bundles); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its bundles.
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// PluralNames returns the keys of bundles in sorted order.
func PluralNames(bundles map[string]nodequery.QueryBundle) []string {
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

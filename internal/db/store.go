package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/partforge/partforge/internal/model"
)

// Store persists builds, iteration history, and provenance.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateBuild inserts the build record in the running state.
func (s *Store) CreateBuild(ctx context.Context, buildID, topo string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO builds(build_id, created_at, topology, status) VALUES(?, ?, ?, ?)`,
		buildID, createdAt, topo, "running"); err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// FinishBuild records the terminal outcome and the rendered report.
func (s *Store) FinishBuild(ctx context.Context, result model.BuildResult, reportMD string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish build: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE builds SET status=?, outcome=?, iterations=?, asset_path=?, report_md=? WHERE build_id=?`,
		"finished", string(result.Outcome), result.Iterations, result.AssetPath, reportMD, result.BuildID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update build: %w", err)
	}
	for _, rec := range result.History {
		if err := insertIteration(ctx, tx, result.BuildID, rec); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish build: %w", err)
	}
	return nil
}

func insertIteration(ctx context.Context, tx *sql.Tx, buildID string, rec model.IterationRecord) error {
	numeric, err := marshalNullable(rec.Numeric)
	if err != nil {
		return err
	}
	geometric, err := marshalNullable(rec.Geometric)
	if err != nil {
		return err
	}
	var directives, resErrs []byte
	if len(rec.Applied) > 0 {
		if directives, err = json.Marshal(rec.Applied); err != nil {
			return fmt.Errorf("marshal directives: %w", err)
		}
	}
	if len(rec.Errors) > 0 {
		if resErrs, err = json.Marshal(rec.Errors); err != nil {
			return fmt.Errorf("marshal resolution errors: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO iterations(build_id, iteration, numeric_json, geometric_json, directives_json, errors_json, diagnosis)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		buildID, rec.Iteration, nullable(numeric), nullable(geometric), nullable(directives), nullable(resErrs), rec.Diagnosis); err != nil {
		return fmt.Errorf("insert iteration %d: %w", rec.Iteration, err)
	}
	return nil
}

// ProvenanceWriter adapts the store to the sourcing engine's appender
// for one build. Appends are serialized by the database handle, so
// concurrent use from engine workers is safe.
type ProvenanceWriter struct {
	store   *Store
	buildID string
}

// Provenance returns an appender scoped to one build.
func (s *Store) Provenance(buildID string) *ProvenanceWriter {
	return &ProvenanceWriter{store: s, buildID: buildID}
}

// Append writes one provenance record.
func (w *ProvenanceWriter) Append(ctx context.Context, entry model.ProvenanceEntry) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := w.store.db.ExecContext(ctx,
		`INSERT INTO provenance(build_id, created_at, category, query, identity) VALUES(?, ?, ?, ?, ?)`,
		w.buildID, createdAt, string(entry.Category), entry.Query, entry.Identity); err != nil {
		return fmt.Errorf("append provenance: %w", err)
	}
	return nil
}

// BuildRow is one row of the build listing.
type BuildRow struct {
	BuildID    string
	CreatedAt  string
	Topology   string
	Status     string
	Outcome    string
	Iterations int
}

// ListBuilds returns builds newest first.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]BuildRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, created_at, topology, status, COALESCE(outcome, ''), iterations
		FROM builds ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRow
	for rows.Next() {
		var r BuildRow
		if err := rows.Scan(&r.BuildID, &r.CreatedAt, &r.Topology, &r.Status, &r.Outcome, &r.Iterations); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BuildReport returns the stored report markdown for a build.
func (s *Store) BuildReport(ctx context.Context, buildID string) (string, error) {
	var md sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT report_md FROM builds WHERE build_id=?`, buildID).Scan(&md)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("build %s not found", buildID)
	}
	if err != nil {
		return "", fmt.Errorf("get build report: %w", err)
	}
	if !md.Valid || md.String == "" {
		return "", fmt.Errorf("build %s has no report", buildID)
	}
	return md.String, nil
}

func marshalNullable(v *model.ValidationReport) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func nullable(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

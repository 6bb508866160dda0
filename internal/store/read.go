package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/roach88/hostval/internal/ir"
)

// RunRecord is a stored run summary.
type RunRecord struct {
	ID         string         `json:"id"`
	Property   string         `json:"property"`
	Seed       int            `json:"seed"`
	Cases      int            `json:"cases"`
	Checked    int            `json:"checked"`
	Passed     int            `json:"passed"`
	Skipped    map[string]int `json:"skipped"`
	Pass       bool           `json:"pass"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// DefectRecord is a stored defect. Digests are empty when the operand never
// reached structured form.
type DefectRecord struct {
	ID          int64             `json:"id"`
	RunID       string            `json:"run_id"`
	Property    string            `json:"property"`
	Case        int               `json:"case"`
	Check       string            `json:"check"`
	Message     string            `json:"message"`
	Left        string            `json:"left"`
	Right       string            `json:"right"`
	LeftDigest  digest.Digest     `json:"left_digest,omitempty"`
	RightDigest digest.Digest     `json:"right_digest,omitempty"`
	Orderings   map[string]string `json:"orderings,omitempty"`
	Cause       string            `json:"cause,omitempty"`
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const runColumns = `id, property, seed, cases, checked, passed, skipped, pass, started_at, finished_at`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every run in start order.
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		run               RunRecord
		skipped           string
		started, finished string
	)
	err := row.Scan(
		&run.ID,
		&run.Property,
		&run.Seed,
		&run.Cases,
		&run.Checked,
		&run.Passed,
		&skipped,
		&run.Pass,
		&started,
		&finished,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	if run.Skipped, err = unmarshalCounts(skipped); err != nil {
		return RunRecord{}, err
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return RunRecord{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

// ReadDefects returns the defects of one run, or of every run when runID is
// empty, ordered by run start, then case.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadDefects(ctx context.Context, runID string) ([]DefectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.run_id, r.property, d.case_index, d.check_name, d.message,
		       d.left_val, d.right_val, d.left_digest, d.right_digest, d.orderings, d.cause
		FROM defects d
		JOIN runs r ON d.run_id = r.id
		WHERE ? = '' OR d.run_id = ?
		ORDER BY r.started_at ASC, d.run_id COLLATE BINARY ASC, d.case_index ASC
	`, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query defects: %w", err)
	}
	defer rows.Close()

	defects := []DefectRecord{}
	for rows.Next() {
		d, err := scanDefect(rows)
		if err != nil {
			return nil, err
		}
		defects = append(defects, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate defects: %w", err)
	}
	return defects, nil
}

func scanDefect(row rowScanner) (DefectRecord, error) {
	var (
		d                       DefectRecord
		leftDigest, rightDigest sql.NullString
		orderings               string
	)
	err := row.Scan(
		&d.ID,
		&d.RunID,
		&d.Property,
		&d.Case,
		&d.Check,
		&d.Message,
		&d.Left,
		&d.Right,
		&leftDigest,
		&rightDigest,
		&orderings,
		&d.Cause,
	)
	if err != nil {
		return DefectRecord{}, fmt.Errorf("scan defect: %w", err)
	}

	d.LeftDigest = digest.Digest(leftDigest.String)
	d.RightDigest = digest.Digest(rightDigest.String)
	if d.Orderings, err = unmarshalOrderings(orderings); err != nil {
		return DefectRecord{}, err
	}
	return d, nil
}

// ReadValue retrieves a structured value by digest and verifies that it
// still hashes to that digest.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadValue(ctx context.Context, d digest.Digest) (ir.Value, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}

	var canonical string
	err := s.db.QueryRowContext(ctx, `SELECT canonical FROM vals WHERE digest = ?`, d.String()).Scan(&canonical)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("read value: %w", err)
	}

	v, err := ir.UnmarshalCanonical([]byte(canonical))
	if err != nil {
		return nil, fmt.Errorf("read value %s: %w", d, err)
	}
	got, err := ir.Digest(v)
	if err != nil {
		return nil, fmt.Errorf("read value %s: %w", d, err)
	}
	if got != d {
		return nil, fmt.Errorf("read value %s: stored value hashes to %s", d, got)
	}
	return v, nil
}

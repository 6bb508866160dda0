package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencontainers/go-digest"

	"github.com/roach88/hostval/internal/harness"
	"github.com/roach88/hostval/internal/ir"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteReport records a finished run and its defect, if any, atomically.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same report
// twice is a no-op.
//
// The defect's structured operands are stored in the value table and
// referenced by digest.
func (s *Store) WriteReport(ctx context.Context, r *harness.Report) error {
	skipped, err := marshalCounts(r.Skipped)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, property, seed, cases, checked, passed, skipped, pass, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		string(r.Property),
		r.Seed,
		r.Cases,
		r.Checked,
		r.Passed,
		skipped,
		r.Pass(),
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("write report: insert run: %w", err)
	}

	if r.Defect != nil {
		if err := writeDefect(ctx, tx, r.RunID, r.Defect); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write report: commit: %w", err)
	}
	return nil
}

func writeDefect(ctx context.Context, tx execer, runID string, d *harness.Defect) error {
	leftDigest, err := writeCanonical(ctx, tx, d.LeftIR)
	if err != nil {
		return fmt.Errorf("defect left operand: %w", err)
	}
	rightDigest, err := writeCanonical(ctx, tx, d.RightIR)
	if err != nil {
		return fmt.Errorf("defect right operand: %w", err)
	}

	orderings, err := marshalOrderings(d.Orderings)
	if err != nil {
		return err
	}
	cause := ""
	if d.Err != nil {
		cause = d.Err.Error()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO defects
		(run_id, case_index, check_name, message, left_val, right_val, left_digest, right_digest, orderings, cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, case_index) DO NOTHING
	`,
		runID,
		d.Case,
		d.Check,
		d.Message,
		d.Left,
		d.Right,
		nullDigest(leftDigest),
		nullDigest(rightDigest),
		orderings,
		cause,
	)
	if err != nil {
		return fmt.Errorf("insert defect: %w", err)
	}
	return nil
}

// writeCanonical stores a value given in canonical JSON. An empty input
// means the operand never reached structured form and stores nothing.
func writeCanonical(ctx context.Context, tx execer, canonical string) (digest.Digest, error) {
	if canonical == "" {
		return "", nil
	}
	v, err := ir.UnmarshalCanonical([]byte(canonical))
	if err != nil {
		return "", fmt.Errorf("decode canonical value: %w", err)
	}
	return writeValue(ctx, tx, v)
}

// WriteValue stores a structured value under its digest and returns the
// digest. Storing an already present value is a no-op.
func (s *Store) WriteValue(ctx context.Context, v ir.Value) (digest.Digest, error) {
	d, err := writeValue(ctx, s.db, v)
	if err != nil {
		return "", fmt.Errorf("write value: %w", err)
	}
	return d, nil
}

func writeValue(ctx context.Context, ex execer, v ir.Value) (digest.Digest, error) {
	canonical, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	d, err := ir.Digest(v)
	if err != nil {
		return "", err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO vals (digest, kind, canonical)
		VALUES (?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, d.String(), v.Kind().String(), string(canonical))
	if err != nil {
		return "", fmt.Errorf("insert value: %w", err)
	}
	return d, nil
}

func nullDigest(d digest.Digest) sql.NullString {
	return sql.NullString{String: d.String(), Valid: d != ""}
}

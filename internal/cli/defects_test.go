package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostval/internal/harness"
	"github.com/roach88/hostval/internal/ir"
	"github.com/roach88/hostval/internal/store"
)

// seedStore writes one passing run and one run with a defect.
func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	start := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	ok := harness.NewReport("run-a", harness.PropVecUnequalLengths, 0, 10)
	ok.Checked, ok.Passed = 10, 10
	ok.StartedAt, ok.FinishedAt = start, start.Add(time.Second)

	bad := harness.NewReport("run-b", harness.PropDifferentObjectsCmp, 5, 10)
	bad.Checked, bad.Passed = 4, 2
	bad.Skipped[harness.SkipEqualTags] = 1
	bad.StartedAt, bad.FinishedAt = start.Add(time.Minute), start.Add(time.Minute+time.Second)
	bad.Defect = &harness.Defect{
		Property:  harness.PropDifferentObjectsCmp,
		Case:      3,
		Check:     harness.CheckOrder,
		Message:   "comparers disagree",
		Left:      "U32(1)",
		Right:     "VecObject#0[]",
		LeftIR:    `{"u32":1}`,
		RightIR:   `{"vec":[]}`,
		Orderings: map[string]string{"env": "greater", "structured": "less"},
		Err:       errors.New("boom"),
	}

	ctx := context.Background()
	require.NoError(t, st.WriteReport(ctx, ok))
	require.NoError(t, st.WriteReport(ctx, bad))
	return path
}

func TestDefects_Text(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "defects", "--db", db, "--values")
	require.NoError(t, err)

	want := "✗ different_objects_cmp case 3 (order_mismatch): comparers disagree\n" +
		"    run:   run-b\n" +
		"    order: env=greater structured=less\n" +
		"    left:  U32(1)\n" +
		"    right: VecObject#0[]\n" +
		"    left_ir:  {\"u32\":1}\n" +
		"    right_ir: {\"vec\":[]}\n" +
		"    cause: boom\n" +
		"\nSummary: 1 defect(s)\n"
	assert.Equal(t, want, stdout)
}

func TestDefects_WithoutValues(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "defects", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "left_ir")
}

func TestDefects_JSON(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "--format", "json", "defects", "--db", db, "--run", "run-b", "--values")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   []DefectView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)

	d := resp.Data[0]
	assert.Equal(t, "run-b", d.RunID)
	assert.Equal(t, 3, d.Case)
	assert.Equal(t, ir.MustDigest(ir.U32(1)), d.LeftDigest)
	assert.Equal(t, ir.MustDigest(ir.Vec{}), d.RightDigest)
	assert.Equal(t, `{"u32":1}`, d.LeftIR)
	assert.Equal(t, `{"vec":[]}`, d.RightIR)
}

func TestDefects_RunFilter(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "defects", "--db", db, "--run", "run-a")
	require.NoError(t, err)
	assert.Equal(t, "No defects recorded\n", stdout)

	_, _, err = executeCommand(t, "defects", "--db", db, "--run", "run-z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run run-z not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDefects_MissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	for _, name := range []string{"defects", "runs"} {
		t.Run(name, func(t *testing.T) {
			_, _, err := executeCommand(t, name, "--db", missing)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "database not found")
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRuns_Text(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "runs", "--db", db)
	require.NoError(t, err)

	want := "✓ run-a vec_unequal_lengths seed=0 checked=10/10 passed=10 skipped=0\n" +
		"✗ run-b different_objects_cmp seed=5 checked=4/10 passed=2 skipped=1\n"
	assert.Equal(t, want, stdout)
}

func TestRuns_JSON(t *testing.T) {
	db := seedStore(t)

	stdout, _, err := executeCommand(t, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data []store.RunRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-a", resp.Data[0].ID)
	assert.True(t, resp.Data[0].Pass)
	assert.Equal(t, "run-b", resp.Data[1].ID)
	assert.False(t, resp.Data[1].Pass)
	assert.Equal(t, map[string]int{"equal_tags": 1}, resp.Data[1].Skipped)
}

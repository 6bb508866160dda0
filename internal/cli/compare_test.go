package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostval/internal/ir"
)

const (
	vec123 = `{"vec":[{"u32":1},{"u32":2},{"u32":3}]}`
	vec12  = `{"vec":[{"u32":1},{"u32":2}]}`
)

func TestCompare_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "compare", vec123, vec12)
	require.NoError(t, err)

	want := "left:       VecObject#0[U32(1), U32(2), U32(3)]\n" +
		"            " + ir.MustDigest(ir.Vec{ir.U32(1), ir.U32(2), ir.U32(3)}).String() + "\n" +
		"right:      VecObject#1[U32(1), U32(2)]\n" +
		"            " + ir.MustDigest(ir.Vec{ir.U32(1), ir.U32(2)}).String() + "\n" +
		"env:        greater (cost 3)\n" +
		"metered:    greater (cost 3)\n" +
		"structured: greater\n" +
		"✓ Comparers agree\n"
	assert.Equal(t, want, stdout)
}

func TestCompare_JSON(t *testing.T) {
	tests := []struct {
		name       string
		left       string
		right      string
		budget     string
		env        string
		structured string
		cost       uint64
	}{
		{"status before u32", `{"status":{"code":7,"type":"vm_error"}}`, `{"u32":1}`, "100", "less", "less", 1},
		{"empty vecs", `{"vec":[]}`, `{"vec":[]}`, "100", "equal", "equal", 1},
		{"starved budget", vec12, `{"vec":[{"u32":1}]}`, "1", "budget_exceeded", "greater", 2},
		{"wide u64", `{"u64":"18446744073709551615"}`, `{"u64":"5"}`, "100", "greater", "greater", 1},
		{"symbol bytes", `{"symbol":"abc"}`, `{"symbol":"a_long_symbol_name"}`, "100", "greater", "greater", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "--format", "json", "compare", tt.left, tt.right, "--budget", tt.budget)
			require.NoError(t, err)

			var resp struct {
				Status string        `json:"status"`
				Data   CompareResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.True(t, resp.Data.Agree)
			assert.Equal(t, tt.env, resp.Data.Env)
			assert.Equal(t, tt.env, resp.Data.Metered)
			assert.Equal(t, tt.structured, resp.Data.Structured)
			assert.Equal(t, tt.cost, resp.Data.EnvCost)
			assert.Equal(t, tt.cost, resp.Data.MeteredCost)
		})
	}
}

func TestCompare_FromFile(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.json")
	require.NoError(t, os.WriteFile(left, []byte(`{"string":"abc"}`), 0o644))

	stdout, _, err := executeCommand(t, "compare", "@"+left, `{"symbol":"abc"}`)
	require.NoError(t, err)
	assert.Contains(t, stdout, "structured: less\n")
}

func TestCompare_CommandErrors(t *testing.T) {
	dupKeys := `{"map":[{"key":{"u32":1},"val":{"u32":1}},{"key":{"u32":1},"val":{"u32":2}}]}`

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid left", []string{"compare", `{"u128":1}`, `{"u32":1}`}, `invalid left value: unknown kind "u128"`},
		{"invalid right", []string{"compare", `{"u32":1}`, `[1]`}, "invalid right value"},
		{"missing file", []string{"compare", "@does-not-exist.json", `{"u32":1}`}, "invalid left value"},
		{"duplicate keys", []string{"compare", `{"u32":1}`, dupKeys}, "right value is not convertible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}

	_, _, err := executeCommand(t, "compare", `{"u32":1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestWriteCompareText_Disagreement(t *testing.T) {
	var buf bytes.Buffer
	writeCompareText(&buf, &CompareResult{
		Left:        "U32(1)",
		Right:       "U32(2)",
		Env:         "less",
		Metered:     "greater",
		Structured:  "less",
		EnvCost:     1,
		MeteredCost: 1,
	})
	assert.Contains(t, buf.String(), "metered:    greater (cost 1)\n")
	assert.Contains(t, buf.String(), "✗ Comparers disagree\n")
}

package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefect_Error(t *testing.T) {
	d := &Defect{
		Property: PropDifferentObjectsCmp,
		Case:     12,
		Check:    CheckOrder,
		Message:  "comparers disagree",
		Left:     "U32(1)",
		Right:    "VecObject#0[]",
		LeftIR:   `{"u32":1}`,
		RightIR:  `{"vec":[]}`,
		Orderings: map[string]string{
			"structured": "less",
			"env":        "greater",
			"metered":    "less",
		},
	}

	want := "defect in different_objects_cmp case 12 (order_mismatch): comparers disagree" +
		" [env=greater metered=less structured=less]\n" +
		"  left:  U32(1)\n" +
		"  right: VecObject#0[]\n" +
		"  left_ir:  {\"u32\":1}\n" +
		"  right_ir: {\"vec\":[]}"
	assert.Equal(t, want, d.Error())
}

func TestDefect_Cause(t *testing.T) {
	cause := errors.New("boom")
	d := &Defect{Property: PropVecUnequalLengths, Check: CheckEnvCompare, Message: "env comparer failed", Err: cause}

	assert.Contains(t, d.Error(), "\n  cause: boom")
	assert.ErrorIs(t, d, cause)

	wrapped := fmt.Errorf("run: %w", d)
	assert.True(t, IsDefect(wrapped))
	assert.False(t, IsDefect(cause))
}

package host

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/ir"
)

func u32Vec(t *testing.T, e *Env, xs ...uint32) Val {
	t.Helper()
	elems := make([]Val, len(xs))
	for i, x := range xs {
		elems[i] = FromU32(x)
	}
	v, err := e.NewVec(elems)
	require.NoError(t, err)
	return v
}

func u32Map(t *testing.T, e *Env, kvs ...uint32) Val {
	t.Helper()
	require.Zero(t, len(kvs)%2)
	entries := make([]MapEntry, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		entries = append(entries, MapEntry{Key: FromU32(kvs[i]), Val: FromU32(kvs[i+1])})
	}
	v, err := e.NewMap(entries)
	require.NoError(t, err)
	return v
}

func mustCompare(t *testing.T, e *Env, a, b Val) ir.Ordering {
	t.Helper()
	o, err := e.Compare(a, b)
	require.NoError(t, err)
	return o
}

func TestCompare_Scenarios(t *testing.T) {
	e := New()

	assert.Equal(t, ir.Greater, mustCompare(t, e, u32Vec(t, e, 1, 2, 3), u32Vec(t, e, 1, 2)))
	assert.Equal(t, ir.Equal, mustCompare(t, e, u32Vec(t, e), u32Vec(t, e)))
	assert.Equal(t, ir.Less, mustCompare(t, e, u32Map(t, e, 1, 10), u32Map(t, e, 1, 10, 2, 20)))

	status := FromStatus(ir.Status{Type: ir.StatusHostObjectError, Code: 1})
	assert.Equal(t, ir.Less, mustCompare(t, e, status, FromU32(0)))
	assert.Equal(t, ir.Greater, mustCompare(t, e, FromU32(0), status))
}

func TestCompare_MapKeysBeforeValues(t *testing.T) {
	e := New()
	a := u32Map(t, e, 1, 0, 3, 0)
	b := u32Map(t, e, 1, 5, 2, 0)

	assert.Equal(t, ir.Greater, mustCompare(t, e, a, b))
}

func TestCompare_SmallAndObjectFormsAgree(t *testing.T) {
	e := New()

	small, err := e.NewU64(5)
	require.NoError(t, err)
	obj, err := e.NewU64Object(5)
	require.NoError(t, err)
	assert.Equal(t, ir.Equal, mustCompare(t, e, small, obj))

	big, err := e.NewU64(math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, ir.Greater, mustCompare(t, e, big, small))

	neg1, err := e.NewI64(-1)
	require.NoError(t, err)
	neg2, err := e.NewI64Object(-2)
	require.NoError(t, err)
	assert.Equal(t, ir.Greater, mustCompare(t, e, neg1, neg2))

	sym, err := e.NewSymbol("abc")
	require.NoError(t, err)
	symObj, err := e.NewSymbolObject("abd")
	require.NoError(t, err)
	assert.Equal(t, ir.Less, mustCompare(t, e, sym, symObj))
}

func TestCompare_Scalars(t *testing.T) {
	e := New()

	assert.Equal(t, ir.Less, mustCompare(t, e, FromBool(false), FromBool(true)))
	assert.Equal(t, ir.Equal, mustCompare(t, e, Void, Void))
	assert.Equal(t, ir.Less, mustCompare(t, e, FromI32(-3), FromI32(2)))
	assert.Equal(t, ir.Less, mustCompare(t, e, FromBool(true), Void))

	a := FromStatus(ir.Status{Type: ir.StatusOk, Code: 9})
	b := FromStatus(ir.Status{Type: ir.StatusVmError, Code: 1})
	assert.Equal(t, ir.Less, mustCompare(t, e, a, b))

	x, err := e.NewBytes([]byte{1, 2})
	require.NoError(t, err)
	y, err := e.NewBytes([]byte{1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, ir.Less, mustCompare(t, e, x, y))
}

func TestCompare_ChargesSchedule(t *testing.T) {
	b := budget.Unlimited()
	e := New(WithBudget(b))
	x := u32Vec(t, e, 1, 2)
	y := u32Vec(t, e, 1, 3)
	s1, err := e.NewString("abc")
	require.NoError(t, err)
	s2, err := e.NewString("ab")
	require.NoError(t, err)
	b.Reset()

	assert.Equal(t, ir.Less, mustCompare(t, e, x, y))
	assert.Equal(t, uint64(3), b.ConsumedBy(budget.CostCompareStep))

	b.Reset()
	assert.Equal(t, ir.Greater, mustCompare(t, e, s1, s2))
	assert.Equal(t, uint64(1), b.ConsumedBy(budget.CostCompareStep))
	assert.Equal(t, uint64(2), b.ConsumedBy(budget.CostCompareBytes))
}

func TestCompare_BudgetExceeded(t *testing.T) {
	b := budget.Unlimited()
	e := New(WithBudget(b))
	x := u32Vec(t, e, 1, 2, 3)
	y := u32Vec(t, e, 1, 2, 3)

	b.Reset()
	b.SetLimit(2)

	_, err := e.Compare(x, y)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeBudgetExceeded))
	assert.True(t, budget.IsExceeded(err))
	assert.False(t, IsFatal(err))
}

func TestCompare_MalformedIsFatal(t *testing.T) {
	e := New()

	_, err := e.Compare(Val(TagBad), FromU32(1))
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidValue))
	assert.True(t, IsFatal(err))

	forged := fromMajorMinor(TagVecObject, 42, e.ID())
	empty := u32Vec(t, e)
	_, err = e.Compare(forged, empty)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidHandle))
}

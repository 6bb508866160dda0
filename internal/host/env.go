package host

import (
	"io"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/roach88/hostval/internal/budget"
	"github.com/roach88/hostval/internal/ir"
)

// Env is a host environment: an object table, a budget and the comparison
// entry point. Objects are immutable once allocated and live as long as the
// env.
type Env struct {
	id      uint32
	objects []object
	budget  *budget.Budget
	logger  *slog.Logger
}

// Option configures an Env.
type Option func(*Env)

// WithBudget makes the env charge b instead of a fresh default budget.
func WithBudget(b *budget.Budget) Option {
	return func(e *Env) {
		e.budget = b
	}
}

// WithLogger sets the logger used for host diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) {
		e.logger = l
	}
}

var lastEnvID atomic.Uint32

// nextEnvID returns a non-zero id that fits the minor bits of a Val.
func nextEnvID() uint32 {
	for {
		if id := lastEnvID.Add(1) & minorMask; id != 0 {
			return id
		}
	}
}

// New creates an empty env with a budget of budget.DefaultLimit.
func New(opts ...Option) *Env {
	e := &Env{
		id:     nextEnvID(),
		budget: budget.New(budget.DefaultLimit),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the id stamped into every handle this env issues.
func (e *Env) ID() uint32 {
	return e.id
}

// Budget returns the budget charged by every env operation.
func (e *Env) Budget() *budget.Budget {
	return e.budget
}

// ObjectCount returns the number of allocated objects.
func (e *Env) ObjectCount() int {
	return len(e.objects)
}

// Charge charges the env budget. Exhaustion is reported as a HostError with
// ErrCodeBudgetExceeded wrapping the *budget.ExceededError.
func (e *Env) Charge(cost budget.CostType, units uint64) error {
	return wrapBudget(e.budget.Charge(cost, units))
}

func (e *Env) alloc(o object) (Val, error) {
	if err := e.Charge(budget.CostObjectAlloc, 1); err != nil {
		return 0, err
	}
	if len(e.objects) >= math.MaxUint32 {
		return 0, newError(ErrCodeInvalidInput, 0, "object table full")
	}
	h := uint32(len(e.objects))
	e.objects = append(e.objects, o)
	v := fromMajorMinor(o.objectTag(), h, e.id)
	e.logger.Debug("allocated object", "val", v)
	return v, nil
}

// resolve returns the object behind an object value.
func (e *Env) resolve(v Val) (object, error) {
	if !v.Tag().IsObject() {
		return nil, newError(ErrCodeObjectMismatch, v, "not an object value")
	}
	h, id := v.handle()
	if id != e.id {
		return nil, newError(ErrCodeForeignHandle, v, "handle issued by env %d, not %d", id, e.id)
	}
	if int(h) >= len(e.objects) {
		return nil, newError(ErrCodeInvalidHandle, v, "no object at handle %d", h)
	}
	o := e.objects[h]
	if o.objectTag() != v.Tag() {
		return nil, newError(ErrCodeObjectMismatch, v, "handle %d holds %s", h, o.objectTag())
	}
	return o, nil
}

// Check validates v against this env: layout, and for objects, that the
// handle resolves to an object of the right type.
func (e *Env) Check(v Val) error {
	if err := v.check(); err != nil {
		return err
	}
	if v.Tag().IsObject() {
		_, err := e.resolve(v)
		return err
	}
	return nil
}

// NewU64 returns x in canonical form: inline when it fits.
func (e *Env) NewU64(x uint64) (Val, error) {
	if v, ok := TryU64Small(x); ok {
		return v, nil
	}
	return e.alloc(u64Object(x))
}

// NewU64Object always allocates, even when x fits inline.
func (e *Env) NewU64Object(x uint64) (Val, error) {
	return e.alloc(u64Object(x))
}

// NewI64 returns x in canonical form: inline when it fits.
func (e *Env) NewI64(x int64) (Val, error) {
	if v, ok := TryI64Small(x); ok {
		return v, nil
	}
	return e.alloc(i64Object(x))
}

// NewI64Object always allocates, even when x fits inline.
func (e *Env) NewI64Object(x int64) (Val, error) {
	return e.alloc(i64Object(x))
}

// NewBytes copies b into a new bytes object.
func (e *Env) NewBytes(b []byte) (Val, error) {
	return e.alloc(bytesObject(slices.Clone(b)))
}

// NewString allocates a string object.
func (e *Env) NewString(s string) (Val, error) {
	return e.alloc(stringObject(s))
}

// NewSymbol returns s in canonical form: inline when it has at most
// SymbolSmallMaxLen chars.
func (e *Env) NewSymbol(s string) (Val, error) {
	if err := ir.ValidateSymbol(s); err != nil {
		return 0, newError(ErrCodeInvalidInput, 0, "%v", err)
	}
	if v, ok := TrySymbolSmall(s); ok {
		return v, nil
	}
	return e.alloc(symbolObject(s))
}

// NewSymbolObject always allocates, even for short symbols.
func (e *Env) NewSymbolObject(s string) (Val, error) {
	if err := ir.ValidateSymbol(s); err != nil {
		return 0, newError(ErrCodeInvalidInput, 0, "%v", err)
	}
	return e.alloc(symbolObject(s))
}

// NewVec allocates a vec of elems. Every element must be valid in this env.
func (e *Env) NewVec(elems []Val) (Val, error) {
	for _, v := range elems {
		if err := e.Check(v); err != nil {
			return 0, err
		}
	}
	return e.alloc(vecObject(slices.Clone(elems)))
}

// NewMap allocates a map. Entries are sorted by key with the env comparer,
// charging the budget; two equal keys fail with ErrCodeDuplicateKey.
func (e *Env) NewMap(entries []MapEntry) (Val, error) {
	for _, me := range entries {
		if err := e.Check(me.Key); err != nil {
			return 0, err
		}
		if err := e.Check(me.Val); err != nil {
			return 0, err
		}
	}

	sorted := slices.Clone(entries)
	var sortErr error
	slices.SortStableFunc(sorted, func(a, b MapEntry) int {
		if sortErr != nil {
			return 0
		}
		o, err := e.Compare(a.Key, b.Key)
		if err != nil {
			sortErr = err
			return 0
		}
		return int(o)
	})
	if sortErr != nil {
		return 0, sortErr
	}

	for i := 1; i < len(sorted); i++ {
		o, err := e.Compare(sorted[i-1].Key, sorted[i].Key)
		if err != nil {
			return 0, err
		}
		if o == ir.Equal {
			return 0, newError(ErrCodeDuplicateKey, sorted[i].Key, "duplicate map key")
		}
	}
	return e.alloc(mapObject(sorted))
}

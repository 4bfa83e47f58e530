// Package cost holds the level → price curves handed to the host registry.
// The host evaluates them; affordability and refunds are its business.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

var ErrInvalidCost = errors.New("invalid cost model")

// Model prices a level.
type Model interface {
	Cost(level int) decimal.Decimal
}

// Exponential costs Base·2^(Progress·level).
type Exponential struct {
	Base     decimal.Decimal
	Progress float64
}

// NewExponential builds an Exponential from float parameters.
func NewExponential(base, progress float64) (Exponential, error) {
	b, err := bignum.FromFloat(base)
	if err != nil || b.Sign() <= 0 || math.IsNaN(progress) || math.IsInf(progress, 0) {
		return Exponential{}, fmt.Errorf("%w: exponential(%v, %v)", ErrInvalidCost, base, progress)
	}
	return Exponential{Base: b, Progress: progress}, nil
}

func (e Exponential) Cost(level int) decimal.Decimal {
	if level <= 0 {
		return e.Base
	}
	return bignum.Mul(e.Base, bignum.Exp10(e.Progress*float64(level)*math.Log10(2)))
}

// FirstFree makes level 0 free and shifts Inner by one level.
type FirstFree struct {
	Inner Model
}

func (f FirstFree) Cost(level int) decimal.Decimal {
	if level <= 0 {
		return bignum.Zero
	}
	return f.Inner.Cost(level - 1)
}

// Constant costs the same at every level.
type Constant struct {
	Value decimal.Decimal
}

func (c Constant) Cost(int) decimal.Decimal { return c.Value }

// unaffordable is charged at levels where a formula cannot be evaluated.
var unaffordable = bignum.Exp10(1000)

// Expr evaluates a formula of `level` that yields log10 of the cost, so
// "50 + 25 * level" prices level L at 10^(50+25L).
type Expr struct {
	Source  string
	program *vm.Program
}

// NewExpr compiles src once and checks it yields a finite value at level 0;
// Cost only runs the bytecode.
func NewExpr(src string) (*Expr, error) {
	prog, err := expr.Compile(src, expr.Env(map[string]any{"level": float64(0)}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrInvalidCost, src, err)
	}
	e := &Expr{Source: src, program: prog}
	if _, err := e.log10(0); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCost, src, err)
	}
	return e, nil
}

func (e *Expr) Cost(level int) decimal.Decimal {
	f, err := e.log10(level)
	if err != nil {
		return unaffordable
	}
	return bignum.Exp10(f)
}

func (e *Expr) log10(level int) (float64, error) {
	out, err := expr.Run(e.program, map[string]any{"level": float64(level)})
	if err != nil {
		return 0, err
	}
	f, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("formula returned %T", out)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("formula returned %v at level %d", f, level)
	}
	return f, nil
}

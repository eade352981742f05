// Package ewm computes exponentially-weighted mean, variance, volatility,
// covariance and correlation over sequences that may contain missing
// values (NaN).
//
// Each output position i aggregates every observation at positions <= i
// with weights that decay geometrically with age. Outputs are NaN until
// enough observations have been seen (see Gate).
package ewm

import (
	"fmt"
	"math"
)

// Options are the caller-facing parameters. Use DefaultOptions to get
// Adjust = true, which is the usual choice.
type Options struct {
	Decay      DecaySpec
	Adjust     bool
	IgnoreNA   bool
	Bias       bool
	MinPeriods int
}

func DefaultOptions(d DecaySpec) Options {
	return Options{Decay: d, Adjust: true}
}

// Params are resolved Options, ready to drive the recurrences.
type Params struct {
	Recurrence
	Bias       bool
	MinPeriods int
}

func (o Options) Resolve() (Params, error) {
	alpha, err := o.Decay.Resolve()
	if err != nil {
		return Params{}, err
	}
	if o.MinPeriods < 0 {
		return Params{}, &ConfigError{Msg: "min_periods must satisfy: min_periods >= 0"}
	}
	return Params{
		Recurrence: Recurrence{
			Alpha:    alpha,
			Adjust:   o.Adjust,
			IgnoreNA: o.IgnoreNA,
		},
		Bias:       o.Bias,
		MinPeriods: o.MinPeriods,
	}, nil
}

// Mean returns the exponentially-weighted mean at every position.
func (p Params) Mean(xs []float64) []float64 {
	out := make([]float64, len(xs))
	g := Gate{MinPeriods: p.MinPeriods, Required: 1}
	s := NewMeanState()
	for i, x := range xs {
		s = s.Step(x, p.Recurrence)
		out[i] = g.Apply(s.NObs, s.Avg)
	}
	return out
}

// Var returns the exponentially-weighted variance. Unless Bias is set,
// at least two observations are needed for a value.
func (p Params) Var(xs []float64) []float64 {
	return p.moments(xs, xs, p.Bias)
}

// Vol returns the square root of Var.
func (p Params) Vol(xs []float64) []float64 {
	out := p.Var(xs)
	for i, v := range out {
		out[i] = ZSqrt(v)
	}
	return out
}

// Std is Vol under its other common name.
func (p Params) Std(xs []float64) []float64 { return p.Vol(xs) }

// Cov returns the exponentially-weighted covariance of x and y.
// Only positions where both are present count as observations.
// It panics if the lengths differ.
func (p Params) Cov(x, y []float64) []float64 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("ewm: Cov of sequences with different lengths (%d and %d)", len(x), len(y)))
	}
	return p.moments(x, y, p.Bias)
}

// Corr returns the exponentially-weighted correlation of x and y, built
// from biased moments regardless of p.Bias. All three moments see only
// the positions where both x and y are present, so the result stays in
// [-1, 1]. It panics if the lengths differ.
func (p Params) Corr(x, y []float64) []float64 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("ewm: Corr of sequences with different lengths (%d and %d)", len(x), len(y)))
	}
	x, y = jointMask(x, y)
	cov := p.moments(x, y, true)
	vx := p.moments(x, x, true)
	vy := p.moments(y, y, true)
	for i := range cov {
		prod := vx[i] * vy[i]
		if prod > 0 {
			cov[i] /= math.Sqrt(prod)
		} else {
			cov[i] = math.NaN()
		}
	}
	return cov
}

func (p Params) moments(x, y []float64, bias bool) []float64 {
	out := make([]float64, len(x))
	g := Gate{MinPeriods: p.MinPeriods, Required: RequiredObs(bias)}
	s := NewMomentState()
	for i := range x {
		s = s.Step(x[i], y[i], p.Recurrence)
		out[i] = g.Apply(s.NObs, s.Value(bias))
	}
	return out
}

// jointMask returns copies of x and y with NaN wherever either is NaN.
func jointMask(x, y []float64) ([]float64, []float64) {
	mx := make([]float64, len(x))
	my := make([]float64, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			mx[i], my[i] = math.NaN(), math.NaN()
			continue
		}
		mx[i], my[i] = x[i], y[i]
	}
	return mx, my
}

// ZSqrt is sqrt that maps small negative values from rounding to 0.
func ZSqrt(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

func Mean(xs []float64, o Options) ([]float64, error) {
	p, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	return p.Mean(xs), nil
}

func Var(xs []float64, o Options) ([]float64, error) {
	p, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	return p.Var(xs), nil
}

func Vol(xs []float64, o Options) ([]float64, error) {
	p, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	return p.Vol(xs), nil
}

func Std(xs []float64, o Options) ([]float64, error) { return Vol(xs, o) }

func Cov(x, y []float64, o Options) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("cov: sequences have different lengths (%d and %d)", len(x), len(y))
	}
	p, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	return p.Cov(x, y), nil
}

func Corr(x, y []float64, o Options) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("corr: sequences have different lengths (%d and %d)", len(x), len(y))
	}
	p, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	return p.Corr(x, y), nil
}

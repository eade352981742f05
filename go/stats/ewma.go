package stats

import (
	"math"

	"github.com/uluyol/ewmstats/go/ewm"
)

// EWMA is an online exponentially-weighted mean. Values are fed one at a
// time; the result after each Record matches ewm.Params.Mean on the
// sequence recorded so far.
type EWMA struct {
	p  ewm.Params
	st ewm.MeanState
}

func NewEWMA(p ewm.Params) *EWMA {
	return &EWMA{p: p, st: ewm.NewMeanState()}
}

// Get returns the current mean and whether enough observations have
// been seen for it to be valid.
func (e *EWMA) Get() (float64, bool) {
	g := ewm.Gate{MinPeriods: e.p.MinPeriods, Required: 1}
	return e.st.Avg, g.Open(e.st.NObs)
}

func (e *EWMA) NumObs() int { return e.st.NObs }

// Record advances the mean by one position. NaN records a gap.
func (e *EWMA) Record(v float64) {
	e.st = e.st.Step(v, e.p.Recurrence)
}

// EWMVar is the online counterpart of ewm.Params.Var / Cov.
type EWMVar struct {
	p  ewm.Params
	st ewm.MomentState
}

func NewEWMVar(p ewm.Params) *EWMVar {
	return &EWMVar{p: p, st: ewm.NewMomentState()}
}

func (e *EWMVar) Record(v float64)       { e.st = e.st.Step(v, v, e.p.Recurrence) }
func (e *EWMVar) RecordPair(x, y float64) { e.st = e.st.Step(x, y, e.p.Recurrence) }

func (e *EWMVar) NumObs() int { return e.st.NObs }

// Get returns the variance (or covariance) and whether it is valid.
func (e *EWMVar) Get() (float64, bool) {
	g := ewm.Gate{MinPeriods: e.p.MinPeriods, Required: ewm.RequiredObs(e.p.Bias)}
	v := e.st.Value(e.p.Bias)
	return v, g.Open(e.st.NObs) && !math.IsNaN(v)
}

// Vol returns the square root of the variance.
func (e *EWMVar) Vol() (float64, bool) {
	v, ok := e.Get()
	if !ok {
		return math.NaN(), false
	}
	return ewm.ZSqrt(v), true
}

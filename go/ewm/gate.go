package ewm

import "math"

// Gate masks outputs until enough observations have been seen.
// Required is the minimum the statistic itself needs; MinPeriods is the
// caller's threshold. The larger of the two applies.
type Gate struct {
	MinPeriods int
	Required   int
}

func (g Gate) Threshold() int {
	if g.MinPeriods > g.Required {
		return g.MinPeriods
	}
	return g.Required
}

func (g Gate) Open(nobs int) bool { return nobs >= g.Threshold() }

// Apply returns v if the gate is open at nobs and NaN otherwise.
func (g Gate) Apply(nobs int, v float64) float64 {
	if g.Open(nobs) {
		return v
	}
	return math.NaN()
}

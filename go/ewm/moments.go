package ewm

import "math"

// MomentState extends MeanState with weight sums and a running
// (co)variance. Only positions where both x and y are present count as
// observations; variance uses x == y.
type MomentState struct {
	MeanX, MeanY float64
	SumWt        float64
	SumWt2       float64
	Cov          float64
	NObs         int
	oldWt        float64
}

func NewMomentState() MomentState {
	return MomentState{
		MeanX:  math.NaN(),
		MeanY:  math.NaN(),
		SumWt:  1,
		SumWt2: 1,
		oldWt:  1,
	}
}

func (s MomentState) Step(x, y float64, r Recurrence) MomentState {
	isObs := !math.IsNaN(x) && !math.IsNaN(y)
	if isObs {
		s.NObs++
	}

	switch {
	case !math.IsNaN(s.MeanX):
		if !isObs && r.IgnoreNA {
			break
		}
		decay := 1 - r.Alpha
		s.SumWt *= decay
		s.SumWt2 *= decay * decay
		s.oldWt *= decay
		if !isObs {
			break
		}

		newWt := r.newWt()
		oldMeanX, oldMeanY := s.MeanX, s.MeanY
		if x != s.MeanX {
			s.MeanX = (s.oldWt*oldMeanX + newWt*x) / (s.oldWt + newWt)
		}
		if y != s.MeanY {
			s.MeanY = (s.oldWt*oldMeanY + newWt*y) / (s.oldWt + newWt)
		}
		s.Cov = (s.oldWt*(s.Cov+(oldMeanX-s.MeanX)*(oldMeanY-s.MeanY)) +
			newWt*(x-s.MeanX)*(y-s.MeanY)) / (s.oldWt + newWt)
		s.SumWt += newWt
		s.SumWt2 += newWt * newWt
		s.oldWt += newWt
		if !r.Adjust {
			s.SumWt /= s.oldWt
			s.SumWt2 /= s.oldWt * s.oldWt
			s.oldWt = 1
		}
	case isObs:
		s.MeanX = x
		s.MeanY = y
		s.SumWt = 1
		s.SumWt2 = 1
		s.oldWt = 1
		s.Cov = 0
	}
	return s
}

// Value is the (co)variance estimate for the current state, ignoring the
// gate. Without bias the result is NaN when the effective sample size is
// degenerate, i.e. sum_wt^2 - sum_wt2 is not strictly positive.
func (s MomentState) Value(bias bool) float64 {
	if bias {
		return s.Cov
	}
	num := s.SumWt * s.SumWt
	denom := num - s.SumWt2
	if denom > 0 {
		return num / denom * s.Cov
	}
	return math.NaN()
}

// RequiredObs is the number of observations a second moment needs before
// it has a value: one when biased, two otherwise.
func RequiredObs(bias bool) int {
	if bias {
		return 1
	}
	return 2
}

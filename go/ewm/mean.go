package ewm

import "math"

// Recurrence holds the resolved parameters that drive a state transition.
type Recurrence struct {
	Alpha    float64
	Adjust   bool
	IgnoreNA bool
}

func (r Recurrence) newWt() float64 {
	if r.Adjust {
		return 1
	}
	return r.Alpha
}

// MeanState is the weighted-mean recurrence after some prefix of the input.
// Start from NewMeanState; the zero value treats 0 as a prior observation.
type MeanState struct {
	// Avg is NaN until the first observation.
	Avg   float64
	NObs  int
	oldWt float64
}

func NewMeanState() MeanState { return MeanState{Avg: math.NaN()} }

// Step consumes x and returns the next state. NaN means no observation.
func (s MeanState) Step(x float64, r Recurrence) MeanState {
	isObs := !math.IsNaN(x)
	if isObs {
		s.NObs++
	}

	switch {
	case !math.IsNaN(s.Avg):
		if !isObs && r.IgnoreNA {
			break
		}
		s.oldWt *= 1 - r.Alpha
		if !isObs {
			break
		}
		newWt := r.newWt()
		if x != s.Avg {
			s.Avg = (s.oldWt*s.Avg + newWt*x) / (s.oldWt + newWt)
		}
		if r.Adjust {
			s.oldWt += newWt
		} else {
			s.oldWt = 1
		}
	case isObs:
		s.Avg = x
		s.oldWt = 1
	}
	return s
}

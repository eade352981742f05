package ewm

import (
	"math"
	"testing"
)

func TestMeanStateStep(t *testing.T) {
	r := Recurrence{Alpha: 1.0 / 3, Adjust: true}
	s := NewMeanState()
	if !math.IsNaN(s.Avg) || s.NObs != 0 {
		t.Fatalf("fresh state = %+v", s)
	}

	s = s.Step(math.NaN(), r)
	if !math.IsNaN(s.Avg) || s.NObs != 0 {
		t.Errorf("missing value before history changed state: %+v", s)
	}

	s = s.Step(1, r)
	if s.Avg != 1 || s.NObs != 1 || s.oldWt != 1 {
		t.Errorf("after first observation: %+v", s)
	}

	s = s.Step(2, r)
	if math.Abs(s.Avg-1.6) > 1e-12 || s.NObs != 2 {
		t.Errorf("after second observation: %+v", s)
	}
	if want := 2.0/3 + 1; math.Abs(s.oldWt-want) > 1e-12 {
		t.Errorf("oldWt = %g, want %g", s.oldWt, want)
	}

	// A gap ages history but leaves the average alone.
	prev := s
	s = s.Step(math.NaN(), r)
	if s.Avg != prev.Avg || s.NObs != prev.NObs {
		t.Errorf("gap changed the average: %+v -> %+v", prev, s)
	}
	if want := prev.oldWt * 2 / 3; math.Abs(s.oldWt-want) > 1e-12 {
		t.Errorf("gap aged oldWt to %g, want %g", s.oldWt, want)
	}

	r.IgnoreNA = true
	prev = s
	if s = s.Step(math.NaN(), r); s != prev {
		t.Errorf("gap with ignoreNA changed state: %+v -> %+v", prev, s)
	}
}

func TestMeanStateNoAdjustResets(t *testing.T) {
	r := Recurrence{Alpha: 0.25}
	s := NewMeanState().Step(4, r).Step(8, r)
	if s.oldWt != 1 {
		t.Errorf("oldWt = %g, want reset to 1", s.oldWt)
	}
	if want := 0.75*4 + 0.25*8; math.Abs(s.Avg-want) > 1e-12 {
		t.Errorf("Avg = %g, want %g", s.Avg, want)
	}
}

func TestMomentStateStep(t *testing.T) {
	r := Recurrence{Alpha: 0.5, Adjust: true}
	s := NewMomentState()

	s = s.Step(1, math.NaN(), r)
	if s.NObs != 0 || !math.IsNaN(s.MeanX) {
		t.Errorf("half observation counted: %+v", s)
	}

	s = s.Step(1, 1, r)
	if s.NObs != 1 || s.SumWt != 1 || s.SumWt2 != 1 || s.Cov != 0 {
		t.Errorf("after first joint observation: %+v", s)
	}
	if v := s.Value(false); !math.IsNaN(v) {
		t.Errorf("unbiased value with one observation = %g, want NaN", v)
	}
	if v := s.Value(true); v != 0 {
		t.Errorf("biased value with one observation = %g, want 0", v)
	}

	s = s.Step(3, 3, r)
	// weights 0.5 and 1: mean 7/3, biased var = (0.5*16/9 + 4/9)/1.5 = 8/9
	if math.Abs(s.MeanX-7.0/3) > 1e-12 || math.Abs(s.Cov-8.0/9) > 1e-12 {
		t.Errorf("after second observation: %+v", s)
	}
	if s.SumWt != 1.5 || s.SumWt2 != 1.25 {
		t.Errorf("weight sums = %g, %g, want 1.5, 1.25", s.SumWt, s.SumWt2)
	}
	// 2.25 / (2.25 - 1.25) * 8/9
	if v := s.Value(false); math.Abs(v-2) > 1e-12 {
		t.Errorf("unbiased value = %g, want 2", v)
	}
}

func TestMomentStateNoAdjustRenormalizes(t *testing.T) {
	r := Recurrence{Alpha: 0.5}
	s := NewMomentState().Step(1, 1, r).Step(3, 3, r)
	if s.oldWt != 1 {
		t.Errorf("oldWt = %g, want 1", s.oldWt)
	}
	// old weight 0.5, new weight 0.5, total 1
	if s.SumWt != 1 || s.SumWt2 != 0.5 {
		t.Errorf("weight sums = %g, %g, want 1, 0.5", s.SumWt, s.SumWt2)
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		g    Gate
		nobs int
		open bool
	}{
		{Gate{MinPeriods: 0, Required: 1}, 0, false},
		{Gate{MinPeriods: 0, Required: 1}, 1, true},
		{Gate{MinPeriods: 3, Required: 1}, 2, false},
		{Gate{MinPeriods: 3, Required: 1}, 3, true},
		{Gate{MinPeriods: 1, Required: 2}, 1, false},
		{Gate{MinPeriods: 1, Required: 2}, 2, true},
		{Gate{MinPeriods: 5, Required: 2}, 4, false},
	}
	for _, test := range tests {
		if got := test.g.Open(test.nobs); got != test.open {
			t.Errorf("%+v.Open(%d) = %t, want %t", test.g, test.nobs, got, test.open)
		}
		v := test.g.Apply(test.nobs, 1.5)
		if test.open && v != 1.5 || !test.open && !math.IsNaN(v) {
			t.Errorf("%+v.Apply(%d) = %g", test.g, test.nobs, v)
		}
	}
}

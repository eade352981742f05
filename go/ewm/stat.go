package ewm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Stat names one of the statistics computed by Params.
type Stat int

const (
	StatMean Stat = iota
	StatVar
	StatVol
	StatStd
	StatCov
	StatCorr
)

var statNames = [...]string{
	StatMean: "mean",
	StatVar:  "var",
	StatVol:  "vol",
	StatStd:  "std",
	StatCov:  "cov",
	StatCorr: "corr",
}

func ValidStats() []string { return statNames[:] }

func (s *Stat) Set(str string) error {
	for st, name := range statNames {
		if name == str {
			*s = Stat(st)
			return nil
		}
	}
	return errors.New("invalid stat \"" + str + "\" (valid values are " + strings.Join(ValidStats(), " ") + ")")
}

func (s Stat) String() string { return statNames[s] }

// Pairwise reports whether the statistic consumes two sequences.
func (s Stat) Pairwise() bool { return s == StatCov || s == StatCorr }

// Compute runs the statistic. y is ignored unless s is pairwise.
func (s Stat) Compute(p Params, x, y []float64) []float64 {
	switch s {
	case StatMean:
		return p.Mean(x)
	case StatVar:
		return p.Var(x)
	case StatVol:
		return p.Vol(x)
	case StatStd:
		return p.Std(x)
	case StatCov:
		return p.Cov(x, y)
	case StatCorr:
		return p.Corr(x, y)
	}
	panic(fmt.Sprintf("ewm: unknown stat %d", int(s)))
}

func (s Stat) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Stat) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return s.Set(str)
}

package flagtypes

import (
	"flag"
	"strconv"
)

// OptFloat is a float flag that records whether it was set.
type OptFloat struct {
	V  float64
	OK bool
}

func (f *OptFloat) String() string {
	if !f.OK {
		return ""
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}

func (f *OptFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.V, f.OK = v, true
	return nil
}

// Ptr returns nil if the flag was never set.
func (f *OptFloat) Ptr() *float64 {
	if !f.OK {
		return nil
	}
	v := f.V
	return &v
}

var _ flag.Value = new(OptFloat)

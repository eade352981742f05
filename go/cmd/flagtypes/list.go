package flagtypes

import (
	"flag"
	"strings"
)

// StringList is a flag holding Sep-separated values. An empty string
// yields no values.
type StringList struct {
	Sep  string
	Vals []string
}

func (f *StringList) String() string { return strings.Join(f.Vals, f.Sep) }
func (f *StringList) Set(s string) error {
	if s == "" {
		f.Vals = nil
		return nil
	}
	f.Vals = strings.Split(s, f.Sep)
	return nil
}

var _ flag.Value = new(StringList)

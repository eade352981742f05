package batch

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/uluyol/ewmstats/go/ewm"
	"github.com/uluyol/ewmstats/go/frame"
	"github.com/uluyol/ewmstats/go/printsum"
	"gonum.org/v1/gonum/stat"
)

type ColumnSummary struct {
	Name   string
	Stat   ewm.Stat
	Decay  string
	Valid  int
	Masked *roaring.Bitmap
	// FirstValid is -1 if no position is valid.
	FirstValid int
	Mean       float64
	StdDev     float64
}

type Summary struct {
	RunID   string
	Rows    int
	Elapsed time.Duration
	Columns []ColumnSummary
}

func summarizeColumn(j Job, d ewm.DecaySpec, col []float64) ColumnSummary {
	masked := frame.MissingMask(col)
	cs := ColumnSummary{
		Name:       j.Name,
		Stat:       j.Stat,
		Decay:      d.String(),
		Valid:      len(col) - int(masked.GetCardinality()),
		Masked:     masked,
		FirstValid: -1,
		Mean:       math.NaN(),
		StdDev:     math.NaN(),
	}
	if cs.Valid == 0 {
		return cs
	}
	valid := roaring.Flip(masked, 0, uint64(len(col)))
	cs.FirstValid = int(valid.Minimum())

	vals := make([]float64, 0, cs.Valid)
	it := valid.Iterator()
	for it.HasNext() {
		vals = append(vals, col[it.Next()])
	}
	cs.Mean, cs.StdDev = stat.MeanStdDev(vals, nil)
	return cs
}

// Print writes a human-readable summary. With verbose set, each column
// also gets a map of its masked positions for short tables.
func (s *Summary) Print(w io.Writer, verbose bool) {
	printsum.Fprint(w, "run "+s.RunID, []printsum.KV{
		{Key: "Rows", Verb: "%d", Val: s.Rows},
		{Key: "Columns", Verb: "%d", Val: len(s.Columns)},
		{Key: "Elapsed", Verb: "%v", Val: s.Elapsed},
	})
	for _, c := range s.Columns {
		kvs := []printsum.KV{
			{Key: "Stat", Verb: "%s", Val: c.Stat},
			{Key: "Decay", Verb: "%s", Val: c.Decay},
			{Key: "Valid", Verb: "%d", Val: c.Valid},
			{Key: "FirstValid", Verb: "%d", Val: c.FirstValid},
			{Key: "Mean", Verb: "%g", Val: c.Mean},
			{Key: "StdDev", Verb: "%g", Val: c.StdDev},
		}
		if verbose && s.Rows <= printsum.MaxBitmapWidth {
			kvs = append(kvs, printsum.KV{Key: "Masked", Verb: "%s", Val: printsum.BitmapString(c.Masked, s.Rows)})
		}
		printsum.Fprint(w, fmt.Sprintf("column %s", c.Name), kvs)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"fortio.org/fortio/log"
	"github.com/google/subcommands"
	"github.com/uluyol/ewmstats/go/cmd/flagtypes"
	"github.com/uluyol/ewmstats/go/ewm"
	"github.com/uluyol/ewmstats/go/frame"
	"github.com/uluyol/ewmstats/go/printsum"
)

type seriesCmd struct {
	stat                   ewm.Stat
	com, span, hl, alpha   flagtypes.OptFloat
	cols                   flagtypes.StringList
	other                  string
	adjust, ignoreNA, bias bool
	minPeriods             int
	keep                   bool
	verbose                bool
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "compute one statistic over CSV columns and print as CSV" }
func (*seriesCmd) Usage() string {
	return "series -stat mean -com 2 [-cols x,y] [-other z] file.csv\n\nUse - to read from stdin.\n"
}

func (c *seriesCmd) SetFlags(fs *flag.FlagSet) {
	c.cols.Sep = ","
	fs.Var(&c.stat, "stat", fmt.Sprintf("statistic to compute %v", ewm.ValidStats()))
	fs.Var(&c.com, "com", "decay as center of mass")
	fs.Var(&c.span, "span", "decay as span")
	fs.Var(&c.hl, "halflife", "decay as half-life")
	fs.Var(&c.alpha, "alpha", "smoothing factor")
	fs.Var(&c.cols, "cols", "comma-separated columns to compute over (default: all)")
	fs.StringVar(&c.other, "other", "", "second column for cov and corr")
	fs.BoolVar(&c.adjust, "adjust", true, "divide by the decaying weight sum")
	fs.BoolVar(&c.ignoreNA, "ignore-na", false, "ignore missing values when computing weights")
	fs.BoolVar(&c.bias, "bias", false, "output biased moments")
	fs.IntVar(&c.minPeriods, "min-periods", 0, "observations needed before a value is output")
	fs.BoolVar(&c.keep, "keep", false, "also print the input columns")
	fs.BoolVar(&c.verbose, "v", false, "log masked positions of each output")
}

func (c *seriesCmd) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	if c.verbose {
		log.SetLogLevel(log.Verbose)
	}

	p, err := ewm.Options{
		Decay: ewm.DecaySpec{
			Com:      c.com.Ptr(),
			Span:     c.span.Ptr(),
			HalfLife: c.hl.Ptr(),
			Alpha:    c.alpha.Ptr(),
		},
		Adjust:     c.adjust,
		IgnoreNA:   c.ignoreNA,
		Bias:       c.bias,
		MinPeriods: c.minPeriods,
	}.Resolve()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var r io.Reader = os.Stdin
	if fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.Fatalf("failed to open input: %v", err)
		}
		defer f.Close()
		r = f
	}
	in, err := frame.ReadCSV(r)
	if err != nil {
		log.Fatalf("%v", err)
	}

	out, err := computeSeries(in, c.stat, p, c.cols.Vals, c.other, c.keep)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if c.verbose && out.NumRows() <= printsum.MaxBitmapWidth {
		for i, name := range out.Names {
			log.LogVf("%s masked: %s", name, printsum.BitmapString(frame.MissingMask(out.Cols[i]), out.NumRows()))
		}
	}
	if err := frame.WriteCSV(os.Stdout, out); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	return subcommands.ExitSuccess
}

// computeSeries applies stat to each named column (all columns if none
// are named). Outputs are named col_stat, or col_stat_other for pairwise
// stats.
func computeSeries(in *frame.Table, stat ewm.Stat, p ewm.Params, cols []string, other string, keep bool) (*frame.Table, error) {
	if stat.Pairwise() != (other != "") {
		if other == "" {
			return nil, fmt.Errorf("%s needs -other", stat)
		}
		return nil, fmt.Errorf("%s takes a single column, but -other was given", stat)
	}
	if len(cols) == 0 {
		for _, name := range in.Names {
			if name != other {
				cols = append(cols, name)
			}
		}
	}
	var y []float64
	if other != "" {
		var ok bool
		if y, ok = in.Col(other); !ok {
			return nil, fmt.Errorf("no column %q in input", other)
		}
	}

	out := new(frame.Table)
	if keep {
		for i, name := range in.Names {
			if err := out.Append(name, in.Cols[i]); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range cols {
		x, ok := in.Col(name)
		if !ok {
			return nil, fmt.Errorf("no column %q in input", name)
		}
		outName := name + "_" + stat.String()
		if other != "" {
			outName += "_" + other
		}
		if err := out.Append(outName, stat.Compute(p, x, y)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var _ subcommands.Command = new(seriesCmd)

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"fortio.org/fortio/log"
	"github.com/google/subcommands"
	"github.com/uluyol/ewmstats/go/cmd/flagtypes"
	"github.com/uluyol/ewmstats/go/ewm"
	"github.com/uluyol/ewmstats/go/printsum"
	"github.com/uluyol/ewmstats/go/stats"
	"golang.org/x/exp/rand"
)

type benchCmd struct {
	n, iters int
	stat     ewm.Stat
	com      float64
	missing  float64
	stream   bool
	every    flagtypes.Duration
	seed     uint64
	out      string
}

func (*benchCmd) Name() string     { return "bench" }
func (*benchCmd) Synopsis() string { return "time the engine on random series" }
func (*benchCmd) Usage() string    { return "bench [-n 10000] [-iters 100] [-stat var] [-com 10]\n" }

func (c *benchCmd) SetFlags(fs *flag.FlagSet) {
	c.stat = ewm.StatVar
	fs.IntVar(&c.n, "n", 10000, "length of each series")
	fs.IntVar(&c.iters, "iters", 100, "number of series")
	fs.Var(&c.stat, "stat", fmt.Sprintf("statistic to compute %v", ewm.ValidStats()))
	fs.Float64Var(&c.com, "com", 10, "decay as center of mass")
	fs.Float64Var(&c.missing, "missing", 0.1, "fraction of missing values")
	fs.BoolVar(&c.stream, "stream", false, "feed values one at a time through the online accumulators")
	fs.Var(&c.every, "every", "write a step record at this interval (0 means only at the end)")
	fs.Uint64Var(&c.seed, "seed", 0, "random seed (0 means time-based)")
	fs.StringVar(&c.out, "out", "", "file to write step records to (default stdout)")
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (c *benchCmd) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 0 || c.n <= 0 || c.iters <= 0 {
		return subcommands.ExitUsageError
	}
	if c.stream && c.stat == ewm.StatCorr {
		log.Fatalf("-stream does not support corr")
	}
	p, err := ewm.DefaultOptions(ewm.DecaySpec{Com: &c.com}).Resolve()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var out io.WriteCloser = nopCloser{os.Stdout}
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		out = f
	}

	seed := c.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))
	log.Infof("bench: stat %s, %d series of %d points, alpha %g, seed %d", c.stat, c.iters, c.n, p.Alpha, seed)

	rec := stats.NewRecorder(out)
	rec.StartRecording()
	lastStep := time.Now()
	for i := 0; i < c.iters; i++ {
		if err := ctx.Err(); err != nil {
			log.Fatalf("%v", err)
		}
		x := randomSeries(rng, c.n, c.missing)
		var y []float64
		if c.stat.Pairwise() {
			y = randomSeries(rng, c.n, c.missing)
		}

		start := time.Now()
		if c.stream {
			streamCompute(c.stat, p, x, y)
		} else {
			c.stat.Compute(p, x, y)
		}
		rec.RecordCall(c.stat.String(), c.n, time.Since(start))

		if c.every.D > 0 && time.Since(lastStep) >= c.every.D {
			rec.DoneStep(fmt.Sprintf("iter-%d", i))
			lastStep = time.Now()
		}
	}

	for _, l := range rec.Latencies() {
		printsum.Log("latency "+l.Kind, []printsum.KV{
			{Key: "Count", Verb: "%d", Val: l.Count},
			{Key: "P50", Verb: "%v", Val: time.Duration(l.P50Ns)},
			{Key: "P99", Verb: "%v", Val: time.Duration(l.P99Ns)},
			{Key: "Max", Verb: "%v", Val: time.Duration(l.MaxNs)},
		})
	}
	rec.DoneStep("final")
	if err := rec.Close(); err != nil {
		log.Fatalf("failed to write step records: %v", err)
	}
	return subcommands.ExitSuccess
}

// randomSeries returns a random walk where roughly missing of the values
// are NaN.
func randomSeries(rng *rand.Rand, n int, missing float64) []float64 {
	xs := make([]float64, n)
	cur := 0.0
	for i := range xs {
		cur += rng.NormFloat64()
		if rng.Float64() < missing {
			xs[i] = math.NaN()
		} else {
			xs[i] = cur
		}
	}
	return xs
}

// streamCompute produces the same output as stat.Compute by feeding one
// value at a time through the online accumulators. Corr is unsupported.
func streamCompute(stat ewm.Stat, p ewm.Params, x, y []float64) []float64 {
	out := make([]float64, len(x))
	if stat == ewm.StatMean {
		e := stats.NewEWMA(p)
		for i, v := range x {
			e.Record(v)
			out[i] = math.NaN()
			if m, ok := e.Get(); ok {
				out[i] = m
			}
		}
		return out
	}

	e := stats.NewEWMVar(p)
	for i, v := range x {
		var (
			val float64
			ok  bool
		)
		switch stat {
		case ewm.StatVar:
			e.Record(v)
			val, ok = e.Get()
		case ewm.StatVol, ewm.StatStd:
			e.Record(v)
			val, ok = e.Vol()
		case ewm.StatCov:
			e.RecordPair(v, y[i])
			val, ok = e.Get()
		default:
			panic(fmt.Sprintf("streamCompute: unsupported stat %d", int(stat)))
		}
		out[i] = math.NaN()
		if ok {
			out[i] = val
		}
	}
	return out
}

var _ subcommands.Command = new(benchCmd)

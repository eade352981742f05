// Package batch runs a set of exponentially-weighted statistics over the
// columns of a table.
package batch

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"time"

	"fortio.org/fortio/log"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/uluyol/ewmstats/go/ewm"
	"github.com/uluyol/ewmstats/go/frame"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type task struct {
	stat ewm.Stat
	p    ewm.Params
	x, y []float64

	out []float64
}

// fingerprint identifies a task by its inputs so that identical jobs are
// computed once.
func fingerprint(stat ewm.Stat, p ewm.Params, x, y []float64) uint64 {
	d := xxhash.New()
	var b [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(b[:], v)
		d.Write(b[:])
	}
	putBool := func(v bool) {
		if v {
			putU64(1)
		} else {
			putU64(0)
		}
	}
	putU64(uint64(stat))
	putU64(math.Float64bits(p.Alpha))
	putBool(p.Adjust)
	putBool(p.IgnoreNA)
	putBool(p.Bias)
	putU64(uint64(p.MinPeriods))
	putU64(uint64(len(x)))
	for _, v := range x {
		putU64(math.Float64bits(v))
	}
	putU64(uint64(len(y)))
	for _, v := range y {
		putU64(math.Float64bits(v))
	}
	return d.Sum64()
}

// Run executes every job of cfg against in and returns the output table.
// Jobs run in parallel, bounded by cfg.Parallelism (GOMAXPROCS if unset).
func Run(ctx context.Context, cfg *Config, in *frame.Table) (*frame.Table, *Summary, error) {
	start := time.Now()
	runID := uuid.New().String()

	jobTask := make([]*task, len(cfg.Jobs))
	unique := make(map[uint64]*task)
	var tasks []*task
	for i, j := range cfg.Jobs {
		p, err := cfg.Options(j).Resolve()
		if err != nil {
			return nil, nil, fmt.Errorf("job %s: %w", j.Name, err)
		}
		x, ok := in.Col(j.Column)
		if !ok {
			return nil, nil, fmt.Errorf("job %s: no column %q in input", j.Name, j.Column)
		}
		var y []float64
		if j.Stat.Pairwise() {
			if y, ok = in.Col(j.Other); !ok {
				return nil, nil, fmt.Errorf("job %s: no column %q in input", j.Name, j.Other)
			}
		}
		fp := fingerprint(j.Stat, p, x, y)
		t, ok := unique[fp]
		if !ok {
			t = &task{stat: j.Stat, p: p, x: x, y: y}
			unique[fp] = t
			tasks = append(tasks, t)
		} else {
			log.LogVf("run %s: job %s duplicates an earlier job", runID, j.Name)
		}
		jobTask[i] = t
	}

	par := cfg.Parallelism
	if par == 0 {
		par = runtime.GOMAXPROCS(0)
	}
	log.Infof("run %s: %d jobs (%d unique) over %d rows, parallelism %d",
		runID, len(cfg.Jobs), len(tasks), in.NumRows(), par)

	sem := semaphore.NewWeighted(int64(par))
	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			if err := egCtx.Err(); err != nil {
				return err
			}
			t.out = t.stat.Compute(t.p, t.x, t.y)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := new(frame.Table)
	if cfg.KeepInput {
		for i, name := range in.Names {
			if err := out.Append(name, in.Cols[i]); err != nil {
				return nil, nil, err
			}
		}
	}
	sum := &Summary{RunID: runID, Rows: in.NumRows()}
	for i, j := range cfg.Jobs {
		col := jobTask[i].out
		if sharedWithEarlier(jobTask, i) {
			col = append([]float64(nil), col...)
		}
		if err := out.Append(j.Name, col); err != nil {
			return nil, nil, fmt.Errorf("job %s: %w", j.Name, err)
		}
		cs := summarizeColumn(j, cfg.Options(j).Decay, col)
		if cs.Valid == 0 {
			log.Warnf("run %s: job %s produced no valid values", runID, j.Name)
		}
		sum.Columns = append(sum.Columns, cs)
	}
	sum.Elapsed = time.Since(start)
	log.Infof("run %s: done in %v", runID, sum.Elapsed)
	return out, sum, nil
}

func sharedWithEarlier(jobTask []*task, i int) bool {
	for _, t := range jobTask[:i] {
		if t == jobTask[i] {
			return true
		}
	}
	return false
}

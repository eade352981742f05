package stats

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type counters struct {
	cumNumCalls  int64
	cumNumPoints int64
}

// LatencyStats summarizes the call latencies of one kind of statistic.
type LatencyStats struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
	P50Ns int64  `json:"p50Ns"`
	P90Ns int64  `json:"p90Ns"`
	P95Ns int64  `json:"p95Ns"`
	P99Ns int64  `json:"p99Ns"`
	MaxNs int64  `json:"maxNs"`
}

// StepRecord is written as one JSON line per DoneStep.
type StepRecord struct {
	Label     string  `json:"label"`
	Timestamp string  `json:"timestamp"`
	DurSec    float64 `json:"durSec"`

	CumNumCalls  int64 `json:"cumNumCalls"`
	CumNumPoints int64 `json:"cumNumPoints"`

	MeanCallsPerSec  float64 `json:"meanCallsPerSec"`
	MeanPointsPerSec float64 `json:"meanPointsPerSec"`

	Latency []LatencyStats `json:"latency"`
}

// Recorder collects engine call latencies, grouped by statistic, and
// periodically writes a summary of each step to out.
type Recorder struct {
	mu  sync.Mutex
	out io.WriteCloser

	errMu sync.Mutex
	err   error

	cur   counters
	hists map[string]*hdrhistogram.Histogram

	prevTime time.Time
	prev     counters
	started  bool

	writeWG sync.WaitGroup
}

func NewRecorder(out io.WriteCloser) *Recorder {
	return &Recorder{out: out, hists: make(map[string]*hdrhistogram.Histogram)}
}

// StartRecording must be called before any other methods
// and cannot be called multiple times.
func (r *Recorder) StartRecording() {
	r.started = true
	r.prevTime = time.Now()
}

// must hold r.mu
func (r *Recorder) recordLatency(kind string, latency time.Duration) {
	hist, ok := r.hists[kind]
	if !ok {
		hist = hdrhistogram.New(1, 100_000_000_000, 3)
		r.hists[kind] = hist
	}
	ns := latency.Nanoseconds()
	if ns < 1 {
		ns = 1
	}
	hist.RecordValue(ns)
}

// RecordCall records one engine call over numPoints positions.
func (r *Recorder) RecordCall(kind string, numPoints int, latency time.Duration) {
	if !r.started {
		panic("must call StartRecording before any other methods")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cur.cumNumCalls++
	r.cur.cumNumPoints += int64(numPoints)
	r.recordLatency(kind, latency)
}

// Latencies returns the summary for the current step without ending it.
func (r *Recorder) Latencies() []LatencyStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return toLatencyStats(r.hists)
}

func (r *Recorder) DoneStep(label string) {
	if !r.started {
		panic("must call StartRecording before any other methods")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsedSec := now.Sub(r.prevTime).Seconds()
	rec := &StepRecord{
		Label:            label,
		Timestamp:        now.In(time.UTC).Format(time.RFC3339Nano),
		DurSec:           elapsedSec,
		CumNumCalls:      r.cur.cumNumCalls,
		CumNumPoints:     r.cur.cumNumPoints,
		MeanCallsPerSec:  float64(r.cur.cumNumCalls-r.prev.cumNumCalls) / elapsedSec,
		MeanPointsPerSec: float64(r.cur.cumNumPoints-r.prev.cumNumPoints) / elapsedSec,
		Latency:          toLatencyStats(r.hists),
	}

	r.writeWG.Wait()
	r.writeWG.Add(1)
	go func() {
		err := writeJSONLine(r.out, rec)
		if err != nil {
			r.errMu.Lock()
			if r.err == nil {
				r.err = err
			}
			r.errMu.Unlock()
		}

		r.writeWG.Done()
	}()

	r.prevTime = now
	r.prev = r.cur
	for _, hist := range r.hists {
		hist.Reset()
	}
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.writeWG.Wait()
	err := r.out.Close()
	r.errMu.Lock()
	if r.err != nil {
		err = r.err
	}
	r.errMu.Unlock()
	r.mu.Unlock()

	return err
}

func toLatencyStats(hists map[string]*hdrhistogram.Histogram) []LatencyStats {
	stats := make([]LatencyStats, 0, len(hists))
	for kind, hist := range hists {
		stats = append(stats, LatencyStats{
			Kind:  kind,
			Count: hist.TotalCount(),
			P50Ns: hist.ValueAtPercentile(50),
			P90Ns: hist.ValueAtPercentile(90),
			P95Ns: hist.ValueAtPercentile(95),
			P99Ns: hist.ValueAtPercentile(99),
			MaxNs: hist.Max(),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Kind < stats[j].Kind
	})
	return stats
}

func writeJSONLine(w io.Writer, rec *StepRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

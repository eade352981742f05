package batch

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/uluyol/ewmstats/go/ewm"
	"github.com/uluyol/ewmstats/go/frame"
)

const testConfig = `
input: in.csv
output: out.csv
parallelism: 2
defaults:
  decay:
    com: 2
  minPeriods: 1
jobs:
  - name: x_mean
    column: x
  - name: x_mean_noadj
    column: x
    adjust: false
  - name: x_var
    stat: var
    column: x
    decay:
      span: 5
  - name: xy_cov
    stat: cov
    column: x
    other: "y"
    bias: true
  - name: x_mean_again
    stat: mean
    column: x
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input != "in.csv" || cfg.Output != "out.csv" || cfg.Parallelism != 2 {
		t.Errorf("bad top-level fields: %+v", cfg)
	}
	if len(cfg.Jobs) != 5 {
		t.Fatalf("got %d jobs, want 5", len(cfg.Jobs))
	}

	got := make([]ewm.Options, len(cfg.Jobs))
	for i, j := range cfg.Jobs {
		got[i] = cfg.Options(j)
	}
	com2 := ewm.DecaySpec{Com: ewm.F(2)}
	want := []ewm.Options{
		{Decay: com2, Adjust: true, MinPeriods: 1},
		{Decay: com2, Adjust: false, MinPeriods: 1},
		{Decay: ewm.DecaySpec{Span: ewm.F(5)}, Adjust: true, MinPeriods: 1},
		{Decay: com2, Adjust: true, Bias: true, MinPeriods: 1},
		{Decay: com2, Adjust: true, MinPeriods: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("want - got: %s", diff)
	}
	if cfg.Jobs[2].Stat != ewm.StatVar || cfg.Jobs[3].Stat != ewm.StatCov {
		t.Errorf("stats decoded as %v, %v", cfg.Jobs[2].Stat, cfg.Jobs[3].Stat)
	}
	if cfg.Jobs[0].Stat != ewm.StatMean {
		t.Errorf("job without stat decoded as %v, want mean", cfg.Jobs[0].Stat)
	}
	if cfg.Jobs[3].Other != "y" {
		t.Errorf("quoted column decoded as %q, want \"y\"", cfg.Jobs[3].Other)
	}
}

func TestParseConfigBooleanLikeColumns(t *testing.T) {
	const cfgText = `
defaults: {decay: {com: 1}}
jobs:
  - {name: quoted, column: "y"}
  - {name: quoted_no, column: "no"}
  - {name: bare, column: y}
`
	cfg, err := ParseConfig([]byte(cfgText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, j := range cfg.Jobs {
		got = append(got, j.Column)
	}
	// YAML 1.1 reads a bare y as a boolean.
	want := []string{"y", "no", "true"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("want - got: %s", diff)
	}

	in := &frame.Table{Names: []string{"y"}, Cols: [][]float64{{1, 2, 3}}}
	cfg.Jobs = cfg.Jobs[:1]
	out, _, err := Run(context.Background(), cfg, in)
	if err != nil {
		t.Fatalf("unexpected error running job over column y: %v", err)
	}
	if _, ok := out.Col("quoted"); !ok {
		t.Errorf("missing output column, got %v", out.Names)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		wantErr string
	}{
		{
			"ExclusiveDecay",
			"jobs:\n- {name: a, column: x, decay: {com: 1, span: 3}}\n",
			"mutually exclusive",
		},
		{
			"NoDecay",
			"jobs:\n- {name: a, column: x}\n",
			"must pass one of",
		},
		{
			"BadDomain",
			"jobs:\n- {name: a, column: x, decay: {alpha: 1.5}}\n",
			"alpha must satisfy: 0 < alpha <= 1",
		},
		{
			"UnknownStat",
			"jobs:\n- {name: a, stat: median, column: x, decay: {com: 1}}\n",
			"invalid stat",
		},
		{
			"CovNeedsOther",
			"jobs:\n- {name: a, stat: cov, column: x, decay: {com: 1}}\n",
			"needs another column",
		},
		{
			"MeanTakesOne",
			"jobs:\n- {name: a, column: x, other: z, decay: {com: 1}}\n",
			"takes a single column",
		},
		{
			"DuplicateName",
			"defaults: {decay: {com: 1}}\njobs:\n- {name: a, column: x}\n- {name: a, column: y}\n",
			"duplicate name",
		},
		{
			"NoJobs",
			"input: a.csv\n",
			"need at least one job",
		},
		{
			"NegativeMinPeriods",
			"jobs:\n- {name: a, column: x, decay: {com: 1}, minPeriods: -1}\n",
			"min_periods must satisfy",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(test.cfg))
			if err == nil {
				t.Fatalf("expected error containing %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("got error %q, want it to contain %q", err, test.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Parallelism: -1,
		Jobs: []Job{
			{Column: "x", Settings: Settings{Decay: ewm.DecaySpec{Com: ewm.F(1)}}},
			{Name: "b", Settings: Settings{Decay: ewm.DecaySpec{Com: ewm.F(1)}}},
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n\t"); n != 3 {
		t.Errorf("got %d errors, want 3:\n%v", n, err)
	}
}

func testTable() *frame.Table {
	nan := math.NaN()
	return &frame.Table{
		Names: []string{"x", "y"},
		Cols: [][]float64{
			{1, 2, nan, 4, 8},
			{2, 1, 5, nan, 3},
		},
	}
}

func TestRun(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	cfg.KeepInput = true
	in := testTable()
	out, sum, err := Run(context.Background(), cfg, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNames := []string{"x", "y", "x_mean", "x_mean_noadj", "x_var", "xy_cov", "x_mean_again"}
	if diff := cmp.Diff(wantNames, out.Names); diff != "" {
		t.Errorf("names: want - got: %s", diff)
	}

	for i, j := range cfg.Jobs {
		p, err := cfg.Options(j).Resolve()
		if err != nil {
			t.Fatal(err)
		}
		y, _ := in.Col(j.Other)
		x, _ := in.Col(j.Column)
		want := j.Stat.Compute(p, x, y)
		got, ok := out.Col(j.Name)
		if !ok {
			t.Errorf("missing output column %s", j.Name)
			continue
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("job %d (%s): want - got: %s", i, j.Name, diff)
		}
	}

	// Duplicate jobs must not alias the same slice.
	a, _ := out.Col("x_mean")
	b, _ := out.Col("x_mean_again")
	if &a[0] == &b[0] {
		t.Error("duplicate jobs share output storage")
	}

	if sum.RunID == "" || sum.Rows != 5 || len(sum.Columns) != 5 {
		t.Errorf("bad summary: %+v", sum)
	}
	v := sum.Columns[2]
	if v.Name != "x_var" || v.Valid != 4 || v.FirstValid != 1 {
		t.Errorf("x_var summary = %+v", v)
	}
	if got := v.Masked.ToArray(); !cmp.Equal(got, []uint32{0}) {
		t.Errorf("x_var masked = %v, want [0]", got)
	}

	var sb strings.Builder
	sum.Print(&sb, true)
	if !strings.Contains(sb.String(), "column x_var") || !strings.Contains(sb.String(), "1____") {
		t.Errorf("unexpected summary output:\n%s", sb.String())
	}
}

func TestRunMissingColumn(t *testing.T) {
	cfg := &Config{
		Jobs: []Job{{Name: "a", Stat: ewm.StatCorr, Column: "x", Other: "zzz",
			Settings: Settings{Decay: ewm.DecaySpec{Com: ewm.F(1)}}}},
	}
	if _, _, err := Run(context.Background(), cfg, testTable()); err == nil || !strings.Contains(err.Error(), "zzz") {
		t.Errorf("got err %v, want missing column error", err)
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := &Config{
		Jobs: []Job{{Name: "a", Column: "x", Settings: Settings{Decay: ewm.DecaySpec{Com: ewm.F(1)}}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Run(ctx, cfg, testTable())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got err %v, want context.Canceled", err)
	}
}

func TestSummarizeAllMissing(t *testing.T) {
	nan := math.NaN()
	cs := summarizeColumn(Job{Name: "a"}, ewm.DecaySpec{Com: ewm.F(1)}, []float64{nan, nan})
	if cs.Valid != 0 || cs.FirstValid != -1 || !math.IsNaN(cs.Mean) {
		t.Errorf("summary of all-missing column = %+v", cs)
	}
}

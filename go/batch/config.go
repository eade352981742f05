package batch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/uluyol/ewmstats/go/ewm"
)

// Settings are the policy parameters of a job. Unset fields inherit from
// Config.Defaults, and then from the library defaults.
type Settings struct {
	Decay      ewm.DecaySpec `json:"decay"`
	Adjust     *bool         `json:"adjust,omitempty"`
	IgnoreNA   *bool         `json:"ignoreNA,omitempty"`
	Bias       *bool         `json:"bias,omitempty"`
	MinPeriods *int          `json:"minPeriods,omitempty"`
}

// Job computes one statistic over one column (two for cov and corr).
// A job that omits stat computes the mean.
//
// Configs are decoded as YAML 1.1, so column names such as y, n, yes, no,
// on and off must be quoted ("y"); unquoted they decode as booleans and
// the column is looked up as "true" or "false".
type Job struct {
	Name   string   `json:"name"`
	Stat   ewm.Stat `json:"stat"`
	Column string   `json:"column"`
	// Other is the second column of cov and corr.
	Other string `json:"other,omitempty"`

	Settings
}

type Config struct {
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	Parallelism int      `json:"parallelism,omitempty"`
	KeepInput   bool     `json:"keepInput,omitempty"`
	Defaults    Settings `json:"defaults"`
	Jobs        []Job    `json:"jobs"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func pick(job, def *bool, fallback bool) bool {
	if job != nil {
		return *job
	}
	if def != nil {
		return *def
	}
	return fallback
}

// Options merges the job's settings over the defaults.
func (c *Config) Options(j Job) ewm.Options {
	o := ewm.Options{
		Decay:    j.Decay,
		Adjust:   pick(j.Adjust, c.Defaults.Adjust, true),
		IgnoreNA: pick(j.IgnoreNA, c.Defaults.IgnoreNA, false),
		Bias:     pick(j.Bias, c.Defaults.Bias, false),
	}
	if o.Decay.IsZero() {
		o.Decay = c.Defaults.Decay
	}
	switch {
	case j.MinPeriods != nil:
		o.MinPeriods = *j.MinPeriods
	case c.Defaults.MinPeriods != nil:
		o.MinPeriods = *c.Defaults.MinPeriods
	}
	return o
}

type configErrors []error

func (e configErrors) Unwrap() error { return e[0] }

func (e configErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	ss := make([]string, len(e))
	for i, err := range e {
		ss[i] = err.Error()
	}
	return "multiple errors:\n\t" + strings.Join(ss, "\n\t")
}

// Validate checks everything that does not depend on the input table.
func (c *Config) Validate() error {
	var errs configErrors
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must be non-negative (found %d)", c.Parallelism))
	}
	if len(c.Jobs) == 0 {
		errs = append(errs, errors.New("need at least one job"))
	}
	names := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		if j.Name == "" {
			errs = append(errs, fmt.Errorf("Jobs[%d] has no name", i))
		} else if names[j.Name] {
			errs = append(errs, fmt.Errorf("Jobs[%d]: duplicate name %q", i, j.Name))
		}
		names[j.Name] = true
		if j.Column == "" {
			errs = append(errs, fmt.Errorf("Jobs[%d] (%s): no column", i, j.Name))
		}
		if j.Stat.Pairwise() && j.Other == "" {
			errs = append(errs, fmt.Errorf("Jobs[%d] (%s): %s needs another column", i, j.Name, j.Stat))
		}
		if !j.Stat.Pairwise() && j.Other != "" {
			errs = append(errs, fmt.Errorf("Jobs[%d] (%s): %s takes a single column (found other %q)", i, j.Name, j.Stat, j.Other))
		}
		if _, err := c.Options(j).Resolve(); err != nil {
			errs = append(errs, fmt.Errorf("Jobs[%d] (%s): %w", i, j.Name, err))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

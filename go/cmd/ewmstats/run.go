package main

import (
	"context"
	"flag"
	"os"

	"fortio.org/fortio/log"
	"github.com/google/subcommands"
	"github.com/uluyol/ewmstats/go/batch"
	"github.com/uluyol/ewmstats/go/frame"
)

type runCmd struct {
	config  string
	input   string
	output  string
	verbose bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the jobs of a config over a CSV table" }
func (*runCmd) Usage() string    { return "run -c job.yaml [-i in.csv] [-o out.csv]\n" }

func (c *runCmd) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "c", "", "path to job config")
	fs.StringVar(&c.input, "i", "", "input CSV (overrides config)")
	fs.StringVar(&c.output, "o", "", "output CSV (overrides config)")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging and masked-position maps")
}

func (c *runCmd) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.config == "" || fs.NArg() != 0 {
		return subcommands.ExitUsageError
	}
	if c.verbose {
		log.SetLogLevel(log.Verbose)
	}

	cfg, err := batch.LoadConfig(c.config)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if c.input != "" {
		cfg.Input = c.input
	}
	if c.output != "" {
		cfg.Output = c.output
	}
	if cfg.Input == "" || cfg.Output == "" {
		log.Fatalf("need both input and output paths")
	}

	in, err := frame.ReadFile(cfg.Input)
	if err != nil {
		log.Fatalf("%v", err)
	}
	out, sum, err := batch.Run(ctx, cfg, in)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	if err := frame.WriteFile(cfg.Output, out); err != nil {
		log.Fatalf("%v", err)
	}
	sum.Print(os.Stdout, c.verbose)
	return subcommands.ExitSuccess
}

var _ subcommands.Command = new(runCmd)

// Package cli implements the epiclock command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/epiclock/internal/config"
	"github.com/okian/epiclock/pkg/logger"
	urfave "github.com/urfave/cli/v3"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Flag names shared by the subcommands.
const (
	flagMValues         = "m-values"
	flagFormat          = "format"
	flagLogLevel        = "log-level"
	flagParallel        = "parallel"
	flagCoefficientsDir = "coefficients-dir"
	flagModel           = "model"
	flagMetricsFile     = "metrics-file"
	flagWorkers         = "workers"

	flagOut     = "out"
	flagSeed    = "seed"
	flagMissing = "missing"
	flagExtra   = "extra"
)

// Execute creates and runs the CLI application.
func Execute() {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		logger.Get().Error(ctx, "fatal error", logger.Error(err))
		os.Exit(1)
	}
}

// app holds what the commands share. out receives reports; logs go to the
// global logger.
type app struct {
	out io.Writer
}

// newApp builds the command tree. Flags are created per call because urfave
// keeps parse state on the flag values.
func newApp(out io.Writer) *urfave.Command {
	a := &app{out: out}
	return &urfave.Command{
		Name:            "epiclock",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Estimate biological age from DNA methylation values",
		ArgsUsage:       "FILE...",
		HideHelpCommand: true,
		Writer:          out,
		Flags:           globalFlags(),
		Action:          a.score,
		Commands: []*urfave.Command{
			{
				Name:      "score",
				Usage:     "Score subject files against the configured clocks",
				ArgsUsage: "FILE...",
				Action:    a.score,
			},
			{
				Name:   "models",
				Usage:  "List the configured clocks",
				Action: a.models,
			},
			{
				Name:   "synth",
				Usage:  "Write a synthetic subject file covering every clock probe",
				Flags:  synthFlags(),
				Action: a.synth,
			},
		},
	}
}

func globalFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.BoolFlag{
			Name:  flagMValues,
			Usage: "Treat subject values as M-values and convert them to beta-values",
		},
		&urfave.StringFlag{
			Name:  flagFormat,
			Usage: "Output format [text, json, yaml]",
		},
		&urfave.StringFlag{
			Name:  flagLogLevel,
			Usage: "Log level [debug, info, warn, error]",
		},
		&urfave.BoolFlag{
			Name:  flagParallel,
			Usage: "Evaluate each clock on its own goroutine",
		},
		&urfave.StringFlag{
			Name:  flagCoefficientsDir,
			Usage: "Directory holding <model>.csv coefficient tables that replace the built-in ones",
		},
		&urfave.StringSliceFlag{
			Name:  flagModel,
			Usage: "Clock to evaluate (repeatable) [horvath, phenoage]",
		},
		&urfave.IntFlag{
			Name:  flagWorkers,
			Usage: "Subject files scored at once when several are given (default: one per CPU)",
		},
		&urfave.StringFlag{
			Name:  flagMetricsFile,
			Usage: "Write Prometheus metrics in text format to this path after the run",
		},
	}
}

// loadConfig layers command line flags over config.Load and applies the
// resulting log level.
func loadConfig(ctx context.Context, cmd *urfave.Command) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet(flagMValues) {
		cfg.MValues = cmd.Bool(flagMValues)
	}
	if cmd.IsSet(flagFormat) {
		cfg.Format = cmd.String(flagFormat)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagParallel) {
		cfg.ParallelModels = cmd.Bool(flagParallel)
	}
	if cmd.IsSet(flagCoefficientsDir) {
		cfg.CoefficientsDir = cmd.String(flagCoefficientsDir)
	}
	if cmd.IsSet(flagModel) {
		cfg.Models = cmd.StringSlice(flagModel)
	}
	if cmd.IsSet(flagWorkers) {
		cfg.Workers = cmd.Int(flagWorkers)
	}
	if cmd.IsSet(flagMetricsFile) {
		cfg.MetricsFile = cmd.String(flagMetricsFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	service "github.com/okian/epiclock/internal/app"
	"github.com/okian/epiclock/internal/synth"
	"github.com/okian/epiclock/pkg/logger"
	urfave "github.com/urfave/cli/v3"
)

const (
	defaultSeed = 42
	fileMode    = 0o644
)

func synthFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:  flagOut,
			Usage: "Output path; a .gz suffix compresses the file (default: stdout)",
		},
		&urfave.Int64Flag{
			Name:  flagSeed,
			Usage: "Pseudo-random seed; equal seeds produce equal files",
			Value: defaultSeed,
		},
		&urfave.FloatFlag{
			Name:  flagMissing,
			Usage: "Share of values left empty, in [0, 1]",
		},
		&urfave.IntFlag{
			Name:  flagExtra,
			Usage: "Number of extra probes unknown to every clock",
		},
	}
}

func (a *app) synth(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	missing := cmd.Float(flagMissing)
	if missing < 0 || missing > 1 {
		return fmt.Errorf("--%s must be within [0, 1], got %v", flagMissing, missing)
	}

	models, err := service.LoadModels(cfg)
	if err != nil {
		return fmt.Errorf("loading clocks: %w", err)
	}

	gen := synth.NewGenerator(
		synth.WithSeed(cmd.Int64(flagSeed)),
		synth.WithMissingRatio(missing),
		synth.WithExtraProbes(cmd.Int(flagExtra)),
	)

	out := cmd.String(flagOut)
	w, closeOut, err := a.openOut(out)
	if err != nil {
		return err
	}

	st, err := gen.Write(w, models)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logger.Named("synth").Info(ctx, "synthetic subject written",
		logger.String("out", out),
		logger.Int("rows", st.Rows),
		logger.Int("missing", st.Missing),
	)
	return nil
}

// openOut returns the writer for path, or the command output when path is
// empty. The close func flushes any compression layer.
func (a *app) openOut(path string) (io.Writer, func() error, error) {
	if path == "" {
		return a.out, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}

	zw := gzip.NewWriter(f)
	return zw, func() error {
		if err := zw.Close(); err != nil {
			_ = f.Close()
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		return f.Close()
	}, nil
}

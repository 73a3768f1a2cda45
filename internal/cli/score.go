package cli

import (
	"context"
	"errors"
	"fmt"

	service "github.com/okian/epiclock/internal/app"
	"github.com/okian/epiclock/internal/report"
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
	urfave "github.com/urfave/cli/v3"
)

func (a *app) score(ctx context.Context, cmd *urfave.Command) error {
	if cmd.NArg() == 0 {
		return ErrMissingInput
	}
	paths := cmd.Args().Slice()

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	models, err := service.LoadModels(cfg)
	if err != nil {
		return fmt.Errorf("loading clocks: %w", err)
	}

	var m *metrics.Manager
	if cfg.MetricsFile != "" {
		m = metrics.NewManager()
	}

	svc := service.New(models,
		service.WithMValues(cfg.MValues),
		service.WithParallelModels(cfg.ParallelModels),
		service.WithLogger(logger.Named("service")),
		service.WithMetrics(m),
	)

	reps, err := svc.ScoreFiles(ctx, paths, cfg.Workers)
	if m != nil {
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	if err != nil {
		return err
	}

	return report.WriteAll(a.out, cfg.Format, reps)
}

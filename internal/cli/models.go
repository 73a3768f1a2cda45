package cli

import (
	"context"
	"fmt"

	service "github.com/okian/epiclock/internal/app"
	"github.com/okian/epiclock/internal/report"
	urfave "github.com/urfave/cli/v3"
)

func (a *app) models(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	models, err := service.LoadModels(cfg)
	if err != nil {
		return fmt.Errorf("loading clocks: %w", err)
	}
	return report.WriteModels(a.out, cfg.Format, report.Describe(models))
}

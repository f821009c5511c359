package migrate

import (
	"context"
	"fmt"

	"github.com/stockflowhq/stockflow-backend/pkg/config"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot when the auto-migrate flag is
// set. Refused outside dev so production schema changes stay explicit.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.App.IsProd() {
		return fmt.Errorf("auto-migrate is not allowed in prod")
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("get sql db handle: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "running dev auto-migrations")
	}
	return Run(ctx, sqlDB, DefaultDir, "up")
}

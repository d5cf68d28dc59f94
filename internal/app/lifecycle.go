package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/pkg/logger"
)

// Start begins consuming background jobs. Without a database there is no
// job queue and Start is a no-op.
func (a *Application) Start(ctx context.Context) error {
	if !a.hasJobQueue() {
		return nil
	}
	if err := a.DB.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start job queue: %w", err)
	}
	logger.Info("Job queue started")
	return nil
}

// Shutdown releases components in dependency order: the job queue stops
// taking work, modules flush, pending mail drains, then the pool closes.
// ctx bounds how long running jobs may take to finish.
func (a *Application) Shutdown(ctx context.Context) {
	if a.hasJobQueue() {
		if err := a.DB.RiverClient.Stop(ctx); err != nil {
			logger.Error("Job queue did not stop cleanly", zap.Error(err))
		}
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			logger.Warn("Module shutdown failed", zap.String("module", mod.Name()), zap.Error(err))
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	logger.Info("Application stopped")
}

func (a *Application) hasJobQueue() bool {
	return a.DB != nil && a.DB.RiverClient != nil
}

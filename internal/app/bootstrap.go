// Package app is the composition root: it builds infrastructure, domain
// modules and the HTTP router. It holds no business logic.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/app/modules"
	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/infrastructure"
	"pitlane.io/pitlane/internal/jobs"
	"pitlane.io/pitlane/internal/pkg/worker"
	"pitlane.io/pitlane/internal/repository"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	app, err := compose(cfg, infra)
	if err != nil {
		infra.Close()
		return nil, err
	}

	workers := river.NewWorkers()
	for _, mod := range app.Modules {
		mod.RegisterWorkers(workers)
	}
	periodic := []*river.PeriodicJob{
		jobs.PeriodicOverdueInvoices(cfg.River.OverdueSweepInterval),
	}
	if err := infra.InitRiver(workers, periodic); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}
	return app, nil
}

// BootstrapWithStore composes the application over an existing Store.
// The readiness probe reports the database as unconfigured and no background
// jobs run.
func BootstrapWithStore(cfg *config.Config, store repository.Store) (*Application, error) {
	infra, err := modules.NewInfrastructureWithStore(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	app, err := compose(cfg, infra)
	if err != nil {
		infra.Close()
		return nil, err
	}
	return app, nil
}

func compose(cfg *config.Config, infra *modules.Infrastructure) (*Application, error) {
	approvalModule, err := modules.NewApprovalModule(infra)
	if err != nil {
		return nil, fmt.Errorf("init approval module: %w", err)
	}
	billingModule, err := modules.NewBillingModule(infra)
	if err != nil {
		return nil, fmt.Errorf("init billing module: %w", err)
	}

	allModules := []modules.Module{
		modules.NewAccountModule(infra),
		modules.NewWorkshopModule(infra),
		approvalModule,
		billingModule,
	}
	serverDeps := modules.NewServerDeps(cfg, infra, allModules)
	server := handlers.NewServer(serverDeps)

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, serverDeps.JWTCfg),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
	}, nil
}

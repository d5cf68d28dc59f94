package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/governance/audit"
	"pitlane.io/pitlane/internal/infrastructure"
	"pitlane.io/pitlane/internal/notification"
	"pitlane.io/pitlane/internal/pkg/worker"
	"pitlane.io/pitlane/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config      *config.Config
	DB          *infrastructure.DatabaseClients
	Pools       *worker.Pools
	Store       repository.Store
	AuditLogger *audit.Logger
	Mailer      notification.Mailer
}

// NewInfrastructure opens the database, the worker pools and the mail transport.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	// Dev-mode: apply the embedded schema on startup.
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	infra, err := NewInfrastructureWithStore(cfg, db.Store)
	if err != nil {
		db.Close()
		return nil, err
	}
	infra.DB = db
	return infra, nil
}

// NewInfrastructureWithStore builds everything except the database on top of
// an existing Store.
func NewInfrastructureWithStore(cfg *config.Config, store repository.Store) (*Infrastructure, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("infrastructure requires config and store")
	}

	poolCfg := worker.DefaultPoolConfig()
	if cfg.Worker.MailPoolSize > 0 {
		poolCfg.MailPoolSize = cfg.Worker.MailPoolSize
	}
	pools, err := worker.NewPools(poolCfg)
	if err != nil {
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	mailer, err := notification.NewMailer(cfg.Mail, pools.Mail)
	if err != nil {
		pools.Shutdown()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	return &Infrastructure{
		Config:      cfg,
		Pools:       pools,
		Store:       store,
		AuditLogger: audit.NewLogger(store),
		Mailer:      mailer,
	}, nil
}

// InitRiver creates the River client on the shared pool. Without a database
// it is a no-op and background jobs do not run.
func (i *Infrastructure) InitRiver(workers *river.Workers, periodic []*river.PeriodicJob) error {
	if i == nil || i.Config == nil {
		return fmt.Errorf("infrastructure is not initialized")
	}
	if i.DB == nil {
		return nil
	}
	if err := i.DB.InitRiverClient(workers, periodic, i.Config.River); err != nil {
		return fmt.Errorf("init river: %w", err)
	}
	return nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}

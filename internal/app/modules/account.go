package modules

import (
	"context"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/service"
)

// AccountModule wires password login.
type AccountModule struct {
	users *service.UserService
}

func NewAccountModule(infra *Infrastructure) *AccountModule {
	return &AccountModule{
		users: service.NewUserService(infra.Store, infra.Config.Security.BcryptCost),
	}
}

func (m *AccountModule) Name() string { return "account" }

func (m *AccountModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Users = m.users
}

func (m *AccountModule) RegisterWorkers(_ *river.Workers) {}

func (m *AccountModule) Shutdown(context.Context) error { return nil }

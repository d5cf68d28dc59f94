package modules

import (
	"context"
	"testing"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/jobs"
	"pitlane.io/pitlane/internal/testutil"
)

func memInfra(t *testing.T) *Infrastructure {
	t.Helper()
	cfg := &config.Config{
		Security: config.SecurityConfig{SessionSecret: "modules-test-secret-0123456789abcdef", BcryptCost: 4},
		Mail:     config.MailConfig{Driver: config.MailDriverLog},
		Billing:  config.BillingConfig{ShopName: "Pitlane", Currency: "USD"},
	}
	infra, err := NewInfrastructureWithStore(cfg, testutil.NewMemStore())
	require.NoError(t, err)
	t.Cleanup(infra.Close)
	return infra
}

func TestNewApprovalModule_RequiresInfraDependencies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		infra *Infrastructure
	}{
		{name: "nil infra", infra: nil},
		{name: "missing all core deps", infra: &Infrastructure{}},
		{name: "missing audit logger", infra: &Infrastructure{Store: testutil.NewMemStore()}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewApprovalModule(tc.infra)
			assert.Error(t, err)
		})
	}
}

func TestNewBillingModule_RequiresMailer(t *testing.T) {
	t.Parallel()
	_, err := NewBillingModule(&Infrastructure{Store: testutil.NewMemStore()})
	assert.Error(t, err)
}

func TestNewInfrastructureWithStore_RejectsMissingInputs(t *testing.T) {
	t.Parallel()
	_, err := NewInfrastructureWithStore(nil, testutil.NewMemStore())
	assert.Error(t, err)
	_, err = NewInfrastructureWithStore(&config.Config{}, nil)
	assert.Error(t, err)
	_, err = NewInfrastructureWithStore(&config.Config{Mail: config.MailConfig{Driver: "pigeon"}}, testutil.NewMemStore())
	assert.Error(t, err)
}

func TestNewServerDeps_EveryModuleContributes(t *testing.T) {
	infra := memInfra(t)

	approvalModule, err := NewApprovalModule(infra)
	require.NoError(t, err)
	billingModule, err := NewBillingModule(infra)
	require.NoError(t, err)

	mods := []Module{
		NewAccountModule(infra),
		NewWorkshopModule(infra),
		approvalModule,
		billingModule,
		nil,
	}
	deps := NewServerDeps(infra.Config, infra, mods)

	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.Pools)
	assert.Equal(t, "pitlane", deps.JWTCfg.Issuer)
	assert.Equal(t, defaultLifetime, deps.JWTCfg.ExpiresIn)
	assert.NotEmpty(t, deps.JWTCfg.SigningKey)
	assert.NotNil(t, deps.Users)
	assert.NotNil(t, deps.Vehicles)
	assert.NotNil(t, deps.Services)
	assert.NotNil(t, deps.Parts)
	assert.NotNil(t, deps.Requests)
	assert.NotNil(t, deps.Gateway)
	assert.NotNil(t, deps.Invoices)

	for _, mod := range mods {
		if mod == nil {
			continue
		}
		assert.NotEmpty(t, mod.Name())
		assert.NoError(t, mod.Shutdown(context.Background()))
		mod.ContributeServerDeps(nil)
	}
	_ = handlers.NewServer(deps)
}

func TestBillingModule_RegistersOverdueSweep(t *testing.T) {
	infra := memInfra(t)
	billingModule, err := NewBillingModule(infra)
	require.NoError(t, err)

	workers := river.NewWorkers()
	for _, mod := range []Module{NewAccountModule(infra), NewWorkshopModule(infra), billingModule} {
		mod.RegisterWorkers(workers)
	}
	billingModule.RegisterWorkers(nil)

	// A second worker of the same kind is rejected once the module registered one.
	err = river.AddWorkerSafely(workers, jobs.NewOverdueInvoicesWorker(nil, 0))
	assert.Error(t, err)
}

func TestInfrastructure_InitRiverWithoutDatabase(t *testing.T) {
	infra := memInfra(t)
	assert.NoError(t, infra.InitRiver(river.NewWorkers(), nil))
	assert.Nil(t, infra.DB)

	var nilInfra *Infrastructure
	assert.Error(t, nilInfra.InitRiver(river.NewWorkers(), nil))
}

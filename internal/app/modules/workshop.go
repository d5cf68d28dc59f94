package modules

import (
	"context"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/service"
	"pitlane.io/pitlane/internal/usecase"
)

// WorkshopModule owns vehicles, the service workflow, the parts catalogue
// and mechanics' spare-part requests.
type WorkshopModule struct {
	vehicles *service.VehicleService
	services *service.ServiceWorkflow
	parts    *service.SparePartService
	requests *usecase.RequestUseCase
}

func NewWorkshopModule(infra *Infrastructure) *WorkshopModule {
	return &WorkshopModule{
		vehicles: service.NewVehicleService(infra.Store, infra.AuditLogger),
		services: service.NewServiceWorkflow(infra.Store, infra.AuditLogger),
		parts:    service.NewSparePartService(infra.Store, infra.AuditLogger),
		requests: usecase.NewRequestUseCase(infra.Store, infra.AuditLogger),
	}
}

func (m *WorkshopModule) Name() string { return "workshop" }

func (m *WorkshopModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Vehicles = m.vehicles
	deps.Services = m.services
	deps.Parts = m.parts
	deps.Requests = m.requests
}

func (m *WorkshopModule) RegisterWorkers(_ *river.Workers) {}

func (m *WorkshopModule) Shutdown(context.Context) error { return nil }

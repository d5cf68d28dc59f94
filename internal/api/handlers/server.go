// Package handlers implements the HTTP surface described by the embedded
// OpenAPI contract (internal/api/openapi).
//
// Handlers bind and validate the request, call one service or use case and
// present the result. Business errors are pushed with c.Error and rendered by
// middleware.ErrorHandler.
package handlers

import (
	"context"

	"pitlane.io/pitlane/internal/api/middleware"
	"pitlane.io/pitlane/internal/governance/approval"
	"pitlane.io/pitlane/internal/service"
	"pitlane.io/pitlane/internal/usecase"
)

// Pinger reports database reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolMetrics exposes worker pool occupancy for the readiness probe.
type PoolMetrics interface {
	Metrics() map[string]interface{}
}

// Server implements all API handlers.
type Server struct {
	db       Pinger
	pools    PoolMetrics
	jwtCfg   middleware.JWTConfig
	users    *service.UserService
	vehicles *service.VehicleService
	services *service.ServiceWorkflow
	parts    *service.SparePartService
	requests *usecase.RequestUseCase
	gateway  *approval.Gateway
	invoices *usecase.InvoiceEngine
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	DB       Pinger
	Pools    PoolMetrics
	JWTCfg   middleware.JWTConfig
	Users    *service.UserService
	Vehicles *service.VehicleService
	Services *service.ServiceWorkflow
	Parts    *service.SparePartService
	Requests *usecase.RequestUseCase
	Gateway  *approval.Gateway
	Invoices *usecase.InvoiceEngine
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		db:       deps.DB,
		pools:    deps.Pools,
		jwtCfg:   deps.JWTCfg,
		users:    deps.Users,
		vehicles: deps.Vehicles,
		services: deps.Services,
		parts:    deps.Parts,
		requests: deps.Requests,
		gateway:  deps.Gateway,
		invoices: deps.Invoices,
	}
}

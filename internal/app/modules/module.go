// Package modules groups Pitlane's services into units the composition root
// wires together: accounts, workshop, approval and billing. Each unit hands
// its services to the HTTP layer and its jobs to the queue.
package modules

import (
	"context"

	"github.com/riverqueue/river"

	"pitlane.io/pitlane/internal/api/handlers"
)

// Module is one unit of the composition root.
type Module interface {
	Name() string

	// ContributeServerDeps fills the handler dependencies the module owns.
	ContributeServerDeps(*handlers.ServerDeps)

	// RegisterWorkers adds the module's background job workers.
	RegisterWorkers(*river.Workers)

	// Shutdown flushes module-local state. ctx bounds the wait.
	Shutdown(context.Context) error
}

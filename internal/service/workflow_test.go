package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/testutil"
)

func newWorkflow(w *testutil.Workshop) *ServiceWorkflow {
	return NewServiceWorkflow(w.Store, audit.NewLogger(w.Store))
}

func TestServiceWorkflow_Create(t *testing.T) {
	w := testutil.NewWorkshop(t)
	when := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

	svc, err := newWorkflow(w).Create(context.Background(), testutil.Actor(w.Owner), CreateServiceInput{
		VehicleID:     w.Vehicle.ID,
		Description:   "  Oil change  ",
		ScheduledDate: when,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusPending, svc.Status)
	assert.Equal(t, "Oil change", svc.Description)
	assert.Nil(t, svc.MechanicID)
	assert.Nil(t, svc.InvoiceID)
	assert.True(t, svc.ScheduledDate.Equal(when))
}

func TestServiceWorkflow_CreateErrors(t *testing.T) {
	tests := []struct {
		name     string
		actor    func(w *testutil.Workshop) domain.Actor
		in       func(w *testutil.Workshop) CreateServiceInput
		wantCode string
	}{
		{
			name:  "mechanic cannot open services",
			actor: func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Mechanic) },
			in: func(w *testutil.Workshop) CreateServiceInput {
				return CreateServiceInput{VehicleID: w.Vehicle.ID, Description: "x", ScheduledDate: time.Now()}
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:  "someone else's vehicle",
			actor: func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.OtherOwner) },
			in: func(w *testutil.Workshop) CreateServiceInput {
				return CreateServiceInput{VehicleID: w.Vehicle.ID, Description: "x", ScheduledDate: time.Now()}
			},
			wantCode: apperrors.CodeNotVehicleOwner,
		},
		{
			name:  "unknown vehicle",
			actor: func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Owner) },
			in: func(w *testutil.Workshop) CreateServiceInput {
				return CreateServiceInput{VehicleID: "missing", Description: "x", ScheduledDate: time.Now()}
			},
			wantCode: apperrors.CodeVehicleNotFound,
		},
		{
			name:  "missing fields",
			actor: func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Owner) },
			in: func(w *testutil.Workshop) CreateServiceInput {
				return CreateServiceInput{VehicleID: w.Vehicle.ID}
			},
			wantCode: apperrors.CodeValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.NewWorkshop(t)
			_, err := newWorkflow(w).Create(context.Background(), tt.actor(w), tt.in(w))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestServiceWorkflow_AssignIsPermissive(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()
	admin := testutil.Actor(w.Admin)

	svc := w.AddService(t, w.Vehicle.ID, domain.ServiceStatusPending, nil)

	got, err := wf.Assign(ctx, admin, svc.ID, &w.OtherMechanic.ID, domain.ServiceStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, got.MechanicID)
	assert.Equal(t, w.OtherMechanic.ID, *got.MechanicID)
	assert.Equal(t, domain.ServiceStatusInProgress, got.Status)

	// Backwards and unassigned: still accepted.
	got, err = wf.Assign(ctx, admin, svc.ID, nil, domain.ServiceStatusPending)
	require.NoError(t, err)
	assert.Nil(t, got.MechanicID)
	assert.Equal(t, domain.ServiceStatusPending, got.Status)

	entries := w.Store.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionServiceAssigned, entries[0].Action)
}

func TestServiceWorkflow_AssignErrors(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()
	admin := testutil.Actor(w.Admin)

	_, err := wf.Assign(ctx, testutil.Actor(w.Mechanic), w.Service.ID, nil, domain.ServiceStatusPending)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = wf.Assign(ctx, admin, w.Service.ID, nil, domain.ServiceStatus("Paused"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = wf.Assign(ctx, admin, w.Service.ID, &w.Owner.ID, domain.ServiceStatusInProgress)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	missing := "missing"
	_, err = wf.Assign(ctx, admin, w.Service.ID, &missing, domain.ServiceStatusInProgress)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))

	_, err = wf.Assign(ctx, admin, "missing", nil, domain.ServiceStatusInProgress)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceNotFound))
}

// The complete endpoint only moves a mechanic's service to Completed.
func TestServiceWorkflow_MechanicMayOnlyComplete(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()
	mechanic := testutil.Actor(w.Mechanic)

	_, err := wf.Complete(ctx, mechanic, w.Service.ID, domain.ServiceStatusCancelled)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeMechanicCompleteOnly, appErr.Code)
	assert.Equal(t, 403, appErr.HTTPStatus)

	unchanged, err := w.Store.GetService(ctx, w.Service.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusInProgress, unchanged.Status)

	done, err := wf.Complete(ctx, mechanic, w.Service.ID, domain.ServiceStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusCompleted, done.Status)

	// Idempotent.
	again, err := wf.Complete(ctx, mechanic, w.Service.ID, domain.ServiceStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusCompleted, again.Status)
	require.Len(t, w.Store.AuditEntries(), 1)
}

func TestServiceWorkflow_CompleteErrors(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()

	_, err := wf.Complete(ctx, testutil.Actor(w.Admin), w.Service.ID, domain.ServiceStatusCompleted)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = wf.Complete(ctx, testutil.Actor(w.OtherMechanic), w.Service.ID, domain.ServiceStatusCompleted)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAssignedMechanic))

	cancelled := w.AddService(t, w.Vehicle.ID, domain.ServiceStatusCancelled, &w.Mechanic.ID)
	_, err = wf.Complete(ctx, testutil.Actor(w.Mechanic), cancelled.ID, domain.ServiceStatusCompleted)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceCancelled))

	_, err = wf.Complete(ctx, testutil.Actor(w.Mechanic), "missing", domain.ServiceStatusCompleted)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceNotFound))
}

func TestServiceWorkflow_CompleteStoreFailure(t *testing.T) {
	w := testutil.NewWorkshop(t)
	w.Store.FailOn("CompareAndSetServiceStatus", errors.New("connection reset"))

	_, err := newWorkflow(w).Complete(context.Background(), testutil.Actor(w.Mechanic), w.Service.ID, domain.ServiceStatusCompleted)
	require.Error(t, err)
	_, isApp := apperrors.IsAppError(err)
	assert.False(t, isApp)
}

func TestServiceWorkflow_Rate(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()
	owner := testutil.Actor(w.Owner)

	_, err := wf.Rate(ctx, owner, w.Service.ID, 5)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceNotCompleted), "got %v", err)

	w.Complete(t, w.Service)

	_, err = wf.Rate(ctx, testutil.Actor(w.OtherOwner), w.Service.ID, 5)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotVehicleOwner))
	_, err = wf.Rate(ctx, owner, w.Service.ID, 6)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	_, err = wf.Rate(ctx, owner, w.Service.ID, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	rated, err := wf.Rate(ctx, owner, w.Service.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	_, err = wf.Rate(ctx, owner, w.Service.ID, 2)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRatingAlreadySet))

	stored, err := w.Store.GetService(ctx, w.Service.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Rating)
}

func TestServiceWorkflow_ConcurrentRatingsFirstWins(t *testing.T) {
	w := testutil.NewWorkshop(t)
	w.Complete(t, w.Service)
	wf := newWorkflow(w)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wf.Rate(context.Background(), testutil.Actor(w.Owner), w.Service.ID, i+1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeRatingAlreadySet), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestServiceWorkflow_ListAndGetScoping(t *testing.T) {
	w := testutil.NewWorkshop(t)
	wf := newWorkflow(w)
	ctx := context.Background()

	otherVehicle := w.AddVehicle(t, w.OtherOwner.ID, "PL-9009")
	otherSvc := w.AddService(t, otherVehicle.ID, domain.ServiceStatusPending, nil)

	tests := []struct {
		name  string
		actor domain.Actor
		want  int
	}{
		{"owner sees own vehicles", testutil.Actor(w.Owner), 1},
		{"other owner sees own vehicles", testutil.Actor(w.OtherOwner), 1},
		{"mechanic sees assignments", testutil.Actor(w.Mechanic), 1},
		{"unassigned mechanic sees nothing", testutil.Actor(w.OtherMechanic), 0},
		{"admin sees all", testutil.Actor(w.Admin), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wf.List(ctx, tt.actor, domain.ServiceFilter{})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	billable, err := wf.List(ctx, testutil.Actor(w.Admin), domain.ServiceFilter{Billable: true})
	require.NoError(t, err)
	assert.Empty(t, billable)
	w.Complete(t, w.Service)
	billable, err = wf.List(ctx, testutil.Actor(w.Admin), domain.ServiceFilter{Billable: true})
	require.NoError(t, err)
	assert.Len(t, billable, 1)

	_, err = wf.List(ctx, testutil.Actor(w.Admin), domain.ServiceFilter{Status: "Done"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = wf.Get(ctx, testutil.Actor(w.Owner), w.Service.ID)
	require.NoError(t, err)
	_, err = wf.Get(ctx, testutil.Actor(w.Mechanic), w.Service.ID)
	require.NoError(t, err)
	_, err = wf.Get(ctx, testutil.Actor(w.Owner), otherSvc.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceNotFound))
	_, err = wf.Get(ctx, testutil.Actor(w.OtherMechanic), w.Service.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeServiceNotFound))
}

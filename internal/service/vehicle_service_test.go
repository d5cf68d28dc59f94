package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/testutil"
)

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "AB-123", NormalizePlate("  ab-123 "))
	assert.Equal(t, "", NormalizePlate("   "))
}

func TestVehicleService_Create(t *testing.T) {
	w := testutil.NewWorkshop(t)
	svc := NewVehicleService(w.Store, audit.NewLogger(w.Store))

	v, err := svc.Create(context.Background(), testutil.Actor(w.OtherOwner), VehicleInput{
		Make: " Saab ", Model: "900", Year: 1994, Plate: " kx-42 ",
	})
	require.NoError(t, err)
	assert.Equal(t, w.OtherOwner.ID, v.OwnerID)
	assert.Equal(t, "Saab", v.Make)
	assert.Equal(t, "KX-42", v.Plate)
	assert.NotEmpty(t, v.ID)
}

func TestVehicleService_CreateErrors(t *testing.T) {
	tests := []struct {
		name      string
		actor     func(w *testutil.Workshop) domain.Actor
		in        VehicleInput
		wantCode  string
		wantField string
	}{
		{
			name:     "mechanic cannot register",
			actor:    func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Mechanic) },
			in:       VehicleInput{Make: "Saab", Model: "900", Year: 1994, Plate: "KX-1"},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:     "plate taken case-insensitively",
			actor:    func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.OtherOwner) },
			in:       VehicleInput{Make: "Saab", Model: "900", Year: 1994, Plate: "pl-1001"},
			wantCode: apperrors.CodePlateExists,
		},
		{
			name:      "year before cars",
			actor:     func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Owner) },
			in:        VehicleInput{Make: "Benz", Model: "Patent", Year: 1885, Plate: "OLD-1"},
			wantCode:  apperrors.CodeValidationFailed,
			wantField: "year",
		},
		{
			name:      "year too far ahead",
			actor:     func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Owner) },
			in:        VehicleInput{Make: "Saab", Model: "9-3", Year: time.Now().Year() + 2, Plate: "NEW-1"},
			wantCode:  apperrors.CodeValidationFailed,
			wantField: "year",
		},
		{
			name:      "blank plate",
			actor:     func(w *testutil.Workshop) domain.Actor { return testutil.Actor(w.Owner) },
			in:        VehicleInput{Make: "Saab", Model: "900", Year: 1994, Plate: "  "},
			wantCode:  apperrors.CodeValidationFailed,
			wantField: "plate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.NewWorkshop(t)
			_, err := NewVehicleService(w.Store, nil).Create(context.Background(), tt.actor(w), tt.in)
			require.Error(t, err)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, appErr.FieldErrors)
				assert.Equal(t, tt.wantField, appErr.FieldErrors[0].Field)
			}
		})
	}
}

func TestVehicleService_ListAndGetScoping(t *testing.T) {
	w := testutil.NewWorkshop(t)
	svc := NewVehicleService(w.Store, nil)
	ctx := context.Background()
	other := w.AddVehicle(t, w.OtherOwner.ID, "PL-2002")

	mine, err := svc.List(ctx, testutil.Actor(w.Owner))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, w.Vehicle.ID, mine[0].ID)

	all, err := svc.List(ctx, testutil.Actor(w.Admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, testutil.Actor(w.Mechanic))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Get(ctx, testutil.Actor(w.Owner), other.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVehicleNotFound))
	got, err := svc.Get(ctx, testutil.Actor(w.Admin), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "PL-2002", got.Plate)
}

func TestVehicleService_DeleteCascades(t *testing.T) {
	w := testutil.NewWorkshop(t)
	svc := NewVehicleService(w.Store, audit.NewLogger(w.Store))
	ctx := context.Background()
	w.AddRequest(t, w.Service, w.Part, 1, domain.RequestStatusPending)

	require.NoError(t, svc.Delete(ctx, testutil.Actor(w.Owner), w.Vehicle.ID))

	_, err := w.Store.GetService(ctx, w.Service.ID)
	assert.Error(t, err)
	reqs, err := w.Store.ListSparePartRequests(ctx, domain.RequestFilter{ServiceID: w.Service.ID})
	require.NoError(t, err)
	assert.Empty(t, reqs)

	entries := w.Store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionVehicleDeleted, entries[0].Action)
}

func TestVehicleService_DeleteGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("not the owner", func(t *testing.T) {
		w := testutil.NewWorkshop(t)
		err := NewVehicleService(w.Store, nil).Delete(ctx, testutil.Actor(w.OtherOwner), w.Vehicle.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotVehicleOwner))
	})

	t.Run("missing", func(t *testing.T) {
		w := testutil.NewWorkshop(t)
		err := NewVehicleService(w.Store, nil).Delete(ctx, testutil.Actor(w.Owner), "missing")
		assert.True(t, apperrors.HasCode(err, apperrors.CodeVehicleNotFound))
	})

	t.Run("issued invoice blocks deletion", func(t *testing.T) {
		w := testutil.NewWorkshop(t)
		w.Complete(t, w.Service)
		require.NoError(t, w.Store.CreateInvoice(ctx, &domain.Invoice{
			ID:          "inv-1",
			ServiceID:   w.Service.ID,
			VehicleID:   w.Vehicle.ID,
			UserID:      w.Owner.ID,
			LaborCost:   decimal.RequireFromString("10.00"),
			PartsCost:   decimal.Zero,
			Tax:         decimal.Zero,
			TotalAmount: decimal.RequireFromString("10.00"),
			Status:      domain.InvoiceStatusSent,
			CreatedAt:   time.Now().UTC(),
		}))

		err := NewVehicleService(w.Store, nil).Delete(ctx, testutil.Actor(w.Owner), w.Vehicle.ID)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeVehicleHasInvoices), "got %v", err)

		_, err = w.Store.GetVehicle(ctx, w.Vehicle.ID)
		assert.NoError(t, err)
	})

	t.Run("draft invoice goes with the vehicle", func(t *testing.T) {
		w := testutil.NewWorkshop(t)
		w.Complete(t, w.Service)
		require.NoError(t, w.Store.CreateInvoice(ctx, &domain.Invoice{
			ID:        "inv-2",
			ServiceID: w.Service.ID,
			VehicleID: w.Vehicle.ID,
			UserID:    w.Owner.ID,
			Status:    domain.InvoiceStatusDraft,
			CreatedAt: time.Now().UTC(),
		}))

		require.NoError(t, NewVehicleService(w.Store, nil).Delete(ctx, testutil.Actor(w.Owner), w.Vehicle.ID))
		_, err := w.Store.GetInvoice(ctx, "inv-2")
		assert.Error(t, err)
	})
}

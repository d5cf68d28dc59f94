package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/testutil"
)

func TestSparePartService_CRUD(t *testing.T) {
	w := testutil.NewWorkshop(t)
	svc := NewSparePartService(w.Store, audit.NewLogger(w.Store))
	ctx := context.Background()
	admin := testutil.Actor(w.Admin)

	created, err := svc.Create(ctx, admin, SparePartInput{
		Name: " Oil filter ", Price: decimal.RequireFromString("12.50"), Quantity: 4, CriticalLevel: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Oil filter", created.Name)
	assert.True(t, created.CriticalLevel)

	updated, err := svc.Update(ctx, admin, created.ID, SparePartInput{
		Name: "Oil filter XL", Price: decimal.RequireFromString("14.00"), Quantity: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Quantity)
	assert.False(t, updated.CriticalLevel)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("14")))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, admin, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSparePartNotFound))

	var actions []domain.AuditAction
	for _, e := range w.Store.AuditEntries() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []domain.AuditAction{
		domain.ActionSparePartCreated, domain.ActionSparePartUpdated, domain.ActionSparePartDeleted,
	}, actions)
}

func TestSparePartService_Errors(t *testing.T) {
	w := testutil.NewWorkshop(t)
	svc := NewSparePartService(w.Store, nil)
	ctx := context.Background()
	admin := testutil.Actor(w.Admin)
	valid := SparePartInput{Name: "Wiper", Price: decimal.RequireFromString("8.00"), Quantity: 1}

	tests := []struct {
		name     string
		call     func() error
		wantCode string
	}{
		{"mechanic cannot create", func() error {
			_, err := svc.Create(ctx, testutil.Actor(w.Mechanic), valid)
			return err
		}, apperrors.CodeForbidden},
		{"customer cannot delete", func() error {
			return svc.Delete(ctx, testutil.Actor(w.Owner), w.Part.ID)
		}, apperrors.CodeForbidden},
		{"negative price", func() error {
			_, err := svc.Create(ctx, admin, SparePartInput{Name: "x", Price: decimal.RequireFromString("-1")})
			return err
		}, apperrors.CodeValidationFailed},
		{"three decimals", func() error {
			_, err := svc.Create(ctx, admin, SparePartInput{Name: "x", Price: decimal.RequireFromString("1.005")})
			return err
		}, apperrors.CodeValidationFailed},
		{"negative stock", func() error {
			_, err := svc.Update(ctx, admin, w.Part.ID, SparePartInput{Name: "x", Price: decimal.Zero, Quantity: -1})
			return err
		}, apperrors.CodeValidationFailed},
		{"blank name", func() error {
			_, err := svc.Create(ctx, admin, SparePartInput{Name: " ", Price: decimal.Zero})
			return err
		}, apperrors.CodeValidationFailed},
		{"update missing", func() error {
			_, err := svc.Update(ctx, admin, "missing", valid)
			return err
		}, apperrors.CodeSparePartNotFound},
		{"delete missing", func() error {
			return svc.Delete(ctx, admin, "missing")
		}, apperrors.CodeSparePartNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestSparePartService_DeleteReferenced(t *testing.T) {
	w := testutil.NewWorkshop(t)
	w.AddRequest(t, w.Service, w.Part, 2, domain.RequestStatusRejected)

	err := NewSparePartService(w.Store, nil).Delete(context.Background(), testutil.Actor(w.Admin), w.Part.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSparePartInUse), "got %v", err)

	_, err = w.Store.GetSparePart(context.Background(), w.Part.ID)
	assert.NoError(t, err)
}

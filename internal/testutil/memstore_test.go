package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/repository"
)

func TestMemStore_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	w := NewWorkshop(t)
	boom := errors.New("boom")

	err := w.Store.InTx(ctx, func(tx repository.Store) error {
		ok, err := tx.DecrementStock(ctx, w.Part.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	part, err := w.Store.GetSparePart(ctx, w.Part.ID)
	require.NoError(t, err)
	require.Equal(t, 10, part.Quantity)
}

func TestMemStore_DecrementStockIsConditional(t *testing.T) {
	ctx := context.Background()
	w := NewWorkshop(t)

	ok, err := w.Store.DecrementStock(ctx, w.Part.ID, 11)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = w.Store.DecrementStock(ctx, w.Part.ID, 10)
	require.NoError(t, err)
	require.True(t, ok)

	part, err := w.Store.GetSparePart(ctx, w.Part.ID)
	require.NoError(t, err)
	require.Zero(t, part.Quantity)
}

func TestMemStore_FailOn(t *testing.T) {
	ctx := context.Background()
	w := NewWorkshop(t)
	boom := errors.New("db down")

	w.Store.FailOn("GetService", boom)
	_, err := w.Store.GetService(ctx, w.Service.ID)
	require.ErrorIs(t, err, boom)

	w.Store.FailOn("GetService", nil)
	_, err = w.Store.GetService(ctx, w.Service.ID)
	require.NoError(t, err)
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	w := NewWorkshop(t)

	svc, err := w.Store.GetService(ctx, w.Service.ID)
	require.NoError(t, err)
	svc.Status = domain.ServiceStatusCancelled

	again, err := w.Store.GetService(ctx, w.Service.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ServiceStatusInProgress, again.Status)
}

func TestMemStore_MarkInvoicesOverdue(t *testing.T) {
	ctx := context.Background()
	w := NewWorkshop(t)
	sentAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, w.Store.CreateInvoice(ctx, &domain.Invoice{
		ID:        "inv-1",
		ServiceID: w.Service.ID,
		VehicleID: w.Vehicle.ID,
		UserID:    w.Owner.ID,
		Status:    domain.InvoiceStatusDraft,
		CreatedAt: sentAt,
	}))

	ids, err := w.Store.MarkInvoicesOverdue(ctx, sentAt.Add(time.Hour), sentAt.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, ids)

	ok, err := w.Store.MarkInvoiceSent(ctx, "inv-1", sentAt)
	require.NoError(t, err)
	require.True(t, ok)

	ids, err = w.Store.MarkInvoicesOverdue(ctx, sentAt, sentAt.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, ids)

	ids, err = w.Store.MarkInvoicesOverdue(ctx, sentAt.Add(time.Second), sentAt.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{"inv-1"}, ids)

	inv, err := w.Store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusOverdue, inv.Status)
	require.True(t, inv.UpdatedAt.Equal(sentAt.Add(time.Hour)))

	w.Store.FailOn("MarkInvoicesOverdue", errors.New("db down"))
	_, err = w.Store.MarkInvoicesOverdue(ctx, sentAt.Add(time.Second), sentAt)
	require.Error(t, err)
}

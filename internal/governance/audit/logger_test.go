package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/testutil"
)

func TestLogger_LogDecision(t *testing.T) {
	store := testutil.NewMemStore()
	l := NewLogger(store)

	err := l.LogDecision(context.Background(), "req-1", domain.RequestStatusApproved, "admin-1",
		map[string]interface{}{"quantity": 2})
	require.NoError(t, err)

	entries := store.AuditEntries()
	require.Len(t, entries, 1)
	e := entries[0]
	require.True(t, strings.HasPrefix(e.ID, "audit-"))
	require.Equal(t, domain.ActionRequestApproved, e.Action)
	require.Equal(t, domain.ResourceSparePartRequest, e.ResourceType)
	require.Equal(t, "req-1", e.ResourceID)
	require.Equal(t, "admin-1", e.Actor)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(e.Details, &details))
	require.EqualValues(t, 2, details["quantity"])
}

func TestLogger_RejectedDecisionAction(t *testing.T) {
	store := testutil.NewMemStore()
	require.NoError(t, NewLogger(store).LogDecision(context.Background(), "req-2", domain.RequestStatusRejected, "admin-1", nil))

	entries := store.AuditEntries()
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionRequestRejected, entries[0].Action)
	require.Empty(t, entries[0].Details)
}

func TestLogger_WriteFailure(t *testing.T) {
	store := testutil.NewMemStore()
	store.FailOn("InsertAuditLog", errors.New("disk full"))

	err := NewLogger(store).LogInvoice(context.Background(), domain.ActionInvoiceDeleted, "inv-1", "admin-1", nil)
	require.Error(t, err)
	require.Empty(t, store.AuditEntries())
}

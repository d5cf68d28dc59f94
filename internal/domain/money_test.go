package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotal(t *testing.T) {
	got := LineTotal(3, decimal.RequireFromString("12.50"))
	assert.True(t, got.Equal(decimal.RequireFromString("37.5")), "got %s", got)
}

func TestSumApproved_IgnoresUndecidedAndRejected(t *testing.T) {
	reqs := []*SparePartRequest{
		{Status: RequestStatusApproved, TotalPrice: decimal.RequireFromString("20.00")},
		{Status: RequestStatusRejected, TotalPrice: decimal.RequireFromString("99.99")},
		{Status: RequestStatusPending, TotalPrice: decimal.RequireFromString("5.00")},
		{Status: RequestStatusApproved, TotalPrice: decimal.RequireFromString("30.10")},
	}
	assert.Equal(t, "50.10", FormatMoney(SumApproved(reqs)))
	assert.True(t, SumApproved(nil).IsZero())
}

func TestSumItems(t *testing.T) {
	items := []InvoiceItem{
		{Total: decimal.RequireFromString("0.10")},
		{Total: decimal.RequireFromString("0.20")},
	}
	// float64 would give 0.30000000000000004
	assert.True(t, SumItems(items).Equal(decimal.RequireFromString("0.3")))
}

func TestHasMoneyScale(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10", true},
		{"10.5", true},
		{"10.55", true},
		{"10.550", true},
		{"10.555", false},
		{"0.001", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, HasMoneyScale(d))
		})
	}
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, ServiceStatusInProgress.Valid())
	assert.False(t, ServiceStatus("Done").Valid())
	assert.True(t, InvoiceStatusOverdue.Valid())
	assert.False(t, InvoiceStatus("Void").Valid())
	assert.True(t, RequestStatusRejected.Decided())
	assert.False(t, RequestStatusPending.Decided())
	assert.False(t, Role("root").Valid())
}

func TestService_Billable(t *testing.T) {
	inv := "inv-1"
	tests := []struct {
		name string
		svc  Service
		want bool
	}{
		{"completed without invoice", Service{Status: ServiceStatusCompleted}, true},
		{"completed with invoice", Service{Status: ServiceStatusCompleted, InvoiceID: &inv}, false},
		{"in progress", Service{Status: ServiceStatusInProgress}, false},
		{"cancelled", Service{Status: ServiceStatusCancelled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.svc.Billable())
		})
	}
}

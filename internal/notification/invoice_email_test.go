package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/domain"
)

func sampleView() InvoiceView {
	return InvoiceView{
		Invoice: &domain.Invoice{
			ID: "0192f0c4-aaaa-bbbb-cccc-1234567890ab",
			Items: []domain.InvoiceItem{
				{Description: "Brake pad", Quantity: 2, UnitPrice: decimal.RequireFromString("25"), Total: decimal.RequireFromString("50")},
				{Description: "Oil <5W-30>", Quantity: 1, UnitPrice: decimal.RequireFromString("12.5"), Total: decimal.RequireFromString("12.5")},
			},
			PartsCost:   decimal.RequireFromString("62.5"),
			LaborCost:   decimal.RequireFromString("80"),
			Tax:         decimal.RequireFromString("14.25"),
			TotalAmount: decimal.RequireFromString("156.75"),
		},
		Service: &domain.Service{
			Description:   "Brake inspection",
			ScheduledDate: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		},
		Vehicle: &domain.Vehicle{Make: "Volvo", Model: "V70", Year: 2012, Plate: "PL-1001"},
		Owner:   &domain.User{Name: "Olga Owner"},
	}
}

func TestInvoiceRenderer_Render(t *testing.T) {
	r := NewInvoiceRenderer(config.BillingConfig{ShopName: "Pitlane Workshop", Currency: "EUR"})

	subject, body, err := r.Render(sampleView())
	require.NoError(t, err)

	assert.Equal(t, "Pitlane Workshop invoice INV-567890ab", subject)
	for _, want := range []string{
		"Dear Olga Owner",
		"2012 Volvo V70 (PL-1001)",
		"Brake inspection (2026-03-14)",
		"<td>Brake pad</td>",
		"<td align=\"right\">25.00</td>",
		"<td align=\"right\">12.50</td>",
		"62.50 EUR",
		"80.00 EUR",
		"14.25 EUR",
		"156.75 EUR",
	} {
		assert.Contains(t, body, want)
	}
	assert.Contains(t, body, "Oil &lt;5W-30&gt;")
	assert.NotContains(t, body, "Oil <5W-30>")
}

func TestInvoiceRenderer_NoItems(t *testing.T) {
	v := sampleView()
	v.Invoice.Items = nil

	_, body, err := NewInvoiceRenderer(config.BillingConfig{ShopName: "Pitlane"}).Render(v)
	require.NoError(t, err)
	assert.True(t, strings.Contains(body, "No spare parts"))
}

func TestInvoiceRenderer_IncompleteView(t *testing.T) {
	v := sampleView()
	v.Owner = nil

	_, _, err := NewInvoiceRenderer(config.BillingConfig{}).Render(v)
	require.Error(t, err)
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-567890ab", InvoiceNumber("0192f0c4-aaaa-bbbb-cccc-1234567890ab"))
	assert.Equal(t, "INV-abc", InvoiceNumber("abc"))
}

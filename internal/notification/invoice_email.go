package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/domain"
)

// InvoiceView is everything the invoice e-mail shows.
type InvoiceView struct {
	Invoice *domain.Invoice
	Service *domain.Service
	Vehicle *domain.Vehicle
	Owner   *domain.User
}

// InvoiceRenderer turns an invoice into the fixed line-item e-mail.
type InvoiceRenderer struct {
	shopName string
	currency string
	tmpl     *template.Template
}

// NewInvoiceRenderer creates a renderer labelled with the billing settings.
func NewInvoiceRenderer(cfg config.BillingConfig) *InvoiceRenderer {
	return &InvoiceRenderer{
		shopName: cfg.ShopName,
		currency: cfg.Currency,
		tmpl:     template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

type invoiceLine struct {
	Description string
	Quantity    int
	UnitPrice   string
	Total       string
}

type invoiceData struct {
	ShopName      string
	Currency      string
	InvoiceNumber string
	CustomerName  string
	Vehicle       string
	Plate         string
	Service       string
	ServiceDate   string
	Lines         []invoiceLine
	PartsCost     string
	LaborCost     string
	Tax           string
	TotalAmount   string
}

// Render returns the subject and HTML body for v.
func (r *InvoiceRenderer) Render(v InvoiceView) (subject, body string, err error) {
	if v.Invoice == nil || v.Service == nil || v.Vehicle == nil || v.Owner == nil {
		return "", "", fmt.Errorf("invoice view is incomplete")
	}
	inv := v.Invoice

	data := invoiceData{
		ShopName:      r.shopName,
		Currency:      r.currency,
		InvoiceNumber: InvoiceNumber(inv.ID),
		CustomerName:  v.Owner.Name,
		Vehicle:       fmt.Sprintf("%d %s %s", v.Vehicle.Year, v.Vehicle.Make, v.Vehicle.Model),
		Plate:         v.Vehicle.Plate,
		Service:       v.Service.Description,
		ServiceDate:   v.Service.ScheduledDate.UTC().Format(time.DateOnly),
		PartsCost:     domain.FormatMoney(inv.PartsCost),
		LaborCost:     domain.FormatMoney(inv.LaborCost),
		Tax:           domain.FormatMoney(inv.Tax),
		TotalAmount:   domain.FormatMoney(inv.TotalAmount),
	}
	for _, it := range inv.Items {
		data.Lines = append(data.Lines, invoiceLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   domain.FormatMoney(it.UnitPrice),
			Total:       domain.FormatMoney(it.Total),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render invoice %s: %w", inv.ID, err)
	}

	subject = fmt.Sprintf("%s invoice %s", r.shopName, data.InvoiceNumber)
	return subject, buf.String(), nil
}

// InvoiceNumber is the short human-facing form of an invoice id.
func InvoiceNumber(id string) string {
	if len(id) > 8 {
		return "INV-" + id[len(id)-8:]
	}
	return "INV-" + id
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<h2>{{.ShopName}}</h2>
<p>Dear {{.CustomerName}},</p>
<p>Please find below invoice <strong>{{.InvoiceNumber}}</strong> for the work on your {{.Vehicle}} ({{.Plate}}).</p>
<p>Service: {{.Service}} ({{.ServiceDate}})</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<thead>
<tr><th align="left">Description</th><th align="right">Qty</th><th align="right">Unit price ({{.Currency}})</th><th align="right">Total ({{.Currency}})</th></tr>
</thead>
<tbody>
{{- range .Lines}}
<tr><td>{{.Description}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.Total}}</td></tr>
{{- else}}
<tr><td colspan="4">No spare parts</td></tr>
{{- end}}
</tbody>
</table>
<table cellpadding="4" style="margin-top: 12px;">
<tr><td>Parts</td><td align="right">{{.PartsCost}} {{.Currency}}</td></tr>
<tr><td>Labor</td><td align="right">{{.LaborCost}} {{.Currency}}</td></tr>
<tr><td>Tax</td><td align="right">{{.Tax}} {{.Currency}}</td></tr>
<tr><td><strong>Total</strong></td><td align="right"><strong>{{.TotalAmount}} {{.Currency}}</strong></td></tr>
</table>
<p>Thank you for choosing {{.ShopName}}.</p>
</body>
</html>
`

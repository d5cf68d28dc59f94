package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits money amounts may carry.
const MoneyScale = 2

// MaxQuantity is the largest stock or line quantity a column can hold.
const MaxQuantity = math.MaxInt32

// MaxMoney is the largest amount NUMERIC(12,2) columns can hold.
var MaxMoney = decimal.RequireFromString("9999999999.99")

// LineTotal returns quantity × unitPrice.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumItems returns Σ item.Total.
func SumItems(items []InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}

// SumApproved returns Σ TotalPrice over Approved requests; other statuses are ignored.
func SumApproved(reqs []*SparePartRequest) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range reqs {
		if r.Status == RequestStatusApproved {
			sum = sum.Add(r.TotalPrice)
		}
	}
	return sum
}

// HasMoneyScale reports whether d has at most MoneyScale fractional digits.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// FormatMoney renders d with exactly MoneyScale fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// MoneyInRange reports whether 0 <= d <= MaxMoney.
func MoneyInRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(MaxMoney)
}

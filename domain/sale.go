package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPatientName = "Walk-in"

var hundred = decimal.NewFromInt(100)

// SaleLine records one medicine sold within an invoice. MedicineName and the
// amounts are copies taken at sale time and stay authoritative after the
// medicine itself is edited or deleted.
type SaleLine struct {
	ID            int64           `db:"id" json:"id"`
	TenantID      int64           `db:"tenant_id" json:"tenantId"`
	InvoiceID     string          `db:"invoice_id" json:"invoiceId"`
	MedicineID    int64           `db:"medicine_id" json:"medicineId"`
	MedicineName  string          `db:"medicine_name" json:"medicineName"`
	PatientName   string          `db:"patient_name" json:"patientName"`
	QuantitySold  int64           `db:"quantity_sold" json:"quantitySold"`
	PricePerUnit  decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`
	DiscountGiven decimal.Decimal `db:"discount_given" json:"discountGiven"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	SaleDate      time.Time       `db:"sale_date" json:"saleDate"`
}

// Invoice groups the lines of one checkout.
type Invoice struct {
	InvoiceID  string          `json:"invoiceId"`
	Lines      []SaleLine      `json:"lines"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// LineTotal is price × quantity × (1 − discount/100), rounded to cents.
func LineTotal(price decimal.Decimal, quantity int64, discount decimal.Decimal) decimal.Decimal {
	return price.
		Mul(decimal.NewFromInt(quantity)).
		Mul(hundred.Sub(discount)).
		Div(hundred).
		Round(2)
}

// ValidDiscount reports whether d is a percentage in [0, 100].
func ValidDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// EffectiveUnitPrice is the post-discount amount charged per unit.
func (s SaleLine) EffectiveUnitPrice() decimal.Decimal {
	if s.QuantitySold <= 0 {
		return decimal.Zero
	}
	return s.TotalAmount.Div(decimal.NewFromInt(s.QuantitySold))
}

// RefundFor returns the amount to give back for qty units. Returning the whole
// remaining quantity refunds the remaining total exactly, so the refunds of a
// line always add up to what was charged.
func (s SaleLine) RefundFor(qty int64) decimal.Decimal {
	if qty >= s.QuantitySold {
		return s.TotalAmount
	}
	return s.TotalAmount.
		Mul(decimal.NewFromInt(qty)).
		Div(decimal.NewFromInt(s.QuantitySold)).
		Round(2)
}

// SumTotals adds up the totals of lines.
func SumTotals(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalAmount)
	}
	return total
}

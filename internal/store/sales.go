package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"medeasy/pos/domain"
)

const saleColumns = `id, tenant_id, invoice_id, medicine_id, medicine_name, patient_name, quantity_sold,
	price_per_unit, discount_given, total_amount, sale_date`

func (q *Queries) InsertSale(ctx context.Context, tenantID int64, s *domain.SaleLine) error {
	s.TenantID = tenantID
	id, err := q.insertReturningID(ctx,
		`INSERT INTO sales (tenant_id, invoice_id, medicine_id, medicine_name, patient_name, quantity_sold,
		 price_per_unit, discount_given, total_amount, sale_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		tenantID, s.InvoiceID, s.MedicineID, s.MedicineName, s.PatientName, s.QuantitySold,
		s.PricePerUnit, s.DiscountGiven, s.TotalAmount, s.SaleDate)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	s.ID = id
	return nil
}

// ListSales returns the tenant's sale lines, newest first.
func (q *Queries) ListSales(ctx context.Context, tenantID int64) ([]domain.SaleLine, error) {
	return q.selectSales(ctx, `WHERE tenant_id = ? ORDER BY sale_date DESC, id DESC`, tenantID)
}

// SalesSince returns the tenant's sale lines dated at or after since, oldest first.
func (q *Queries) SalesSince(ctx context.Context, tenantID int64, since time.Time) ([]domain.SaleLine, error) {
	return q.selectSales(ctx, `WHERE tenant_id = ? AND sale_date >= ? ORDER BY sale_date, id`, tenantID, since)
}

// InvoiceLines returns the lines sharing invoiceID in insertion order.
func (q *Queries) InvoiceLines(ctx context.Context, tenantID int64, invoiceID string) ([]domain.SaleLine, error) {
	return q.selectSales(ctx, `WHERE tenant_id = ? AND invoice_id = ? ORDER BY id`, tenantID, invoiceID)
}

func (q *Queries) selectSales(ctx context.Context, where string, args ...interface{}) ([]domain.SaleLine, error) {
	lines := []domain.SaleLine{}
	if err := q.db.SelectContext(ctx, &lines, q.rebind(`SELECT `+saleColumns+` FROM sales `+where), args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return lines, nil
}

func (q *Queries) GetSale(ctx context.Context, tenantID, id int64) (domain.SaleLine, error) {
	return q.getSale(ctx, tenantID, id, "")
}

// LockSale reads the sale line and holds its row until the transaction ends.
func (q *Queries) LockSale(ctx context.Context, tenantID, id int64) (domain.SaleLine, error) {
	return q.getSale(ctx, tenantID, id, q.lockSuffix())
}

func (q *Queries) getSale(ctx context.Context, tenantID, id int64, suffix string) (domain.SaleLine, error) {
	var s domain.SaleLine
	err := q.db.GetContext(ctx, &s,
		q.rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ? AND tenant_id = ?`+suffix), id, tenantID)
	if isNoRows(err) {
		return s, domain.ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// ShrinkSale stores the reduced quantity and total left after a partial return.
func (q *Queries) ShrinkSale(ctx context.Context, tenantID, id, quantitySold int64, total decimal.Decimal) error {
	n, err := q.exec(ctx,
		`UPDATE sales SET quantity_sold = ?, total_amount = ? WHERE id = ? AND tenant_id = ?`,
		quantitySold, total, id, tenantID)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteSale(ctx context.Context, tenantID, id int64) error {
	n, err := q.exec(ctx, `DELETE FROM sales WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

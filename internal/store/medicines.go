package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"medeasy/pos/domain"
)

const medicineColumns = `id, tenant_id, name, category, expiry_date, quantity, price, discount, created_at, updated_at`

func (q *Queries) InsertMedicine(ctx context.Context, tenantID int64, m *domain.Medicine) error {
	m.TenantID = tenantID
	id, err := q.insertReturningID(ctx,
		`INSERT INTO medicines (tenant_id, name, category, expiry_date, quantity, price, discount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		tenantID, m.Name, string(m.Category), m.ExpiryDate, m.Quantity, m.Price, m.Discount, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert medicine: %w", err)
	}
	m.ID = id
	return nil
}

func (q *Queries) ListMedicines(ctx context.Context, tenantID int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := q.db.SelectContext(ctx, &meds,
		q.rebind(`SELECT `+medicineColumns+` FROM medicines WHERE tenant_id = ? ORDER BY id`), tenantID)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return meds, nil
}

// InStockMedicines returns the tenant's medicines with a positive quantity.
func (q *Queries) InStockMedicines(ctx context.Context, tenantID int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := q.db.SelectContext(ctx, &meds,
		q.rebind(`SELECT `+medicineColumns+` FROM medicines WHERE tenant_id = ? AND quantity > 0 ORDER BY id`), tenantID)
	if err != nil {
		return nil, fmt.Errorf("list in-stock medicines: %w", err)
	}
	return meds, nil
}

// LowStockMedicines returns the tenant's medicines with quantity below threshold.
func (q *Queries) LowStockMedicines(ctx context.Context, tenantID, threshold int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := q.db.SelectContext(ctx, &meds,
		q.rebind(`SELECT `+medicineColumns+` FROM medicines WHERE tenant_id = ? AND quantity < ? ORDER BY quantity, id`),
		tenantID, threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock medicines: %w", err)
	}
	return meds, nil
}

func (q *Queries) GetMedicine(ctx context.Context, tenantID, id int64) (domain.Medicine, error) {
	return q.getMedicine(ctx, tenantID, id, "")
}

// LockMedicine reads the medicine and holds its row until the transaction ends.
func (q *Queries) LockMedicine(ctx context.Context, tenantID, id int64) (domain.Medicine, error) {
	return q.getMedicine(ctx, tenantID, id, q.lockSuffix())
}

// LockMedicines locks the tenant's medicines with the given ids in ascending id
// order, so transactions locking overlapping sets cannot wait on each other in
// a cycle. Ids that do not exist or belong to another tenant are absent from
// the result.
func (q *Queries) LockMedicines(ctx context.Context, tenantID int64, ids []int64) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	if len(ids) == 0 {
		return meds, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+medicineColumns+` FROM medicines WHERE tenant_id = ? AND id IN (?) ORDER BY id`+q.lockSuffix(),
		tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare medicine lock: %w", err)
	}
	if err := q.db.SelectContext(ctx, &meds, q.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lock medicines: %w", err)
	}
	return meds, nil
}

func (q *Queries) getMedicine(ctx context.Context, tenantID, id int64, suffix string) (domain.Medicine, error) {
	var m domain.Medicine
	err := q.db.GetContext(ctx, &m,
		q.rebind(`SELECT `+medicineColumns+` FROM medicines WHERE id = ? AND tenant_id = ?`+suffix), id, tenantID)
	if isNoRows(err) {
		return m, domain.ErrNotFound
	}
	if err != nil {
		return m, fmt.Errorf("get medicine: %w", err)
	}
	return m, nil
}

// UpdateMedicine overwrites the mutable fields of m.
func (q *Queries) UpdateMedicine(ctx context.Context, tenantID int64, m *domain.Medicine) error {
	n, err := q.exec(ctx,
		`UPDATE medicines SET name = ?, category = ?, expiry_date = ?, quantity = ?, price = ?, discount = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		m.Name, string(m.Category), m.ExpiryDate, m.Quantity, m.Price, m.Discount, m.UpdatedAt, m.ID, tenantID)
	if err != nil {
		return fmt.Errorf("update medicine: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteMedicine removes the medicine. Deleting a missing or foreign id is a no-op.
func (q *Queries) DeleteMedicine(ctx context.Context, tenantID, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM medicines WHERE id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	return nil
}

// DecrementStock subtracts qty in a single guarded statement. It fails with
// ErrInsufficientStock when the row is missing or holds less than qty.
func (q *Queries) DecrementStock(ctx context.Context, tenantID, id, qty int64, at time.Time) error {
	n, err := q.exec(ctx,
		`UPDATE medicines SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND tenant_id = ? AND quantity >= ?`,
		qty, at, id, tenantID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// IncrementStock adds qty and reports whether the medicine still exists.
func (q *Queries) IncrementStock(ctx context.Context, tenantID, id, qty int64, at time.Time) (bool, error) {
	n, err := q.exec(ctx,
		`UPDATE medicines SET quantity = quantity + ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
		qty, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("increment stock: %w", err)
	}
	return n > 0, nil
}

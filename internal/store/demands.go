package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medeasy/pos/domain"
)

func (q *Queries) InsertDemand(ctx context.Context, tenantID int64, d *domain.Demand) error {
	d.TenantID = tenantID
	id, err := q.insertReturningID(ctx,
		`INSERT INTO demands (tenant_id, medicine_name, note_date) VALUES (?, ?, ?) RETURNING id`,
		tenantID, d.MedicineName, d.NoteDate)
	if err != nil {
		return fmt.Errorf("insert demand: %w", err)
	}
	d.ID = id
	return nil
}

// ListDemands returns the tenant's shortage notes, newest first.
func (q *Queries) ListDemands(ctx context.Context, tenantID int64) ([]domain.Demand, error) {
	demands := []domain.Demand{}
	err := q.db.SelectContext(ctx, &demands,
		q.rebind(`SELECT id, tenant_id, medicine_name, note_date FROM demands WHERE tenant_id = ? ORDER BY note_date DESC, id DESC`),
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list demands: %w", err)
	}
	return demands, nil
}

// DeleteDemand removes a shortage note. Missing or foreign ids are ignored.
func (q *Queries) DeleteDemand(ctx context.Context, tenantID, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM demands WHERE id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		return fmt.Errorf("delete demand: %w", err)
	}
	return nil
}

// DeleteDemands removes the given notes and returns how many were deleted.
func (q *Queries) DeleteDemands(ctx context.Context, tenantID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM demands WHERE tenant_id = ? AND id IN (?)`, tenantID, ids)
	if err != nil {
		return 0, fmt.Errorf("prepare demand delete: %w", err)
	}
	n, err := q.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete demands: %w", err)
	}
	return n, nil
}

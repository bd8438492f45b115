package pos

import (
	"context"
	"strings"

	"medeasy/pos/domain"
	"medeasy/pos/internal/store"
)

// AddDemand notes a medicine as out of stock. It is refused while any in-stock
// item of the tenant has a name containing medicineName.
func (s *Service) AddDemand(ctx context.Context, tenantID int64, medicineName string) (domain.Demand, error) {
	name := strings.TrimSpace(medicineName)
	if name == "" {
		return domain.Demand{}, domain.Validation("medicine name is required")
	}

	demand := domain.Demand{MedicineName: name, NoteDate: s.timestamp()}
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		inStock, err := q.InStockMedicines(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, m := range inStock {
			if domain.NameContains(m.Name, name) {
				return domain.AlreadyInStock("%s is already in stock (Qty: %d)", m.Name, m.Quantity)
			}
		}
		return q.InsertDemand(ctx, tenantID, &demand)
	})
	if err != nil {
		return domain.Demand{}, err
	}
	return demand, nil
}

// RemoveDemand deletes a tenant's note. Missing or foreign ids are ignored.
func (s *Service) RemoveDemand(ctx context.Context, tenantID, id int64) error {
	return s.store.DeleteDemand(ctx, tenantID, id)
}

// ListDemands returns the tenant's notes, newest first.
func (s *Service) ListDemands(ctx context.Context, tenantID int64) ([]domain.Demand, error) {
	return s.store.ListDemands(ctx, tenantID)
}

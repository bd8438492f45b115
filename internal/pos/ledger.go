package pos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/store"
)

// MedicineInput carries the mutable fields of a stock item.
type MedicineInput struct {
	Name       string
	Category   string
	ExpiryDate time.Time
	Quantity   int64
	Price      decimal.Decimal
	Discount   decimal.Decimal
}

func (in MedicineInput) validate() (domain.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", domain.Validation("name is required")
	}
	cat, ok := domain.ParseCategory(in.Category)
	if !ok {
		return "", domain.Validation("unknown category %q", in.Category)
	}
	if in.ExpiryDate.IsZero() {
		return "", domain.Validation("expiry date is required")
	}
	if in.Quantity < 0 {
		return "", domain.InvalidQuantity("quantity cannot be negative")
	}
	if in.Price.IsNegative() {
		return "", domain.Validation("price cannot be negative")
	}
	if !domain.ValidDiscount(in.Discount) {
		return "", domain.Validation("discount must be between 0 and 100")
	}
	return cat, nil
}

func (in MedicineInput) apply(m *domain.Medicine, cat domain.Category) {
	m.Name = strings.TrimSpace(in.Name)
	m.Category = cat
	m.ExpiryDate = in.ExpiryDate.UTC()
	m.Quantity = in.Quantity
	m.Price = in.Price
	m.Discount = in.Discount
}

// AddMedicine creates a stock item. When it arrives with stock, every shortage
// note naming it is removed in the same transaction.
func (s *Service) AddMedicine(ctx context.Context, tenantID int64, in MedicineInput) (domain.Medicine, error) {
	cat, err := in.validate()
	if err != nil {
		return domain.Medicine{}, err
	}
	now := s.timestamp()
	med := domain.Medicine{CreatedAt: now, UpdatedAt: now}
	in.apply(&med, cat)

	var cleared int64
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		if err := q.InsertMedicine(ctx, tenantID, &med); err != nil {
			return err
		}
		if med.Quantity == 0 {
			return nil
		}
		n, err := clearShortages(ctx, q, tenantID, med.Name)
		cleared = n
		return err
	})
	if err != nil {
		return domain.Medicine{}, err
	}

	s.logger(ctx, tenantID).Info("medicine added",
		zap.Int64("medicine_id", med.ID),
		zap.String("name", med.Name),
		zap.Int64("quantity", med.Quantity),
		zap.Int64("shortages_cleared", cleared))
	return med, nil
}

// UpdateMedicine replaces the mutable fields of a tenant's item.
func (s *Service) UpdateMedicine(ctx context.Context, tenantID, id int64, in MedicineInput) (domain.Medicine, error) {
	cat, err := in.validate()
	if err != nil {
		return domain.Medicine{}, err
	}

	var med domain.Medicine
	err = s.store.InTx(ctx, func(q *store.Queries) error {
		locked, err := q.LockMedicine(ctx, tenantID, id)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Medicine not found")
		}
		if err != nil {
			return err
		}
		in.apply(&locked, cat)
		locked.UpdatedAt = s.timestamp()
		if err := q.UpdateMedicine(ctx, tenantID, &locked); err != nil {
			return err
		}
		med = locked
		if med.Quantity == 0 {
			return nil
		}
		_, err = clearShortages(ctx, q, tenantID, med.Name)
		return err
	})
	if err != nil {
		return domain.Medicine{}, err
	}
	return med, nil
}

// DeleteMedicine removes a tenant's item. Sale lines referencing it are kept.
func (s *Service) DeleteMedicine(ctx context.Context, tenantID, id int64) error {
	return s.store.DeleteMedicine(ctx, tenantID, id)
}

// ListMedicines returns every medicine the tenant stocks.
func (s *Service) ListMedicines(ctx context.Context, tenantID int64) ([]domain.Medicine, error) {
	return s.store.ListMedicines(ctx, tenantID)
}

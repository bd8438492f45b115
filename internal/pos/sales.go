package pos

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/store"
)

// CartLine is one medicine requested at the counter. A nil Discount falls back
// to the discount stored on the medicine.
type CartLine struct {
	MedicineID int64
	Quantity   int64
	Discount   *decimal.Decimal
}

func (l CartLine) validate() error {
	if l.Quantity <= 0 {
		return domain.InvalidQuantity("quantity must be greater than zero")
	}
	if l.Discount != nil && !domain.ValidDiscount(*l.Discount) {
		return domain.Validation("discount must be between 0 and 100")
	}
	return nil
}

// SaleLineInput is a single sale recorded against an existing invoice tag.
type SaleLineInput struct {
	InvoiceID   string
	PatientName string
	CartLine
}

// CheckoutInput is a whole cart. InvoiceID is generated when empty.
type CheckoutInput struct {
	InvoiceID   string
	PatientName string
	Items       []CartLine
}

// RecordSaleLine sells one line in its own transaction. Lines sharing an
// invoice id are independent: an earlier committed line survives a later
// failure.
func (s *Service) RecordSaleLine(ctx context.Context, tenantID int64, in SaleLineInput) (domain.SaleLine, error) {
	invoiceID := strings.TrimSpace(in.InvoiceID)
	if invoiceID == "" {
		return domain.SaleLine{}, domain.Validation("invoice id is required")
	}
	if err := in.validate(); err != nil {
		return domain.SaleLine{}, err
	}

	var sale domain.SaleLine
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		var err error
		sale, err = s.sellLine(ctx, q, tenantID, invoiceID, in.PatientName, in.CartLine, s.timestamp())
		return err
	})
	if err != nil {
		return domain.SaleLine{}, err
	}

	s.logger(ctx, tenantID).Info("sale recorded",
		zap.String("invoice_id", sale.InvoiceID),
		zap.Int64("sale_id", sale.ID),
		zap.Int64("medicine_id", sale.MedicineID),
		zap.Int64("quantity", sale.QuantitySold),
		zap.String("total", sale.TotalAmount.StringFixed(2)))
	return sale, nil
}

// Checkout sells every line of the cart in one transaction. Any failing line
// rolls back the whole cart. All medicine rows of the cart are locked before
// the first line is sold.
func (s *Service) Checkout(ctx context.Context, tenantID int64, in CheckoutInput) (domain.Invoice, error) {
	if len(in.Items) == 0 {
		return domain.Invoice{}, domain.Validation("cart is empty")
	}
	for i, line := range in.Items {
		if err := line.validate(); err != nil {
			return domain.Invoice{}, lineError(i, err)
		}
	}
	invoiceID := strings.TrimSpace(in.InvoiceID)
	if invoiceID == "" {
		invoiceID = "INV-" + uuid.NewString()
	}

	now := s.timestamp()
	lines := make([]domain.SaleLine, 0, len(in.Items))
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		lines = lines[:0]
		if _, err := q.LockMedicines(ctx, tenantID, cartMedicineIDs(in.Items)); err != nil {
			return err
		}
		for i, item := range in.Items {
			sale, err := s.sellLine(ctx, q, tenantID, invoiceID, in.PatientName, item, now)
			if err != nil {
				return lineError(i, err)
			}
			lines = append(lines, sale)
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice := domain.Invoice{InvoiceID: invoiceID, Lines: lines, GrandTotal: domain.SumTotals(lines)}
	s.logger(ctx, tenantID).Info("checkout completed",
		zap.String("invoice_id", invoiceID),
		zap.Int("lines", len(lines)),
		zap.String("grand_total", invoice.GrandTotal.StringFixed(2)))
	return invoice, nil
}

// cartMedicineIDs returns the distinct medicine ids of a cart in ascending order.
func cartMedicineIDs(items []CartLine) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MedicineID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// sellLine decrements stock and writes the sale line inside q's transaction.
// The row lock held on the medicine makes the quantity check and the decrement
// one step; the guarded UPDATE still refuses to go below zero.
func (s *Service) sellLine(ctx context.Context, q *store.Queries, tenantID int64, invoiceID, patient string, line CartLine, at time.Time) (domain.SaleLine, error) {
	med, err := q.LockMedicine(ctx, tenantID, line.MedicineID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.SaleLine{}, domain.NotFound("Medicine not found")
	}
	if err != nil {
		return domain.SaleLine{}, err
	}
	if med.Quantity < line.Quantity {
		return domain.SaleLine{}, domain.InsufficientStock("Insufficient Stock for %s", med.Name)
	}

	discount := med.Discount
	if line.Discount != nil {
		discount = *line.Discount
	}
	if err := q.DecrementStock(ctx, tenantID, med.ID, line.Quantity, at); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return domain.SaleLine{}, domain.InsufficientStock("Insufficient Stock for %s", med.Name)
		}
		return domain.SaleLine{}, err
	}

	patient = strings.TrimSpace(patient)
	if patient == "" {
		patient = domain.DefaultPatientName
	}
	sale := domain.SaleLine{
		InvoiceID:     invoiceID,
		MedicineID:    med.ID,
		MedicineName:  med.Name,
		PatientName:   patient,
		QuantitySold:  line.Quantity,
		PricePerUnit:  med.Price,
		DiscountGiven: discount,
		TotalAmount:   domain.LineTotal(med.Price, line.Quantity, discount),
		SaleDate:      at,
	}
	if err := q.InsertSale(ctx, tenantID, &sale); err != nil {
		return domain.SaleLine{}, err
	}
	return sale, nil
}

// lineError prefixes a cart line's position to a domain error message.
func lineError(i int, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return &domain.Error{Code: de.Code, Message: fmt.Sprintf("item %d: %s", i+1, de.Message)}
	}
	return fmt.Errorf("item %d: %w", i+1, err)
}

// SalesHistory returns the tenant's sale lines, newest first.
func (s *Service) SalesHistory(ctx context.Context, tenantID int64) ([]domain.SaleLine, error) {
	return s.store.ListSales(ctx, tenantID)
}

// Invoice returns the remaining lines sharing invoiceID.
func (s *Service) Invoice(ctx context.Context, tenantID int64, invoiceID string) (domain.Invoice, error) {
	lines, err := s.store.InvoiceLines(ctx, tenantID, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if len(lines) == 0 {
		return domain.Invoice{}, domain.NotFound("Invoice not found")
	}
	return domain.Invoice{InvoiceID: invoiceID, Lines: lines, GrandTotal: domain.SumTotals(lines)}, nil
}

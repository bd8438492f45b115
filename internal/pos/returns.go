package pos

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/store"
)

// ReturnResult describes a processed return. Sale is nil when the return
// consumed the whole line.
type ReturnResult struct {
	RefundAmount  decimal.Decimal
	StockRestored bool
	Sale          *domain.SaleLine
}

// ProcessReturn gives back qty units of a sale line. The refund is charged at
// the line's effective unit price, so discounts are honored; stock goes back to
// the medicine if it still exists.
func (s *Service) ProcessReturn(ctx context.Context, tenantID, saleID, qty int64) (ReturnResult, error) {
	var res ReturnResult
	var sale domain.SaleLine
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		var err error
		sale, err = q.LockSale(ctx, tenantID, saleID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("Record not found")
		}
		if err != nil {
			return err
		}
		if qty <= 0 || qty > sale.QuantitySold {
			return domain.InvalidQuantity("Invalid return quantity")
		}

		now := s.timestamp()
		res.StockRestored, err = q.IncrementStock(ctx, tenantID, sale.MedicineID, qty, now)
		if err != nil {
			return err
		}
		if res.StockRestored {
			med, err := q.GetMedicine(ctx, tenantID, sale.MedicineID)
			if err != nil {
				return err
			}
			if _, err := clearShortages(ctx, q, tenantID, med.Name); err != nil {
				return err
			}
		}

		res.RefundAmount = sale.RefundFor(qty)
		if qty == sale.QuantitySold {
			return q.DeleteSale(ctx, tenantID, sale.ID)
		}
		sale.QuantitySold -= qty
		sale.TotalAmount = sale.TotalAmount.Sub(res.RefundAmount)
		if err := q.ShrinkSale(ctx, tenantID, sale.ID, sale.QuantitySold, sale.TotalAmount); err != nil {
			return err
		}
		res.Sale = &sale
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}

	log := s.logger(ctx, tenantID).With(
		zap.Int64("sale_id", saleID),
		zap.String("invoice_id", sale.InvoiceID),
		zap.Int64("quantity", qty),
		zap.String("refund", res.RefundAmount.StringFixed(2)))
	if !res.StockRestored {
		log.Warn("return processed without restoring stock, medicine no longer exists",
			zap.Int64("medicine_id", sale.MedicineID),
			zap.String("medicine_name", sale.MedicineName))
	} else {
		log.Info("return processed")
	}
	return res, nil
}

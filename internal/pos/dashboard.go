package pos

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"medeasy/pos/domain"
)

const chartDays = 7

// Stats is the dashboard summary for one tenant.
type Stats struct {
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	LowStockItems   int             `json:"lowStockItems"`
	ExpiringSoon    int             `json:"expiringSoon"`
	TotalMedicines  int             `json:"totalMedicines"`
}

// ChartPoint is the revenue of one calendar day.
type ChartPoint struct {
	Date       string          `json:"date"`
	TotalSales decimal.Decimal `json:"totalSales"`
}

func (s *Service) today() time.Time {
	return s.timestamp().Truncate(24 * time.Hour)
}

// Stats computes the dashboard summary from the tenant's current stock.
func (s *Service) Stats(ctx context.Context, tenantID int64) (Stats, error) {
	meds, err := s.store.ListMedicines(ctx, tenantID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalStockValue: decimal.Zero, TotalMedicines: len(meds)}
	from, to := s.expiryWindow()
	for _, m := range meds {
		st.TotalStockValue = st.TotalStockValue.Add(m.StockValue())
		if m.Quantity < s.lowStockThreshold {
			st.LowStockItems++
		}
		if expiresWithin(m, from, to) {
			st.ExpiringSoon++
		}
	}
	return st, nil
}

// LowStock lists items below the configured threshold, emptiest first.
func (s *Service) LowStock(ctx context.Context, tenantID int64) ([]domain.Medicine, error) {
	return s.store.LowStockMedicines(ctx, tenantID, s.lowStockThreshold)
}

// ExpiringSoon lists items whose expiry date falls between today and the end
// of the expiry window, soonest first.
func (s *Service) ExpiringSoon(ctx context.Context, tenantID int64) ([]domain.Medicine, error) {
	meds, err := s.store.ListMedicines(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	from, to := s.expiryWindow()
	out := []domain.Medicine{}
	for _, m := range meds {
		if expiresWithin(m, from, to) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Medicine) int {
		return a.ExpiryDate.Compare(b.ExpiryDate)
	})
	return out, nil
}

func (s *Service) expiryWindow() (time.Time, time.Time) {
	from := s.today()
	return from, from.AddDate(0, 0, s.expiryWindowDays)
}

func expiresWithin(m domain.Medicine, from, to time.Time) bool {
	d := m.ExpiryDate.UTC()
	return !d.Before(from) && !d.After(to)
}

// SalesChart returns the revenue of the last seven days, today included,
// oldest first. Days without sales are reported as zero.
func (s *Service) SalesChart(ctx context.Context, tenantID int64) ([]ChartPoint, error) {
	start := s.today().AddDate(0, 0, -(chartDays - 1))
	lines, err := s.store.SalesSince(ctx, tenantID, start)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]decimal.Decimal, chartDays)
	for _, l := range lines {
		day := l.SaleDate.UTC().Format(time.DateOnly)
		byDay[day] = byDay[day].Add(l.TotalAmount)
	}

	points := make([]ChartPoint, 0, chartDays)
	for i := 0; i < chartDays; i++ {
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		points = append(points, ChartPoint{Date: day, TotalSales: byDay[day]})
	}
	return points, nil
}

// Package pos is the inventory, sales and returns engine. It keeps stock
// quantities, sale lines and refunds consistent with each other; every
// operation is scoped to one tenant and runs in a single transaction.
package pos

import (
	"context"
	"time"

	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/logger"
	"medeasy/pos/internal/store"
)

// Service exposes the Stock Ledger, Shortage Register, Sale and Return engines.
type Service struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time

	lowStockThreshold int64
	expiryWindowDays  int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLowStockThreshold sets the quantity under which a medicine counts as low stock.
func WithLowStockThreshold(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.lowStockThreshold = n
		}
	}
}

// WithExpiryWindow sets how many days ahead the expiring-soon list looks.
func WithExpiryWindow(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.expiryWindowDays = days
		}
	}
}

// New returns a Service over st. Options override the dashboard defaults.
func New(st *store.Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:             st,
		log:               log,
		now:               time.Now,
		lowStockThreshold: 40,
		expiryWindowDays:  30,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// logger prefers the request logger carried by ctx.
func (s *Service) logger(ctx context.Context, tenantID int64) *zap.Logger {
	return logger.FromContextOr(ctx, s.log).With(zap.Int64("tenant_id", tenantID))
}

// clearShortages deletes the tenant's shortage notes whose name contains
// medicineName. It runs whenever a stock entry leaves an item in stock.
func clearShortages(ctx context.Context, q *store.Queries, tenantID int64, medicineName string) (int64, error) {
	demands, err := q.ListDemands(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for _, d := range demands {
		if domain.NameContains(d.MedicineName, medicineName) {
			ids = append(ids, d.ID)
		}
	}
	return q.DeleteDemands(ctx, tenantID, ids)
}

package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryTablet    Category = "Tablet"
	CategorySyrup     Category = "Syrup"
	CategoryInjection Category = "Injection"
	CategoryCream     Category = "Cream"
	CategoryDrops     Category = "Drops"
)

var categories = []Category{CategoryTablet, CategorySyrup, CategoryInjection, CategoryCream, CategoryDrops}

// ParseCategory matches name against the known categories, ignoring case.
func ParseCategory(name string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return "", false
}

// Medicine is a stock item held by one tenant. Quantity is the available stock.
type Medicine struct {
	ID         int64           `db:"id" json:"id"`
	TenantID   int64           `db:"tenant_id" json:"tenantId"`
	Name       string          `db:"name" json:"name"`
	Category   Category        `db:"category" json:"category"`
	ExpiryDate time.Time       `db:"expiry_date" json:"expiryDate"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Discount   decimal.Decimal `db:"discount" json:"discount"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updatedAt"`
}

// StockValue is quantity × price.
func (m Medicine) StockValue() decimal.Decimal {
	return m.Price.Mul(decimal.NewFromInt(m.Quantity))
}

// NameContains reports whether haystack contains needle, ignoring case.
// Both shortage gating and shortage clearing are defined in terms of it.
func NameContains(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

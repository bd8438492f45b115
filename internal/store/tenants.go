package store

import (
	"context"
	"fmt"
	"strings"

	"medeasy/pos/domain"
)

// CreateTenant registers a store. Emails are stored lower-cased.
func (q *Queries) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	id, err := q.insertReturningID(ctx,
		`INSERT INTO tenants (store_name, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		t.StoreName, t.Email, t.PasswordHash, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("email already registered")
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	t.ID = id
	return nil
}

func (q *Queries) TenantByEmail(ctx context.Context, email string) (domain.Tenant, error) {
	var t domain.Tenant
	err := q.db.GetContext(ctx, &t, q.rebind(`SELECT id, store_name, email, password_hash, created_at FROM tenants WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)))
	if isNoRows(err) {
		return t, domain.ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

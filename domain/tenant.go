package domain

import "time"

// Tenant is a registered store. Every other record is owned by exactly one tenant.
type Tenant struct {
	ID           int64     `db:"id" json:"id"`
	StoreName    string    `db:"store_name" json:"storeName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

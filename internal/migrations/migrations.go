package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Money columns are TEXT in SQLite so decimal strings keep every digit.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            store_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at DATETIME NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            expiry_date DATE NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            price TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
            discount TEXT NOT NULL DEFAULT '0' CHECK (CAST(discount AS REAL) BETWEEN 0 AND 100),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY(tenant_id) REFERENCES tenants(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_tenant ON medicines(tenant_id);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL,
            invoice_id TEXT NOT NULL,
            medicine_id INTEGER NOT NULL,
            medicine_name TEXT NOT NULL,
            patient_name TEXT NOT NULL,
            quantity_sold INTEGER NOT NULL CHECK (quantity_sold > 0),
            price_per_unit TEXT NOT NULL,
            discount_given TEXT NOT NULL DEFAULT '0',
            total_amount TEXT NOT NULL,
            sale_date DATETIME NOT NULL,
            FOREIGN KEY(tenant_id) REFERENCES tenants(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_tenant_date ON sales(tenant_id, sale_date);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_tenant_invoice ON sales(tenant_id, invoice_id);`,
	`CREATE TABLE IF NOT EXISTS demands (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tenant_id INTEGER NOT NULL,
            medicine_name TEXT NOT NULL,
            note_date DATETIME NOT NULL,
            FOREIGN KEY(tenant_id) REFERENCES tenants(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_demands_tenant ON demands(tenant_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
            id BIGSERIAL PRIMARY KEY,
            store_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id BIGSERIAL PRIMARY KEY,
            tenant_id BIGINT NOT NULL REFERENCES tenants(id),
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            expiry_date DATE NOT NULL,
            quantity BIGINT NOT NULL CHECK (quantity >= 0),
            price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
            discount NUMERIC(5,2) NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= 100),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_tenant ON medicines(tenant_id);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id BIGSERIAL PRIMARY KEY,
            tenant_id BIGINT NOT NULL REFERENCES tenants(id),
            invoice_id TEXT NOT NULL,
            medicine_id BIGINT NOT NULL,
            medicine_name TEXT NOT NULL,
            patient_name TEXT NOT NULL,
            quantity_sold BIGINT NOT NULL CHECK (quantity_sold > 0),
            price_per_unit NUMERIC(12,2) NOT NULL,
            discount_given NUMERIC(5,2) NOT NULL DEFAULT 0,
            total_amount NUMERIC(14,2) NOT NULL,
            sale_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_tenant_date ON sales(tenant_id, sale_date);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_tenant_invoice ON sales(tenant_id, invoice_id);`,
	`CREATE TABLE IF NOT EXISTS demands (
            id BIGSERIAL PRIMARY KEY,
            tenant_id BIGINT NOT NULL REFERENCES tenants(id),
            medicine_name TEXT NOT NULL,
            note_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS idx_demands_tenant ON demands(tenant_id);`,
}

// Run creates the database schema required for the POS backend. Statements
// are idempotent and executed in order.
func Run(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens a database for the given driver ("sqlite" or "postgres") and
// verifies the connection.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	Configure(db)
	return db, nil
}

// Configure sets pool limits suited to the driver. SQLite allows one writer,
// so its pool is pinned to a single connection and transactions queue on it.
func Configure(db *sqlx.DB) {
	if db.DriverName() == "sqlite" {
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
}

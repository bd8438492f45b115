// Package storetest opens migrated SQLite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"medeasy/pos/domain"
	"medeasy/pos/internal/database"
	"medeasy/pos/internal/migrations"
	"medeasy/pos/internal/store"
)

// Open returns a store backed by a fresh on-disk SQLite database that is
// removed when the test ends.
func Open(t *testing.T) *store.Store {
	t.Helper()
	return store.New(OpenDB(t))
}

// OpenDB returns the migrated database behind Open.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "pos.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := database.Connect("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

// Tenant registers a store with the given email and returns its id.
func Tenant(t *testing.T, st *store.Store, email string) int64 {
	t.Helper()
	tenant := domain.Tenant{StoreName: email, Email: email, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateTenant(context.Background(), &tenant))
	return tenant.ID
}

// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/teamboard/internal/database"
)

// Open returns a fresh, migrated sqlite database private to the test
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := sqlx.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

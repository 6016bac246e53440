package testsupport

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}

// NewNamedSQLiteMemoryDB opens a shared in-memory database private to name.
func NewNamedSQLiteMemoryDB(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
}

// NewBunSQLiteDB opens a named in-memory database wrapped in bun and closes
// it when the test ends.
func NewBunSQLiteDB(tb testing.TB, name string) *bun.DB {
	tb.Helper()
	sqlDB, err := NewNamedSQLiteMemoryDB(name)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	// A shared-cache memory db disappears with its last connection.
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	tb.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

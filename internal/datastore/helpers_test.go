package datastore

import (
	"database/sql"
	"testing"

	"github.com/horizonprm/horizon/internal/db"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

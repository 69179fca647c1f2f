package models_test

import (
	"path/filepath"
	"testing"

	"bitbucket.org/mmdatafocus/fieldops_backend/config"
	"bitbucket.org/mmdatafocus/fieldops_backend/models"
)

// setupTestDB points the global DB at a throwaway sqlite file and migrates
// the portal tables. Each test gets its own database.
func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "portal_test.db"))
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
}

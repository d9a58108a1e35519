package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizadmin/quiz-admin-server/internal/config"
	"github.com/quizadmin/quiz-admin-server/internal/database"
)

// SetupTestDB opens a migrated SQLite database in a per-test temp directory.
// The file is removed with the directory when the test ends.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quiz.db")
	db, err := database.Connect(config.DriverSQLite, "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

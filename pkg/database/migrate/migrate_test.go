//go:build integration

package migrate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tableExists := func(t *testing.T, table string) bool {
		t.Helper()
		var exists bool
		err := db.QueryRow(`
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err)
		return exists
	}

	t.Run("Run applies migrations", func(t *testing.T) {
		require.NoError(t, Run(db))

		for _, table := range []string{"users", "sessions", "submissions", "balances", "ledger_credits"} {
			require.True(t, tableExists(t, table), "%s table should exist", table)
		}
	})

	t.Run("Version returns current version", func(t *testing.T) {
		version, dirty, err := Version(db)
		require.NoError(t, err)
		require.False(t, dirty)
		require.Equal(t, uint(4), version)
	})

	t.Run("Run is idempotent", func(t *testing.T) {
		require.NoError(t, Run(db))

		version, dirty, err := Version(db)
		require.NoError(t, err)
		require.False(t, dirty)
		require.Equal(t, uint(4), version)
	})

	t.Run("duplicate credit is rejected by schema", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO users (id, name, email, password_hash) VALUES ('u1', 'Test', 'test@example.com', 'x')`)
		require.NoError(t, err)

		_, err = db.Exec(`INSERT INTO ledger_credits (submission_id, user_id, amount) VALUES ('sub-1', 'u1', 4000)`)
		require.NoError(t, err)

		_, err = db.Exec(`INSERT INTO ledger_credits (submission_id, user_id, amount) VALUES ('sub-1', 'u1', 4000)`)
		require.Error(t, err, "second credit for the same submission must violate the unique constraint")
	})

	t.Run("Down rolls back migrations", func(t *testing.T) {
		require.NoError(t, Down(db))

		require.False(t, tableExists(t, "users"), "users table should not exist after down")
		require.False(t, tableExists(t, "ledger_credits"), "ledger_credits table should not exist after down")
	})
}

package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)

	return filepath.Join(projectRoot, "migrations")
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	require.NoError(t, Run(db, getMigrationsPath(t)))

	for _, table := range []string{"users", "profiles", "categories", "products", "subscriptions", "sales", "sale_items"} {
		require.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'products_user_id_barcode_key'
		)`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "barcode uniqueness constraint should exist")

	var adminCount int
	err = db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&adminCount)
	require.NoError(t, err)
	require.Equal(t, 1, adminCount, "Should have one admin user")

	requireEveryUserProvisioned(t, db)

	var status string
	err = db.QueryRow(`
		SELECT s.status FROM subscriptions s
		JOIN users u ON u.uid = s.user_id
		WHERE u.email = 'admin@pos.local'`).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, "test", status)

	var hasReminderMark bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'subscriptions' AND column_name = 'reminded_for'
		)`).Scan(&hasReminderMark)
	require.NoError(t, err)
	require.True(t, hasReminderMark, "subscriptions.reminded_for should exist")
}

// requireEveryUserProvisioned проверяет, что у каждой учётной записи есть профиль и подписка.
func requireEveryUserProvisioned(t *testing.T, db *sql.DB) {
	t.Helper()
	var orphans int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM users u
		LEFT JOIN profiles p ON p.id = u.uid
		LEFT JOIN subscriptions s ON s.user_id = u.uid
		WHERE p.id IS NULL OR s.id IS NULL`).Scan(&orphans)
	require.NoError(t, err)
	require.Zero(t, orphans, "every user must have a profile and a subscription")
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	path := getMigrationsPath(t)
	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path), "running migrations twice should not fail")

	var adminCount int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&adminCount)
	require.NoError(t, err)
	require.Equal(t, 1, adminCount, "Should still have one admin user after second run")
	requireEveryUserProvisioned(t, db)
}

package httpserver_test

import (
	"context"
	"testing"
	"time"

	"contactbook/contact"
	"contactbook/httpserver"
	"contactbook/postgres"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// MustCreateServer serves contacts stored in db, logging through the test.
func MustCreateServer(t testing.TB, db *gorm.DB) *httpserver.Server {
	t.Helper()

	return httpserver.Default(testConfig(),
		httpserver.WithLogger(zaptest.NewLogger(t).Sugar()),
		httpserver.WithContactService(contact.NewUsecase(postgres.NewContactRepository(db))),
	)
}

func MustCreateTestDatabase(t testing.TB) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	ctx := context.Background()
	dbName, dbUser, dbPass := "contactbook_http", "book", "testpass"
	container, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		pgcontainer.WithDatabase(dbName),
		pgcontainer.WithUsername(dbUser),
		pgcontainer.WithPassword(dbPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(ctx), "failed to terminate postgres container")
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.NewConnection(postgres.Options{
		DBName:   dbName,
		DBUser:   dbUser,
		Password: dbPass,
		Host:     host,
		Port:     port.Port(),
	})
	require.NoError(t, err, "failed to connect to postgres database")
	return db
}

func MigrateTestDatabase(t testing.TB, db *gorm.DB, migrationPath string) {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)

	n, err := migrate.Exec(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: migrationPath}, migrate.Up)
	require.NoError(t, err, "failed to run database migrations")
	require.Positive(t, n, "expected at least one migration to apply")
}

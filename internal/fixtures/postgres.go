package fixtures

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/smartledger/infra"
	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// IntegrationEnv gates tests that need Docker.
const IntegrationEnv = "LEDGER_INTEGRATION"

// NewPostgresDB starts a Postgres container, applies the SQL migrations and
// returns a connection to it. The test is skipped unless LEDGER_INTEGRATION=1.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run Postgres integration tests", IntegrationEnv)
	}
	ctx := context.Background()

	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pg); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, dialect, err := infra.NewDBConnection(&config.DB{Url: dsn, MaxOpenConns: 10}, "test")
	require.NoError(t, err)
	require.Equal(t, infra.DialectPostgres, dialect)
	require.NoError(t, infra.RunPostgresMigrations(db, Logger()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

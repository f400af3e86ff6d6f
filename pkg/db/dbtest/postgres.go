package dbtest

import (
	"context"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zepzep/zepzep-backend/pkg/db"
	"github.com/zepzep/zepzep-backend/pkg/migrate"
)

// PostgresDSNEnv names the database used by tests that need real row locks
// and a multi-connection pool.
const PostgresDSNEnv = "ZEPZEP_TEST_DB_DSN"

// OpenPostgres connects to the database in ZEPZEP_TEST_DB_DSN and applies the
// embedded migrations. The test is skipped when the variable is unset. Rows
// are not cleaned up, so callers seed their own tenants and scope assertions
// to them.
func OpenPostgres(t testing.TB) *db.Client {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresDSNEnv)
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("postgres handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrator, err := migrate.New(sqlDB, nil)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if _, err := migrator.Up(context.Background()); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	return db.FromGorm(conn)
}

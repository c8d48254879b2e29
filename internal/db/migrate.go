package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"willtank/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenSQL opens a database/sql handle over the pgx stdlib driver.
func OpenSQL(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return conn, nil
}

func prepareGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}

// MigrateUp applies all pending Postgres migrations.
func MigrateUp(ctx context.Context, conn *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, "migrations")
}

// MigrateDown rolls back the most recent Postgres migration.
func MigrateDown(ctx context.Context, conn *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.DownContext(ctx, conn, "migrations")
}

// MigrateStatus prints the state of every migration.
func MigrateStatus(ctx context.Context, conn *sql.DB) error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, conn, "migrations")
}

// Models lists every persisted type.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Will{},
		&model.WillDocument{},
		&model.Beneficiary{},
		&model.Asset{},
		&model.Reminder{},
		&model.Notification{},
		&model.EnterpriseInquiry{},
	}
}

// Migrate brings the schema up to date. Postgres runs the versioned SQL
// migrations; MySQL is only used for local development and relies on AutoMigrate.
func Migrate(ctx context.Context, driver string, gdb *gorm.DB) error {
	if driver == DriverMySQL {
		return gdb.WithContext(ctx).AutoMigrate(Models()...)
	}
	conn, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return MigrateUp(ctx, conn)
}

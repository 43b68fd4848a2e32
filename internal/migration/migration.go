package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	devicedomain "github.com/smallbiznis/roomwatt/internal/device/domain"
	roomdomain "github.com/smallbiznis/roomwatt/internal/room/domain"
	usagedomain "github.com/smallbiznis/roomwatt/internal/usage/domain"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"gorm.io/gorm"
)

//go:embed sql
var embeddedMigrations embed.FS

// Models lists every table owned by the service, for schema sync on SQLite.
func Models() []any {
	return []any{
		&roomdomain.Room{},
		&devicedomain.Device{},
		&devicedomain.StatusEvent{},
		&usagedomain.Reading{},
		&accountdomain.User{},
		&accountdomain.Session{},
		&assignmentdomain.Details{},
	}
}

// Run brings the schema up to date. MySQL and PostgreSQL apply the embedded
// versioned migrations; SQLite, used for development and tests, is synced
// from the models.
func Run(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	dbType = strings.ToLower(strings.TrimSpace(dbType))
	if dbType == db.TypeSQLite {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	var driver database.Driver
	switch dbType {
	case db.TypeMySQL:
		driver, err = mysql.WithInstance(sqlDB, &mysql.Config{})
	case db.TypePostgres:
		driver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported migration database type %q", dbType)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	sub, err := fs.Sub(embeddedMigrations, "sql/"+dbType)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dbType, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.
	return nil
}

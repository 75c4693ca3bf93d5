package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/stock-ledger/internal/config"
	"github.com/diewo77/stock-ledger/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var requiredTables = []string{"users", "products", "sales", "sale_items", "purchases", "purchase_items"}

// Migrate brings the schema up to date. SQL migrations run through
// golang-migrate on postgres when enabled, AutoMigrate is used otherwise.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, log *zap.Logger) error {
	if cfg.SQLMigrations {
		if cfg.Driver != "postgres" {
			return fmt.Errorf("sql migrations require postgres, got %q", cfg.Driver)
		}
		log.Info("running sql migrations")
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations applies the embedded migrations to the database at url.
func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

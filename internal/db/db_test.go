package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/diewo77/stock-ledger/internal/config"
	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/diewo77/stock-ledger/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")}
	d, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(d, cfg, zap.NewNop()))
	for _, table := range requiredTables {
		assert.True(t, d.Migrator().HasTable(table), table)
	}
	assert.True(t, d.Migrator().HasTable("notifications"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
	_, err = Open(config.DatabaseConfig{Driver: "sqlite"}, zap.NewNop())
	assert.Error(t, err, "sqlite without a path")
}

func TestSQLMigrationsNeedPostgres(t *testing.T) {
	d := memoryDB(t)
	err := Migrate(d, config.DatabaseConfig{Driver: "sqlite", SQLMigrations: true}, zap.NewNop())
	assert.ErrorContains(t, err, "require postgres")
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}

func TestSeedIdempotent(t *testing.T) {
	d := memoryDB(t)
	if err := d.AutoMigrate(models.All()...); err != nil {
		t.Fatal(err)
	}
	require.NoError(t, Seed(d))
	require.NoError(t, Seed(d))

	var users, products, suppliers int64
	d.Model(&models.User{}).Count(&users)
	d.Model(&models.Product{}).Count(&products)
	d.Model(&models.Supplier{}).Count(&suppliers)
	if users != 2 || products != 3 || suppliers != 1 {
		t.Fatalf("seed duplicated or missing rows: users=%d products=%d suppliers=%d", users, products, suppliers)
	}

	var staff models.User
	require.NoError(t, d.Where("email = ?", "staff@example.com").First(&staff).Error)
	tid, err := tenant.NewDBResolver(d).EffectiveTenant(t.Context(), staff.ID)
	require.NoError(t, err)
	require.NotNil(t, staff.OwnerID)
	assert.Equal(t, *staff.OwnerID, tid)
}

func TestMaskDSN(t *testing.T) {
	kv := MaskDSN("host=db port=5432 user=u password=s3cret dbname=x sslmode=disable")
	assert.NotContains(t, kv, "s3cret")
	assert.Contains(t, kv, "password=***")
	my := MaskDSN("u:s3cret@tcp(db:3306)/x")
	assert.NotContains(t, my, "s3cret")
}

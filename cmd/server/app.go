package main

import (
	"errors"
	"net/http"

	"github.com/diewo77/stock-ledger/internal/auth"
	"github.com/diewo77/stock-ledger/internal/cache"
	"github.com/diewo77/stock-ledger/internal/config"
	"github.com/diewo77/stock-ledger/internal/db"
	"github.com/diewo77/stock-ledger/internal/handlers"
	"github.com/diewo77/stock-ledger/internal/httpx"
	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/diewo77/stock-ledger/internal/notify"
	"github.com/diewo77/stock-ledger/internal/store/gormstore"
	"github.com/diewo77/stock-ledger/internal/store/memstore"
	"github.com/diewo77/stock-ledger/internal/tenant"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// store is what both backends offer.
type store interface {
	ledger.Store
	handlers.Pinger
}

// Deps holds the wired services behind the HTTP layer.
type Deps struct {
	dbConn  *gorm.DB
	mem     *memstore.Store
	store   store
	engine  *ledger.Engine
	tenants tenant.Resolver
	log     *zap.Logger
	closers []func() error
}

func buildDeps(cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	d := &Deps{log: logger}
	auth.SetSecret(cfg.App.SessionSecret)

	if cfg.Database.Driver == "memory" {
		d.mem = memstore.New()
		d.store = d.mem
		d.tenants = tenant.Self{}
	} else {
		dbConn, err := db.Open(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		d.dbConn = dbConn
		d.store = gormstore.New(dbConn)
		resolver := tenant.NewCachedResolver(tenant.NewDBResolver(dbConn), cfg.Ledger.TenantCacheTTL)
		d.tenants = resolver

		// Reject credentials of users that no longer exist and keep the
		// tenant cache in step with the users table.
		auth.SetUserVerifier(resolver.Verify)
	}

	bus := notify.NewBus(logger, notify.NewLogEmitter(logger))
	if d.dbConn != nil {
		bus.Add(notify.NewStoreEmitter(d.dbConn))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		bus.Add(k)
		d.closers = append(d.closers, k.Close)
		logger.Info("kafka notifications enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var inv ledger.Invalidator
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, client.Close)
		inv = cache.NewRedisInvalidator(client, cfg.Redis.Channel)
		logger.Info("redis invalidation enabled", zap.String("addr", cfg.Redis.Addr))
	}

	d.engine = ledger.NewEngine(d.store, ledger.Config{
		Logger:            logger,
		Emitter:           bus,
		Invalidator:       inv,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
	})
	return d, nil
}

func (d *Deps) migrate(cfg *config.Config) error {
	if d.dbConn == nil {
		d.log.Info("memory store, no migrations to run")
		return nil
	}
	return db.Migrate(d.dbConn, cfg.Database, d.log)
}

func (d *Deps) seed() error {
	if d.dbConn != nil {
		return db.Seed(d.dbConn)
	}
	seedMemory(d.mem)
	return nil
}

// seedMemory mirrors db.Seed for the memory store. Tenant 1 owns everything.
func seedMemory(m *memstore.Store) {
	m.AddProduct(models.Product{UserID: 1, Code: "WID-01", Name: "Widget", Price: decimal.RequireFromString("12.50"), Stock: 40})
	m.AddProduct(models.Product{UserID: 1, Code: "GAD-01", Name: "Gadget", Price: decimal.RequireFromString("30.00"), Stock: 8})
	m.AddProduct(models.Product{UserID: 1, Code: "SPR-01", Name: "Sprocket", Price: decimal.RequireFromString("4.20"), Stock: 3})
	m.AddSupplier(models.Supplier{UserID: 1, Name: "Acme Wholesale"})
}

func (d *Deps) Close() error {
	var err error
	for _, c := range d.closers {
		err = errors.Join(err, c())
	}
	if d.dbConn != nil {
		if sqlDB, dbErr := d.dbConn.DB(); dbErr == nil {
			err = errors.Join(err, sqlDB.Close())
		}
	}
	return err
}

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(d *Deps, logger *zap.Logger) *App {
	app := &App{mux: http.NewServeMux()}

	handlers.NewHealthHandler(d.store).Register(app.mux)
	handlers.NewSaleHandler(d.engine, d.tenants, logger).Register(app.mux, auth.RequireAuth)
	handlers.NewPurchaseHandler(d.engine, d.tenants, logger).Register(app.mux, auth.RequireAuth)

	app.handler = httpx.Chain(app.mux,
		httpx.WithTracing,
		httpx.WithRequestID,
		httpx.WithLogging(logger),
		auth.Middleware,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

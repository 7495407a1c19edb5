package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazina/backend/internal/domain/shared"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB           *gorm.DB
	QueryTimeout time.Duration
}

// Option configures NewDatabase
type Option func(*options)

type options struct {
	logger  logger.Interface
	plugins []gorm.Plugin
}

// WithLogger sets the GORM logger (defaults to silent)
func WithLogger(l logger.Interface) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPlugins registers GORM plugins such as tracing
func WithPlugins(plugins ...gorm.Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := options{logger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, p := range o.plugins {
		if err := db.Use(p); err != nil {
			return nil, fmt.Errorf("failed to register gorm plugin %s: %w", p.Name(), err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, QueryTimeout: cfg.QueryTimeout}, nil
}

// AutoMigrate creates the schema from the GORM models. Used for sqlite
// development databases and tests; postgres deployments run the SQL migrations.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.All()...)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// store is embedded by every repository: it bounds each call by the
// configured query timeout and classifies driver failures.
type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func (s store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.timeout <= 0 {
		return s.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// unavailable wraps a driver error so callers can tell a retryable store
// failure apart from a domain rejection.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrStoreUnavailable, op, err)
}

// isNotFound reports whether err is GORM's record-not-found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// transaction runs fn in a database transaction. Errors returned by fn pass
// through unchanged; begin and commit failures are reported as unavailable.
func (s store) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	var fnErr error
	err := db.Transaction(func(tx *gorm.DB) error {
		fnErr = fn(tx)
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return unavailable(op, err)
}

// snapshot runs fn in a read-only transaction whose reads all see one
// committed state. Postgres needs REPEATABLE READ for that; sqlite
// transactions are already serializable.
func (s store) snapshot(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	var opts []*sql.TxOptions
	if db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}

	var fnErr error
	err := db.Transaction(func(tx *gorm.DB) error {
		fnErr = fn(tx)
		return fnErr
	}, opts...)
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return unavailable(op, err)
}

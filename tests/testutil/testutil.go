// Package testutil provides common test utilities for the hazina backend:
// databases, tokens, seeded groups and HTTP helpers.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/infrastructure/auth"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM database backed by sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet asserts that all sqlmock expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unfulfilled sqlmock expectations")
}

// NewSQLiteDatabase opens a migrated in-memory sqlite database.
func NewSQLiteDatabase(t *testing.T) *persistence.Database {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(), "Failed to migrate sqlite schema")
	return db
}

// TestJWTConfig is the token configuration shared by tests that mint bearer tokens.
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "hazina-test-secret-hazina-test-secret",
		Issuer:     "hazina",
		Audience:   "hazina-api",
		Expiration: time.Hour,
	}
}

// Tokens mints and verifies bearer tokens for tests.
type Tokens struct {
	*auth.JWTService
}

// NewTokens creates a Tokens helper using TestJWTConfig.
func NewTokens() *Tokens {
	return &Tokens{JWTService: auth.NewJWTService(TestJWTConfig())}
}

// For returns a valid access token for userID.
func (tk *Tokens) For(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := tk.GenerateToken(userID, userID.String()[:8]+"@example.com")
	require.NoError(t, err, "Failed to mint token")
	return token
}

// ContextWithTimeout creates a context with timeout that is cancelled when the test ends.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

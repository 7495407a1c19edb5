package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a migrated in-memory sqlite database. A single
// connection keeps every caller on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newMockGormDB creates a GORM DB backed by sqlmock with the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

type groupFixture struct {
	group     *contribution.Group
	member    *contribution.Member
	treasurer *contribution.Member
}

func seedGroup(t *testing.T, db *gorm.DB) groupFixture {
	t.Helper()
	ctx := context.Background()
	repo := NewGormMemberRepository(db, 0)
	now := time.Now().UTC()

	group := &contribution.Group{ID: uuid.New(), Name: gofakeit.Company(), Currency: "KES", CreatedAt: now}
	require.NoError(t, repo.SaveGroup(ctx, group))

	newMember := func(role contribution.Role, joined time.Time) *contribution.Member {
		m := &contribution.Member{
			ID:          uuid.New(),
			GroupID:     group.ID,
			UserID:      uuid.New(),
			DisplayName: gofakeit.Name(),
			Email:       gofakeit.Email(),
			Role:        role,
			Active:      true,
			JoinedAt:    joined,
		}
		require.NoError(t, repo.SaveMember(ctx, m))
		return m
	}

	return groupFixture{
		group:     group,
		treasurer: newMember(contribution.RoleTreasurer, now.Add(-2*time.Hour)),
		member:    newMember(contribution.RoleMember, now.Add(-time.Hour)),
	}
}

func seedClaim(t *testing.T, s *GormLedgerStore, groupID, memberID uuid.UUID, amount string) (*contribution.Claim, *contribution.Approval) {
	t.Helper()
	claim, err := contribution.NewClaim(groupID, memberID, decimal.RequireFromString(amount), contribution.MethodCash, nil, "", "", time.Now().UTC())
	require.NoError(t, err)
	approval := contribution.NewPendingApproval(claim)
	require.NoError(t, s.CreateClaim(context.Background(), claim, approval))
	return claim, approval
}

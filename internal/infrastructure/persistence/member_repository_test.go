package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMemberRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMemberRepository(db, time.Second)
	fx := seedGroup(t, db)
	ctx := context.Background()

	t.Run("finds group", func(t *testing.T) {
		group, err := repo.FindGroup(ctx, fx.group.ID)
		require.NoError(t, err)
		require.NotNil(t, group)
		assert.Equal(t, fx.group.Name, group.Name)
		assert.Equal(t, "KES", group.Currency)

		missing, err := repo.FindGroup(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("finds member by user", func(t *testing.T) {
		m, err := repo.FindMemberByUser(ctx, fx.group.ID, fx.treasurer.UserID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, fx.treasurer.ID, m.ID)
		assert.Equal(t, contribution.RoleTreasurer, m.Role)
		assert.True(t, contribution.HasManagerCapability(m, fx.group.ID))

		other, err := repo.FindMemberByUser(ctx, uuid.New(), fx.treasurer.UserID)
		require.NoError(t, err)
		assert.Nil(t, other)
	})

	t.Run("lists inactive members too", func(t *testing.T) {
		left := *fx.member
		left.Active = false
		require.NoError(t, repo.SaveMember(ctx, &left))

		members, err := repo.ListMembers(ctx, fx.group.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, fx.treasurer.ID, members[0].ID)
		assert.False(t, members[1].Active)
	})
}

func TestGormMemberRepository_StoreUnavailable(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormMemberRepository(gormDB, 0)

	mock.ExpectQuery(`SELECT \* FROM "members"`).WillReturnError(sql.ErrConnDone)

	_, err := repo.FindMemberByUser(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

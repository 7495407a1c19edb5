package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentMethodRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentMethodRepository(db, 0)
	fx := seedGroup(t, db)
	ctx := context.Background()

	till, err := contribution.NewPaymentMethod(fx.group.ID, contribution.MethodKindTill, "Shop till", "543210")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, till))

	paybill, err := contribution.NewPaymentMethod(fx.group.ID, contribution.MethodKindPaybill, "Sacco paybill", "888880")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, paybill))

	found, err := repo.FindByID(ctx, till.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, contribution.MethodKindTill, found.Kind)
	assert.Equal(t, "543210", found.Number)
	assert.True(t, found.Active)

	found.Deactivate(time.Now().UTC())
	require.NoError(t, repo.Save(ctx, found))

	active, err := repo.ListByGroup(ctx, fx.group.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, paybill.ID, active[0].ID)

	all, err := repo.ListByGroup(ctx, fx.group.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

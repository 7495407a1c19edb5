package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/stretchr/testify/require"
)

// GroupStore persists groups and their members
type GroupStore interface {
	SaveGroup(ctx context.Context, group *contribution.Group) error
	SaveMember(ctx context.Context, member *contribution.Member) error
}

// GroupFixture is a seeded chama: one treasurer and some ordinary members
type GroupFixture struct {
	Group     *contribution.Group
	Treasurer *contribution.Member
	Members   []*contribution.Member
}

// SeedGroup stores a group with a treasurer and memberCount ordinary members.
// Names and emails come from gofakeit.
func SeedGroup(t *testing.T, store GroupStore, memberCount int) *GroupFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	group := &contribution.Group{
		ID:        uuid.New(),
		Name:      gofakeit.Company() + " Chama",
		Currency:  "KES",
		CreatedAt: now.Add(-24 * time.Hour),
	}
	require.NoError(t, store.SaveGroup(ctx, group), "Failed to seed group")

	f := &GroupFixture{Group: group}
	f.Treasurer = f.addMember(t, store, contribution.RoleTreasurer, now.Add(-23*time.Hour))
	for i := 0; i < memberCount; i++ {
		f.Members = append(f.Members, f.addMember(t, store, contribution.RoleMember, now.Add(-22*time.Hour+time.Duration(i)*time.Minute)))
	}
	return f
}

func (f *GroupFixture) addMember(t *testing.T, store GroupStore, role contribution.Role, joined time.Time) *contribution.Member {
	t.Helper()
	m := &contribution.Member{
		ID:          uuid.New(),
		GroupID:     f.Group.ID,
		UserID:      uuid.New(),
		DisplayName: gofakeit.Name(),
		Email:       gofakeit.Email(),
		Role:        role,
		Active:      true,
		JoinedAt:    joined,
	}
	require.NoError(t, store.SaveMember(context.Background(), m), "Failed to seed member")
	return m
}

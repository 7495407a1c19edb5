package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMemberRepository implements contribution.MemberRepository using GORM
type GormMemberRepository struct {
	store
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB, timeout time.Duration) *GormMemberRepository {
	return &GormMemberRepository{store: store{db: db, timeout: timeout}}
}

// FindGroup finds a group by ID
func (r *GormMemberRepository) FindGroup(ctx context.Context, groupID uuid.UUID) (*contribution.Group, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var model models.GroupModel
	if err := db.Where("id = ?", groupID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find group", err)
	}
	return model.ToDomain(), nil
}

// FindMemberByUser finds the member record linking a user to a group.
// Inactive members are returned; capability checks decide what they may do.
func (r *GormMemberRepository) FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var model models.MemberModel
	if err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find member", err)
	}
	return model.ToDomain(), nil
}

// ListMembers returns every member of a group ordered by join time
func (r *GormMemberRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]contribution.Member, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.MemberModel
	if err := db.Where("group_id = ?", groupID).Order("joined_at ASC").Find(&rows).Error; err != nil {
		return nil, unavailable("list members", err)
	}
	members := make([]contribution.Member, 0, len(rows))
	for i := range rows {
		members = append(members, *rows[i].ToDomain())
	}
	return members, nil
}

// SaveGroup creates or updates a group
func (r *GormMemberRepository) SaveGroup(ctx context.Context, group *contribution.Group) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Save(models.GroupModelFromDomain(group)).Error; err != nil {
		return unavailable("save group", err)
	}
	return nil
}

// SaveMember creates or updates a member
func (r *GormMemberRepository) SaveMember(ctx context.Context, member *contribution.Member) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Save(models.MemberModelFromDomain(member)).Error; err != nil {
		return unavailable("save member", err)
	}
	return nil
}

// Ensure GormMemberRepository implements contribution.MemberRepository
var _ contribution.MemberRepository = (*GormMemberRepository)(nil)

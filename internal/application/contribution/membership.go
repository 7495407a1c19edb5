package contribution

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
)

// Membership resolves callers to group members
type Membership struct {
	members contribution.MemberRepository
}

// NewMembership creates a Membership
func NewMembership(members contribution.MemberRepository) *Membership {
	return &Membership{members: members}
}

// RequireMember returns the caller's active membership of groupID, or
// ErrNotAMember.
func (m *Membership) RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error) {
	if userID == uuid.Nil {
		return nil, contribution.ErrNotAMember
	}
	member, err := m.members.FindMemberByUser(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.Active {
		return nil, contribution.ErrNotAMember
	}
	return member, nil
}

// RequireManager returns the caller's membership when it carries manager
// capability over groupID, or ErrNotAuthorized.
func (m *Membership) RequireManager(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error) {
	if userID == uuid.Nil {
		return nil, contribution.ErrNotAuthorized
	}
	member, err := m.members.FindMemberByUser(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !contribution.HasManagerCapability(member, groupID) {
		return nil, contribution.ErrNotAuthorized
	}
	return member, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package contribution

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within a group pool
type Role string

const (
	RoleMember    Role = "member"
	RoleTreasurer Role = "treasurer"
	RoleAdmin     Role = "admin"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleTreasurer, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Group is a savings pool
type Group struct {
	ID        uuid.UUID
	Name      string
	Currency  string
	CreatedAt time.Time
}

// Member identifies a participant in a group pool. UserID is the subject of
// the identity provider's token.
type Member struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Role        Role
	Active      bool
	JoinedAt    time.Time
}

// Label returns the best human-readable name for the member
func (m *Member) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Email
}

// HasManagerCapability reports whether m may manage approvals and payment
// methods of groupID. This is the only place role semantics are decided.
func HasManagerCapability(m *Member, groupID uuid.UUID) bool {
	if m == nil || !m.Active || m.GroupID != groupID {
		return false
	}
	return m.Role == RoleTreasurer || m.Role == RoleAdmin
}

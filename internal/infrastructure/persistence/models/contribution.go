package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/shopspring/decimal"
)

// GroupModel is the persistence model for a savings group
type GroupModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'KES'"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GroupModel) TableName() string {
	return "chama_groups"
}

// ToDomain converts the model to a domain Group
func (m *GroupModel) ToDomain() *contribution.Group {
	return &contribution.Group{ID: m.ID, Name: m.Name, Currency: m.Currency, CreatedAt: m.CreatedAt}
}

// GroupModelFromDomain creates a model from a domain Group
func GroupModelFromDomain(g *contribution.Group) *GroupModel {
	return &GroupModel{ID: g.ID, Name: g.Name, Currency: g.Currency, CreatedAt: g.CreatedAt}
}

// MemberModel is the persistence model for a group member
type MemberModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_members_group_user"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_members_group_user"`
	DisplayName string    `gorm:"type:varchar(200)"`
	Email       string    `gorm:"type:varchar(200)"`
	Role        string    `gorm:"type:varchar(20);not null"`
	Active      bool      `gorm:"not null"`
	JoinedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MemberModel) TableName() string {
	return "members"
}

// ToDomain converts the model to a domain Member
func (m *MemberModel) ToDomain() *contribution.Member {
	return &contribution.Member{
		ID:          m.ID,
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Role:        contribution.Role(m.Role),
		Active:      m.Active,
		JoinedAt:    m.JoinedAt,
	}
}

// MemberModelFromDomain creates a model from a domain Member
func MemberModelFromDomain(mem *contribution.Member) *MemberModel {
	return &MemberModel{
		ID:          mem.ID,
		GroupID:     mem.GroupID,
		UserID:      mem.UserID,
		DisplayName: mem.DisplayName,
		Email:       mem.Email,
		Role:        string(mem.Role),
		Active:      mem.Active,
		JoinedAt:    mem.JoinedAt,
	}
}

// PaymentMethodModel is the persistence model for a payment method
type PaymentMethodModel struct {
	BaseModel
	GroupID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"type:varchar(20);not null"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	Number      string    `gorm:"type:varchar(50);not null"`
	Active      bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// ToDomain converts the model to a domain PaymentMethod
func (m *PaymentMethodModel) ToDomain() *contribution.PaymentMethod {
	return &contribution.PaymentMethod{
		BaseEntity:  m.BaseModel.ToDomain(),
		GroupID:     m.GroupID,
		Kind:        contribution.MethodKind(m.Kind),
		DisplayName: m.DisplayName,
		Number:      m.Number,
		Active:      m.Active,
	}
}

// PaymentMethodModelFromDomain creates a model from a domain PaymentMethod
func PaymentMethodModelFromDomain(p *contribution.PaymentMethod) *PaymentMethodModel {
	m := &PaymentMethodModel{
		GroupID:     p.GroupID,
		Kind:        string(p.Kind),
		DisplayName: p.DisplayName,
		Number:      p.Number,
		Active:      p.Active,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// ClaimModel is the persistence model for a contribution claim
type ClaimModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GroupID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	MemberID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method          string          `gorm:"type:varchar(30);not null"`
	PaymentMethodID *uuid.UUID      `gorm:"type:uuid"`
	Reference       string          `gorm:"type:varchar(100)"`
	Note            string          `gorm:"type:text"`
	SubmittedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "contribution_claims"
}

// ToDomain converts the model to a domain Claim
func (m *ClaimModel) ToDomain() *contribution.Claim {
	return &contribution.Claim{
		ID:              m.ID,
		GroupID:         m.GroupID,
		MemberID:        m.MemberID,
		Amount:          m.Amount,
		Method:          contribution.DeclaredMethod(m.Method),
		PaymentMethodID: m.PaymentMethodID,
		Reference:       m.Reference,
		Note:            m.Note,
		SubmittedAt:     m.SubmittedAt,
	}
}

// ClaimModelFromDomain creates a model from a domain Claim
func ClaimModelFromDomain(c *contribution.Claim) *ClaimModel {
	return &ClaimModel{
		ID:              c.ID,
		GroupID:         c.GroupID,
		MemberID:        c.MemberID,
		Amount:          c.Amount,
		Method:          string(c.Method),
		PaymentMethodID: c.PaymentMethodID,
		Reference:       c.Reference,
		Note:            c.Note,
		SubmittedAt:     c.SubmittedAt,
	}
}

// ApprovalModel is the persistence model for an approval
type ApprovalModel struct {
	AggregateModel
	ClaimID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Status          string    `gorm:"type:varchar(20);not null;index"`
	ResolvedBy      string    `gorm:"type:varchar(100)"`
	ResolvedAt      *time.Time
	RejectionReason string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApprovalModel) TableName() string {
	return "approvals"
}

// ToDomain converts the model to a domain Approval
func (m *ApprovalModel) ToDomain() *contribution.Approval {
	return &contribution.Approval{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ClaimID:           m.ClaimID,
		Status:            contribution.ApprovalStatus(m.Status),
		ResolvedBy:        m.ResolvedBy,
		ResolvedAt:        m.ResolvedAt,
		RejectionReason:   m.RejectionReason,
	}
}

// ApprovalModelFromDomain creates a model from a domain Approval
func ApprovalModelFromDomain(a *contribution.Approval) *ApprovalModel {
	m := &ApprovalModel{
		ClaimID:         a.ClaimID,
		Status:          string(a.Status),
		ResolvedBy:      a.ResolvedBy,
		ResolvedAt:      a.ResolvedAt,
		RejectionReason: a.RejectionReason,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// LedgerEntryModel is the persistence model for a ledger entry. The unique
// claim_id index makes posting idempotent per claim.
type LedgerEntryModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClaimID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	GroupID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MemberID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PostedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// LedgerEntryModelFromDomain creates a model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *contribution.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:       e.ID,
		ClaimID:  e.ClaimID,
		GroupID:  e.GroupID,
		MemberID: e.MemberID,
		Amount:   e.Amount,
		PostedAt: e.PostedAt,
	}
}

// GroupBalanceModel is the running total of a group
type GroupBalanceModel struct {
	GroupID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Total      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EntryCount int64           `gorm:"not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GroupBalanceModel) TableName() string {
	return "group_balances"
}

// ToDomain converts the model to a domain Balance
func (m *GroupBalanceModel) ToDomain() *contribution.Balance {
	updated := m.UpdatedAt
	return &contribution.Balance{GroupID: m.GroupID, Total: m.Total, EntryCount: m.EntryCount, LastPostedAt: &updated}
}

// MemberBalanceModel is the running total of one member within a group
type MemberBalanceModel struct {
	GroupID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MemberID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EntryCount   int64           `gorm:"not null;default:0"`
	LastPostedAt *time.Time
}

// TableName returns the table name for GORM
func (MemberBalanceModel) TableName() string {
	return "member_balances"
}

// ToDomain converts the model to a domain Balance
func (m *MemberBalanceModel) ToDomain() *contribution.Balance {
	memberID := m.MemberID
	return &contribution.Balance{GroupID: m.GroupID, MemberID: &memberID, Total: m.Total, EntryCount: m.EntryCount, LastPostedAt: m.LastPostedAt}
}

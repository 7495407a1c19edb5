package contribution

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MemberRepository reads group membership. Find methods return (nil, nil)
// when the row does not exist.
type MemberRepository interface {
	FindGroup(ctx context.Context, groupID uuid.UUID) (*Group, error)
	FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*Member, error)
	// ListMembers returns active and inactive members so that historical
	// contributions stay attributable.
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error)
}

// PaymentMethodRepository persists payment methods
type PaymentMethodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, includeInactive bool) ([]PaymentMethod, error)
	Save(ctx context.Context, method *PaymentMethod) error
}

// LedgerStore holds claims, approvals, ledger entries and running totals.
//
// CreateClaim writes the claim and its pending approval atomically.
// ResolveApproval is a compare-and-swap on status = pending; the status flip,
// the ledger entry (when entry is non-nil) and the running-total increments
// commit in one transaction. A lost race returns ErrAlreadyResolved.
// LoadProjectionInputs reads the claim records and the group running total
// from a single consistent snapshot.
type LedgerStore interface {
	CreateClaim(ctx context.Context, claim *Claim, approval *Approval) error
	FindApproval(ctx context.Context, approvalID uuid.UUID) (*Approval, *Claim, error)
	ListPendingApprovals(ctx context.Context, groupID uuid.UUID) ([]PendingApproval, error)
	ResolveApproval(ctx context.Context, approval *Approval, entry *LedgerEntry) error
	LoadProjectionInputs(ctx context.Context, groupID uuid.UUID) ([]ClaimRecord, *Balance, error)
}

// PendingApproval pairs an unresolved approval with its claim
type PendingApproval struct {
	Approval Approval
	Claim    Claim
}

// ClaimRecord is a claim joined with its approval and ledger entry, if any.
// Missing rows show up as nil pointers so integrity checks can see them.
type ClaimRecord struct {
	Claim         Claim
	ApprovalID    *uuid.UUID
	Status        ApprovalStatus
	ResolvedAt    *time.Time
	LedgerEntryID *uuid.UUID
	PostedAt      *time.Time
}

package contribution

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/shared"
)

// ApprovalStatus represents the state of an approval
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsValid returns true if the status is known
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// IsFinal returns true for terminal statuses
func (s ApprovalStatus) IsFinal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// Decision is a manager's judgment over a pending approval
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid returns true if the decision is known
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// SystemResolver is recorded as the resolver of contributions funded by a
// confirmed mobile-money payment.
const SystemResolver = "system:mpesa"

// Approval is the pending/resolved judgment over exactly one Claim.
// Transitions: pending -> approved | pending -> rejected, both terminal.
type Approval struct {
	shared.BaseAggregateRoot
	ClaimID         uuid.UUID
	Status          ApprovalStatus
	ResolvedBy      string
	ResolvedAt      *time.Time
	RejectionReason string
}

// NewPendingApproval creates the pending approval for a claim
func NewPendingApproval(claim *Claim) *Approval {
	a := &Approval{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClaimID:           claim.ID,
		Status:            ApprovalStatusPending,
	}
	a.CreatedAt = claim.SubmittedAt
	a.UpdatedAt = claim.SubmittedAt
	return a
}

// IsPending returns true while the approval is unresolved
func (a *Approval) IsPending() bool {
	return a.Status == ApprovalStatusPending
}

// Approve flips the approval to approved and returns the ledger entry that
// must be committed together with the flip.
func (a *Approval) Approve(claim *Claim, resolvedBy string, at time.Time) (*LedgerEntry, error) {
	if !a.IsPending() {
		return nil, ErrAlreadyResolved
	}
	a.Status = ApprovalStatusApproved
	a.ResolvedBy = resolvedBy
	a.ResolvedAt = &at
	a.Touch(at)
	return NewLedgerEntry(claim, at), nil
}

// Reject flips the approval to rejected. A non-empty reason is required.
func (a *Approval) Reject(resolvedBy, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingRejectionReason
	}
	if !a.IsPending() {
		return ErrAlreadyResolved
	}
	a.Status = ApprovalStatusRejected
	a.ResolvedBy = resolvedBy
	a.ResolvedAt = &at
	a.RejectionReason = reason
	a.Touch(at)
	return nil
}

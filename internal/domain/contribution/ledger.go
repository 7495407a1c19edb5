package contribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the durable effect of an approved claim. ClaimID is the
// idempotency key: at most one entry exists per claim.
type LedgerEntry struct {
	ID       uuid.UUID
	ClaimID  uuid.UUID
	GroupID  uuid.UUID
	MemberID uuid.UUID
	Amount   decimal.Decimal
	PostedAt time.Time
}

// NewLedgerEntry builds the entry for an approved claim
func NewLedgerEntry(claim *Claim, at time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:       uuid.New(),
		ClaimID:  claim.ID,
		GroupID:  claim.GroupID,
		MemberID: claim.MemberID,
		Amount:   claim.Amount,
		PostedAt: at,
	}
}

// Balance is a running total maintained by the store
type Balance struct {
	GroupID      uuid.UUID
	MemberID     *uuid.UUID
	Total        decimal.Decimal
	EntryCount   int64
	LastPostedAt *time.Time
}

// FundedContribution is a claim that was confirmed by an external payment
// and is therefore created already approved, together with its ledger entry.
type FundedContribution struct {
	Claim    *Claim
	Approval *Approval
	Entry    *LedgerEntry
}

// NewFundedContribution builds an auto-approved contribution for a confirmed
// mobile-money payment.
func NewFundedContribution(groupID, memberID uuid.UUID, amount decimal.Decimal, receipt string, at time.Time) (*FundedContribution, error) {
	claim, err := NewClaim(groupID, memberID, amount, MethodMobileMoney, nil, receipt, "", at)
	if err != nil {
		return nil, err
	}
	approval := NewPendingApproval(claim)
	entry, err := approval.Approve(claim, SystemResolver, at)
	if err != nil {
		return nil, err
	}
	return &FundedContribution{Claim: claim, Approval: approval, Entry: entry}, nil
}

package mobilemoney

import (
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the reconciliation state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// IsValid returns true if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// IsFinal returns true if no further transition is allowed
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// IsSuccess returns true if the payment went through
func (s TransactionStatus) IsSuccess() bool {
	return s == TransactionStatusSuccess
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// TransactionType is the kind of external payment attempt
type TransactionType string

const (
	TransactionTypeSTKPush TransactionType = "stk_push"
)

// FundingTarget names the group contribution a payment pays for
type FundingTarget struct {
	GroupID  uuid.UUID
	MemberID uuid.UUID
}

// Transaction is one attempted external payment. It is created pending by
// the initiate step and resolved exactly once by a callback.
type Transaction struct {
	shared.BaseAggregateRoot
	UserID            uuid.UUID
	Type              TransactionType
	Amount            decimal.Decimal
	PhoneNumber       string
	AccountReference  string
	Description       string
	MerchantRequestID string
	CheckoutRequestID string
	ReceiptNumber     string
	ResultCode        *int
	ResultDesc        string
	Status            TransactionStatus
	RawCallback       []byte
	Funding           *FundingTarget
	FundedClaimID     *uuid.UUID
}

// NewPendingTransaction records a charge request the network accepted
func NewPendingTransaction(userID uuid.UUID, req *ChargeRequest, resp *ChargeResponse, funding *FundingTarget) *Transaction {
	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Type:              TransactionTypeSTKPush,
		Amount:            decimal.NewFromInt(req.Amount),
		PhoneNumber:       req.PhoneNumber,
		AccountReference:  req.AccountReference,
		Description:       req.Description,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            TransactionStatusPending,
		Funding:           funding,
	}
}

// IsPending returns true while the transaction awaits its callback
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// ApplyCallback resolves the transaction from a parsed callback. The raw
// payload is kept for audit.
func (t *Transaction) ApplyCallback(result *CallbackResult, raw []byte, at time.Time) error {
	if !t.IsPending() {
		return ErrTransactionAlreadyResolved
	}
	code := result.ResultCode
	t.ResultCode = &code
	t.ResultDesc = result.ResultDesc
	t.RawCallback = raw
	if result.Succeeded() {
		t.Status = TransactionStatusSuccess
		t.ReceiptNumber = result.ReceiptNumber
	} else {
		t.Status = TransactionStatusFailed
	}
	t.Touch(at)
	return nil
}

// FundedContribution returns the auto-approved contribution a successful
// funding transaction posts, or nil when there is nothing to post.
func (t *Transaction) FundedContribution(at time.Time) (*contribution.FundedContribution, error) {
	if t.Funding == nil || !t.Status.IsSuccess() {
		return nil, nil
	}
	funded, err := contribution.NewFundedContribution(t.Funding.GroupID, t.Funding.MemberID, t.Amount, t.ReceiptNumber, at)
	if err != nil {
		return nil, err
	}
	claimID := funded.Claim.ID
	t.FundedClaimID = &claimID
	return funded, nil
}

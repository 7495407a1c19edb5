package contribution

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Claim is a member's unverified assertion of having paid money into the
// pool. It is immutable once created.
type Claim struct {
	ID              uuid.UUID
	GroupID         uuid.UUID
	MemberID        uuid.UUID
	Amount          decimal.Decimal
	Method          DeclaredMethod
	PaymentMethodID *uuid.UUID
	Reference       string
	Note            string
	SubmittedAt     time.Time
}

// ParseAmount parses a currency amount. Non-numeric, non-positive and
// oversized values are rejected, as are values with more than two decimal
// places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// MaxAmount is the first amount that no longer fits the DECIMAL(18,4)
// columns amounts and running totals are stored in.
var MaxAmount = decimal.New(1, 14)

// ValidateAmount checks that amount is positive, below MaxAmount and has at
// most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// NewClaim creates a claim for memberID in groupID
func NewClaim(
	groupID, memberID uuid.UUID,
	amount decimal.Decimal,
	method DeclaredMethod,
	paymentMethodID *uuid.UUID,
	reference, note string,
	at time.Time,
) (*Claim, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	return &Claim{
		ID:              uuid.New(),
		GroupID:         groupID,
		MemberID:        memberID,
		Amount:          amount,
		Method:          method,
		PaymentMethodID: paymentMethodID,
		Reference:       strings.TrimSpace(reference),
		Note:            strings.TrimSpace(note),
		SubmittedAt:     at,
	}, nil
}

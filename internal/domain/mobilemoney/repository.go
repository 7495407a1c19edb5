package mobilemoney

import (
	"context"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
)

// TransactionRepository persists mobile-money transactions
type TransactionRepository interface {
	// Create inserts a pending transaction. A reused correlation id yields
	// ErrDuplicateCorrelationID.
	Create(ctx context.Context, tx *Transaction) error
	// FindByID returns (nil, nil) when the transaction does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindByCorrelation is the only way callbacks are matched to local
	// transactions: the checkout request id is tried first, then the merchant
	// request id. Empty ids are skipped. Returns (nil, nil) when neither matches.
	FindByCorrelation(ctx context.Context, checkoutRequestID, merchantRequestID string) (*Transaction, error)
	// Complete persists the callback outcome as a compare-and-swap on
	// status = pending. When funded is non-nil its claim, approval, ledger
	// entry and running totals are written in the same transaction. A lost
	// race yields ErrTransactionAlreadyResolved.
	Complete(ctx context.Context, tx *Transaction, funded *contribution.FundedContribution) error
}

package contribution

import "errors"

var (
	// Submission errors
	ErrInvalidAmount        = errors.New("contribution: amount must be a positive number")
	ErrUnknownPaymentMethod = errors.New("contribution: unknown or inactive payment method")
	ErrNotAMember           = errors.New("contribution: caller is not an active member of the group")

	// Resolution errors
	ErrApprovalNotFound       = errors.New("contribution: approval not found")
	ErrNotAuthorized          = errors.New("contribution: caller lacks manager capability")
	ErrAlreadyResolved        = errors.New("contribution: approval already resolved")
	ErrMissingRejectionReason = errors.New("contribution: rejection reason is required")
	ErrInvalidDecision        = errors.New("contribution: decision must be approve or reject")

	// Payment method errors
	ErrInvalidMethodKind        = errors.New("contribution: payment method kind must be phone, till or paybill")
	ErrInvalidMethodDestination = errors.New("contribution: payment method destination number is required")
	ErrInvalidMethodName        = errors.New("contribution: payment method display name is required")
	ErrPaymentMethodNotFound    = errors.New("contribution: payment method not found")

	// Lookup errors
	ErrGroupNotFound = errors.New("contribution: group not found")

	// ErrIntegrityViolation marks rows that break the claim/approval/ledger
	// invariants. It is never recoverable at runtime.
	ErrIntegrityViolation = errors.New("contribution: ledger integrity violation")
)

package mobilemoney

import "errors"

var (
	// Initiation errors
	ErrUnauthorized       = errors.New("mobilemoney: caller is not authenticated")
	ErrInvalidPhoneNumber = errors.New("mobilemoney: invalid phone number")
	ErrInvalidAmount      = errors.New("mobilemoney: amount must be a positive whole number")
	ErrInvalidAccountRef  = errors.New("mobilemoney: account reference is required")

	// Gateway errors
	ErrGatewayMisconfigured   = errors.New("mobilemoney: gateway credentials missing or invalid")
	ErrGatewayUnavailable     = errors.New("mobilemoney: gateway temporarily unavailable")
	ErrGatewayRejected        = errors.New("mobilemoney: gateway rejected the charge request")
	ErrGatewayInvalidResponse = errors.New("mobilemoney: invalid gateway response")

	// Reconciliation errors
	ErrInvalidCallback            = errors.New("mobilemoney: malformed callback payload")
	ErrTransactionNotFound        = errors.New("mobilemoney: transaction not found")
	ErrTransactionAlreadyResolved = errors.New("mobilemoney: transaction already resolved")
	ErrDuplicateCorrelationID     = errors.New("mobilemoney: correlation id already recorded")
)

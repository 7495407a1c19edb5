package mobilemoney

import (
	"context"
	"strings"
)

// ResponseCodeAccepted is the network's sentinel for an accepted charge request
const ResponseCodeAccepted = "0"

// ResultCodeSuccess is the network's sentinel for a completed payment
const ResultCodeSuccess = 0

// Field limits imposed by the network
const (
	MaxAccountReferenceLength = 12
	MaxDescriptionLength      = 13
)

// Gateway is the external payment network
type Gateway interface {
	// AccessToken returns a short-lived credential for InitiateCharge
	AccessToken(ctx context.Context) (string, error)
	// InitiateCharge sends an STK push to the customer's phone
	InitiateCharge(ctx context.Context, token string, req *ChargeRequest) (*ChargeResponse, error)
}

// ChargeRequest is a customer charge. PhoneNumber must already be normalized.
type ChargeRequest struct {
	PhoneNumber      string
	Amount           int64
	AccountReference string
	Description      string
}

// Validate validates the charge request and truncates fields to network limits
func (r *ChargeRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := NormalizePhoneNumber(r.PhoneNumber); err != nil {
		return err
	}
	r.AccountReference = truncate(strings.TrimSpace(r.AccountReference), MaxAccountReferenceLength)
	if r.AccountReference == "" {
		return ErrInvalidAccountRef
	}
	r.Description = truncate(strings.TrimSpace(r.Description), MaxDescriptionLength)
	if r.Description == "" {
		r.Description = "Payment"
	}
	return nil
}

// ChargeResponse is the network's synchronous answer to a charge request
type ChargeResponse struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
	CustomerMessage     string
}

// IsAccepted returns true if the network accepted the charge request
func (r *ChargeResponse) IsAccepted() bool {
	return r != nil && r.ResponseCode == ResponseCodeAccepted &&
		r.MerchantRequestID != "" && r.CheckoutRequestID != ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

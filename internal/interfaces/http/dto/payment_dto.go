package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/domain/mobilemoney"
)

// STKPushRequest asks the network to prompt a phone for payment
type STKPushRequest struct {
	PhoneNumber      string  `json:"phone_number" binding:"required"`
	Amount           Amount  `json:"amount" binding:"required"`
	AccountReference string  `json:"account_reference" binding:"max=12"`
	Description      string  `json:"description" binding:"max=13"`
	GroupID          *string `json:"group_id" binding:"omitempty,uuid"`
}

// STKPushResponse identifies the pending transaction
type STKPushResponse struct {
	TransactionID     uuid.UUID `json:"transaction_id"`
	MerchantRequestID string    `json:"merchant_request_id"`
	CheckoutRequestID string    `json:"checkout_request_id"`
	CustomerMessage   string    `json:"customer_message"`
	Status            string    `json:"status"`
}

// NewSTKPushResponse converts an initiation result
func NewSTKPushResponse(r *payment.InitiateResult) STKPushResponse {
	return STKPushResponse{
		TransactionID:     r.TransactionID,
		MerchantRequestID: r.MerchantRequestID,
		CheckoutRequestID: r.CheckoutRequestID,
		CustomerMessage:   r.CustomerMessage,
		Status:            string(mobilemoney.TransactionStatusPending),
	}
}

// TransactionResponse is a mobile-money transaction as seen by its owner
type TransactionResponse struct {
	ID                uuid.UUID  `json:"id"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	Amount            string     `json:"amount"`
	PhoneNumber       string     `json:"phone_number"`
	AccountReference  string     `json:"account_reference"`
	Description       string     `json:"description,omitempty"`
	MerchantRequestID string     `json:"merchant_request_id"`
	CheckoutRequestID string     `json:"checkout_request_id"`
	ReceiptNumber     string     `json:"receipt_number,omitempty"`
	ResultCode        *int       `json:"result_code,omitempty"`
	ResultDesc        string     `json:"result_desc,omitempty"`
	GroupID           *uuid.UUID `json:"group_id,omitempty"`
	FundedClaimID     *uuid.UUID `json:"funded_claim_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewTransactionResponse converts a transaction
func NewTransactionResponse(t *mobilemoney.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID,
		Type:              string(t.Type),
		Status:            string(t.Status),
		Amount:            t.Amount.StringFixed(2),
		PhoneNumber:       t.PhoneNumber,
		AccountReference:  t.AccountReference,
		Description:       t.Description,
		MerchantRequestID: t.MerchantRequestID,
		CheckoutRequestID: t.CheckoutRequestID,
		ReceiptNumber:     t.ReceiptNumber,
		ResultCode:        t.ResultCode,
		ResultDesc:        t.ResultDesc,
		FundedClaimID:     t.FundedClaimID,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.Funding != nil {
		groupID := t.Funding.GroupID
		resp.GroupID = &groupID
	}
	return resp
}

package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// maxCallbackBody caps what is read from a payment network callback
const maxCallbackBody = 64 << 10

// PaymentBridge initiates charges and applies their callbacks
type PaymentBridge interface {
	Initiate(ctx context.Context, cmd payment.InitiateCommand) (*payment.InitiateResult, error)
	HandleCallback(ctx context.Context, raw []byte) payment.Ack
	GetTransactionStatus(ctx context.Context, transactionID, callerUserID uuid.UUID) (*mobilemoney.Transaction, error)
}

// PaymentHandler handles mobile-money endpoints
type PaymentHandler struct {
	BaseHandler
	bridge PaymentBridge
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(bridge PaymentBridge) *PaymentHandler {
	return &PaymentHandler{bridge: bridge}
}

// InitiateSTKPush godoc
// @Summary      Prompt a phone for an M-Pesa payment
// @Tags         payments
// @Success      202 {object} dto.Response
// @Router       /payments/mpesa/stk-push [post]
func (h *PaymentHandler) InitiateSTKPush(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.STKPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	cmd := payment.InitiateCommand{
		CallerUserID:     callerID,
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount.String(),
		AccountReference: req.AccountReference,
		Description:      req.Description,
	}
	if req.GroupID != nil {
		groupID, err := uuid.Parse(*req.GroupID)
		if err != nil {
			h.BadRequest(c, "Invalid group_id")
			return
		}
		cmd.Fund = &payment.FundTarget{GroupID: groupID}
	}

	result, err := h.bridge.Initiate(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.NewSTKPushResponse(result)))
}

// GetTransaction godoc
// @Summary      Status of one of the caller's transactions
// @Tags         payments
// @Param        transaction_id path string true "Transaction ID"
// @Success      200 {object} dto.Response
// @Router       /payments/transactions/{transaction_id} [get]
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	transactionID, ok := h.parseUUIDParam(c, "transaction_id")
	if !ok {
		return
	}

	txn, err := h.bridge.GetTransactionStatus(c.Request.Context(), transactionID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewTransactionResponse(txn))
}

// MpesaCallback godoc
// @Summary      M-Pesa STK push result callback
// @Description  Always acknowledged with ResultCode 0 so the network stops retrying.
// @Tags         payments
// @Success      200 {object} payment.Ack
// @Router       /payments/mpesa/callback [post]
func (h *PaymentHandler) MpesaCallback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		logger.GetGinLogger(c).Warn("Failed to read mpesa callback body", zap.Error(err))
		c.JSON(http.StatusOK, payment.Accepted)
		return
	}
	c.JSON(http.StatusOK, h.bridge.HandleCallback(c.Request.Context(), raw))
}

// MpesaCallbackThrottled acknowledges a callback the rate limiter dropped.
// The transaction stays pending until a status query settles it.
func (h *PaymentHandler) MpesaCallbackThrottled(c *gin.Context) {
	logger.GetGinLogger(c).Warn("Dropped throttled mpesa callback",
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("content_length", c.Request.ContentLength))
	c.JSON(http.StatusOK, payment.Accepted)
}

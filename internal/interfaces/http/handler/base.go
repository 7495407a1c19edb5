package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/hazina/backend/internal/domain/shared"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/interfaces/http/dto"
	"github.com/hazina/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "request_id"

// errCallerMissing is returned when no authenticated caller is on the context
var errCallerMissing = errors.New("caller not found in context")

// notAuthorizedMessage is shared by every capability failure so the response
// does not reveal which check failed
const notAuthorizedMessage = "Not authorized to perform this action"

// errorMapping translates a sentinel into its API code and public message
type errorMapping struct {
	err     error
	code    string
	message string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []errorMapping{
	// validation
	{contribution.ErrInvalidAmount, dto.ErrCodeInvalidAmount, "Amount must be a positive number"},
	{contribution.ErrInvalidDecision, dto.ErrCodeInvalidDecision, "Decision must be approve or reject"},
	{contribution.ErrMissingRejectionReason, dto.ErrCodeMissingReason, "A reason is required to reject a contribution"},
	{contribution.ErrInvalidMethodKind, dto.ErrCodeValidation, "Payment method kind must be phone, till or paybill"},
	{contribution.ErrInvalidMethodDestination, dto.ErrCodeValidation, "Payment method number is required"},
	{contribution.ErrInvalidMethodName, dto.ErrCodeValidation, "Payment method display name is required"},
	{contribution.ErrUnknownPaymentMethod, dto.ErrCodeUnknownMethod, "Unknown or inactive payment method"},
	{mobilemoney.ErrInvalidPhoneNumber, dto.ErrCodeInvalidPhone, "Phone number must be a valid Safaricom number"},
	{mobilemoney.ErrInvalidAmount, dto.ErrCodeInvalidAmount, "Amount must be a positive whole number"},
	{mobilemoney.ErrInvalidAccountRef, dto.ErrCodeValidation, "Account reference is required"},

	// auth
	{mobilemoney.ErrUnauthorized, dto.ErrCodeUnauthorized, "Authentication required"},
	{contribution.ErrNotAMember, dto.ErrCodeForbidden, notAuthorizedMessage},
	{contribution.ErrNotAuthorized, dto.ErrCodeForbidden, notAuthorizedMessage},

	// lookups
	{contribution.ErrApprovalNotFound, dto.ErrCodeNotFound, "Approval not found"},
	{contribution.ErrPaymentMethodNotFound, dto.ErrCodeNotFound, "Payment method not found"},
	{contribution.ErrGroupNotFound, dto.ErrCodeNotFound, "Group not found"},
	{mobilemoney.ErrTransactionNotFound, dto.ErrCodeNotFound, "Transaction not found"},

	// state
	{mobilemoney.ErrTransactionAlreadyResolved, dto.ErrCodeConflict, "Transaction already resolved"},
	{mobilemoney.ErrDuplicateCorrelationID, dto.ErrCodeConflict, "Transaction already recorded"},

	// dependencies
	{shared.ErrStoreUnavailable, dto.ErrCodeStoreUnavailable, "Service temporarily unavailable, please retry"},
	{mobilemoney.ErrGatewayUnavailable, dto.ErrCodeGatewayUnavailable, "Payment network temporarily unavailable, please retry"},
	{mobilemoney.ErrGatewayMisconfigured, dto.ErrCodeGatewayMisconfigured, "Payments are not available"},
	{mobilemoney.ErrGatewayRejected, dto.ErrCodeGatewayRejected, "The payment network rejected the request"},
	{mobilemoney.ErrGatewayInvalidResponse, dto.ErrCodeGatewayInvalid, "Unexpected response from the payment network"},
	{appcontribution.ErrArchiveDisabled, dto.ErrCodeArchiveDisabled, "Report archiving is not configured"},
	{appcontribution.ErrArchiveUnavailable, dto.ErrCodeArchiveUnavailable, "Report storage temporarily unavailable, please retry"},

	// integrity
	{contribution.ErrIntegrityViolation, dto.ErrCodeIntegrity, "Contribution records are inconsistent"},
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getUserID extracts the caller's user ID from the JWT claims
func getUserID(c *gin.Context) (uuid.UUID, error) {
	raw := middleware.GetJWTUserID(c)
	if raw == "" {
		return uuid.Nil, errCallerMissing
	}
	return uuid.Parse(raw)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a list response with its item count
func (h *BaseHandler) SuccessList(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Created sends a created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// ErrorWithCode sends an error response whose status is derived from the code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends an unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "Authentication required")
}

// BindError reports a body or query binding failure
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if middleware.IsValidationError(err) {
		middleware.HandleValidationError(c, err)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.ErrorWithCode(c, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
}

// HandleError maps an application error to a response. Unknown errors are
// logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	log := logger.GetGinLogger(c)
	code, message := MapError(err)

	switch {
	case code == dto.ErrCodeIntegrity:
		log.Error("Ledger integrity violation", zap.Error(err))
	case code == dto.ErrCodeInternal:
		log.Error("Unhandled error", zap.Error(err))
	case dto.GetHTTPStatus(code) >= http.StatusInternalServerError:
		log.Warn("Dependency failure", zap.String("code", code), zap.Error(err))
	}

	h.ErrorWithCode(c, code, message)
}

// MapError returns the API code and public message for err
func MapError(err error) (string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code, m.message
		}
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	}
	return dto.ErrCodeInternal, "An internal error occurred"
}

// parseUUIDParam reads a uuid path parameter, answering 400 when malformed
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the authenticated caller, answering 401 when absent
func (h *BaseHandler) caller(c *gin.Context) (uuid.UUID, bool) {
	id, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c)
		return uuid.Nil, false
	}
	return id, true
}

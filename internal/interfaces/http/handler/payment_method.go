package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/interfaces/http/dto"
)

// PaymentMethodManager manages a group's payment methods
type PaymentMethodManager interface {
	List(ctx context.Context, groupID, callerUserID uuid.UUID, includeInactive bool) ([]contribution.PaymentMethod, error)
	Create(ctx context.Context, cmd appcontribution.CreatePaymentMethodCommand) (*contribution.PaymentMethod, error)
	Deactivate(ctx context.Context, methodID, callerUserID uuid.UUID) (*contribution.PaymentMethod, error)
}

// PaymentMethodHandler handles payment method endpoints
type PaymentMethodHandler struct {
	BaseHandler
	methods PaymentMethodManager
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler
func NewPaymentMethodHandler(methods PaymentMethodManager) *PaymentMethodHandler {
	return &PaymentMethodHandler{methods: methods}
}

// List godoc
// @Summary      List a group's payment methods
// @Tags         payment-methods
// @Param        group_id path string true "Group ID"
// @Param        include_inactive query bool false "Managers only"
// @Success      200 {object} dto.Response
// @Router       /groups/{group_id}/payment-methods [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return
	}

	var query dto.ListPaymentMethodsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	methods, err := h.methods.List(c.Request.Context(), groupID, callerID, query.IncludeInactive)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, dto.NewPaymentMethodResponses(methods), len(methods))
}

// Create godoc
// @Summary      Register a payment method for a group
// @Tags         payment-methods
// @Param        group_id path string true "Group ID"
// @Success      201 {object} dto.Response
// @Router       /groups/{group_id}/payment-methods [post]
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return
	}

	var req dto.CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	method, err := h.methods.Create(c.Request.Context(), appcontribution.CreatePaymentMethodCommand{
		GroupID:      groupID,
		CallerUserID: callerID,
		Kind:         contribution.MethodKind(req.Kind),
		DisplayName:  req.DisplayName,
		Number:       req.Number,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewPaymentMethodResponse(method))
}

// Deactivate godoc
// @Summary      Deactivate a payment method
// @Description  Claims already submitted against the method are unaffected.
// @Tags         payment-methods
// @Param        method_id path string true "Payment method ID"
// @Success      200 {object} dto.Response
// @Router       /payment-methods/{method_id}/deactivate [post]
func (h *PaymentMethodHandler) Deactivate(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	methodID, ok := h.parseUUIDParam(c, "method_id")
	if !ok {
		return
	}

	method, err := h.methods.Deactivate(c.Request.Context(), methodID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPaymentMethodResponse(method))
}

package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/interfaces/http/dto"
)

// ContributionSubmitter records contribution claims
type ContributionSubmitter interface {
	Submit(ctx context.Context, cmd appcontribution.SubmitCommand) (*appcontribution.SubmitResult, error)
}

// ApprovalService resolves and lists approvals
type ApprovalService interface {
	Resolve(ctx context.Context, cmd appcontribution.ResolveCommand) (*appcontribution.ResolveResult, error)
	ListPendingApprovals(ctx context.Context, groupID, callerUserID uuid.UUID) ([]contribution.PendingApproval, error)
}

// ContributionReporter reads contribution summaries and reports
type ContributionReporter interface {
	SummaryFor(ctx context.Context, groupID uuid.UUID) (*appcontribution.GroupSummary, error)
	DetailFor(ctx context.Context, groupID uuid.UUID) (*appcontribution.GroupReport, error)
	ArchiveReport(ctx context.Context, groupID, callerUserID uuid.UUID) (*appcontribution.ArchiveResult, error)
}

// MembershipChecker gates group reads to active members
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error)
}

// ContributionHandler handles contribution, approval and report endpoints
type ContributionHandler struct {
	BaseHandler
	submitter  ContributionSubmitter
	approvals  ApprovalService
	reporter   ContributionReporter
	membership MembershipChecker
}

// NewContributionHandler creates a new ContributionHandler
func NewContributionHandler(submitter ContributionSubmitter, approvals ApprovalService, reporter ContributionReporter, membership MembershipChecker) *ContributionHandler {
	return &ContributionHandler{
		submitter:  submitter,
		approvals:  approvals,
		reporter:   reporter,
		membership: membership,
	}
}

// Submit godoc
// @Summary      Submit a contribution claim
// @Tags         contributions
// @Param        group_id path string true "Group ID"
// @Success      201 {object} dto.Response
// @Router       /groups/{group_id}/contributions [post]
func (h *ContributionHandler) Submit(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return
	}

	var req dto.SubmitContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	cmd := appcontribution.SubmitCommand{
		GroupID:      groupID,
		CallerUserID: callerID,
		Amount:       req.Amount.String(),
		Method:       contribution.DeclaredMethod(req.Method),
		Reference:    req.Reference,
		Note:         req.Note,
	}
	if req.PaymentMethodID != nil {
		pmID, err := uuid.Parse(*req.PaymentMethodID)
		if err != nil {
			h.BadRequest(c, "Invalid payment_method_id")
			return
		}
		cmd.PaymentMethodID = &pmID
	}

	result, err := h.submitter.Submit(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSubmitContributionResponse(result))
}

// ListPendingApprovals godoc
// @Summary      List pending approvals of a group, oldest first
// @Tags         approvals
// @Param        group_id path string true "Group ID"
// @Success      200 {object} dto.Response
// @Router       /groups/{group_id}/approvals [get]
func (h *ContributionHandler) ListPendingApprovals(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return
	}

	items, err := h.approvals.ListPendingApprovals(c.Request.Context(), groupID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, dto.NewPendingApprovalResponses(items), len(items))
}

// Resolve godoc
// @Summary      Approve or reject a pending contribution
// @Description  Resolving an approval that is no longer pending succeeds with already_processed set.
// @Tags         approvals
// @Param        approval_id path string true "Approval ID"
// @Success      200 {object} dto.Response
// @Router       /approvals/{approval_id}/resolve [post]
func (h *ContributionHandler) Resolve(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	approvalID, ok := h.parseUUIDParam(c, "approval_id")
	if !ok {
		return
	}

	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.approvals.Resolve(c.Request.Context(), appcontribution.ResolveCommand{
		ApprovalID:      approvalID,
		CallerUserID:    callerID,
		Decision:        contribution.Decision(req.Decision),
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewResolveApprovalResponse(result))
}

// Summary godoc
// @Summary      Per-member contribution summary of a group
// @Tags         reports
// @Param        group_id path string true "Group ID"
// @Success      200 {object} dto.Response
// @Router       /groups/{group_id}/contributions/summary [get]
func (h *ContributionHandler) Summary(c *gin.Context) {
	groupID, ok := h.memberGroup(c)
	if !ok {
		return
	}

	summary, err := h.reporter.SummaryFor(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewGroupSummaryResponse(summary))
}

// Report godoc
// @Summary      Detailed contribution report of a group
// @Tags         reports
// @Param        group_id path string true "Group ID"
// @Param        format query string false "json (default) or csv"
// @Success      200 {object} dto.Response
// @Router       /groups/{group_id}/contributions/report [get]
func (h *ContributionHandler) Report(c *gin.Context) {
	groupID, ok := h.memberGroup(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		h.BadRequest(c, "format must be json or csv")
		return
	}

	report, err := h.reporter.DetailFor(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if format == "csv" {
		var buf bytes.Buffer
		if err := appcontribution.WriteCSV(&buf, report); err != nil {
			h.HandleError(c, err)
			return
		}
		filename := fmt.Sprintf("contributions-%s-%s.csv", groupID, report.GeneratedAt.UTC().Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	h.Success(c, dto.NewGroupReportResponse(report))
}

// Archive godoc
// @Summary      Archive the CSV report to object storage
// @Tags         reports
// @Param        group_id path string true "Group ID"
// @Success      201 {object} dto.Response
// @Router       /groups/{group_id}/contributions/report/archive [post]
func (h *ContributionHandler) Archive(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return
	}

	result, err := h.reporter.ArchiveReport(c.Request.Context(), groupID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ArchiveReportResponse{
		Key:       result.Key,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
	})
}

// memberGroup resolves the group path parameter and requires the caller to be
// an active member of it
func (h *ContributionHandler) memberGroup(c *gin.Context) (uuid.UUID, bool) {
	callerID, ok := h.caller(c)
	if !ok {
		return uuid.Nil, false
	}
	groupID, ok := h.parseUUIDParam(c, "group_id")
	if !ok {
		return uuid.Nil, false
	}
	if _, err := h.membership.RequireMember(c.Request.Context(), groupID, callerID); err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return groupID, true
}

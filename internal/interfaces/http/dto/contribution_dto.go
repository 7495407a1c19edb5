package dto

import (
	"time"

	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/domain/contribution"
)

// SubmitContributionRequest is the body of a contribution claim
type SubmitContributionRequest struct {
	Amount          Amount  `json:"amount" binding:"required"`
	Method          string  `json:"method" binding:"omitempty,max=32"`
	PaymentMethodID *string `json:"payment_method_id" binding:"omitempty,uuid"`
	Reference       string  `json:"reference" binding:"max=64"`
	Note            string  `json:"note" binding:"max=500"`
}

// SubmitContributionResponse identifies the created claim
type SubmitContributionResponse struct {
	ClaimID     uuid.UUID `json:"claim_id"`
	ApprovalID  uuid.UUID `json:"approval_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmitContributionResponse converts a submission result
func NewSubmitContributionResponse(r *appcontribution.SubmitResult) SubmitContributionResponse {
	return SubmitContributionResponse{
		ClaimID:     r.ClaimID,
		ApprovalID:  r.ApprovalID,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
	}
}

// ResolveApprovalRequest is a manager's decision
type ResolveApprovalRequest struct {
	Decision        string `json:"decision" binding:"required"`
	RejectionReason string `json:"rejection_reason" binding:"max=500"`
}

// ResolveApprovalResponse reports the approval's state after the call
type ResolveApprovalResponse struct {
	ApprovalID       uuid.UUID  `json:"approval_id"`
	ClaimID          uuid.UUID  `json:"claim_id"`
	Status           string     `json:"status"`
	AlreadyProcessed bool       `json:"already_processed"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	LedgerEntryID    *uuid.UUID `json:"ledger_entry_id,omitempty"`
}

// NewResolveApprovalResponse converts a resolution result
func NewResolveApprovalResponse(r *appcontribution.ResolveResult) ResolveApprovalResponse {
	return ResolveApprovalResponse{
		ApprovalID:       r.ApprovalID,
		ClaimID:          r.ClaimID,
		Status:           string(r.Status),
		AlreadyProcessed: r.AlreadyProcessed(),
		ResolvedAt:       r.ResolvedAt,
		LedgerEntryID:    r.LedgerEntryID,
	}
}

// PendingApprovalResponse is one approval awaiting a decision
type PendingApprovalResponse struct {
	ApprovalID      uuid.UUID  `json:"approval_id"`
	ClaimID         uuid.UUID  `json:"claim_id"`
	MemberID        uuid.UUID  `json:"member_id"`
	Amount          string     `json:"amount"`
	Method          string     `json:"method"`
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
	Reference       string     `json:"reference,omitempty"`
	Note            string     `json:"note,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
}

// NewPendingApprovalResponses converts pending approvals
func NewPendingApprovalResponses(items []contribution.PendingApproval) []PendingApprovalResponse {
	out := make([]PendingApprovalResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PendingApprovalResponse{
			ApprovalID:      p.Approval.ID,
			ClaimID:         p.Claim.ID,
			MemberID:        p.Claim.MemberID,
			Amount:          p.Claim.Amount.StringFixed(2),
			Method:          string(p.Claim.Method),
			PaymentMethodID: p.Claim.PaymentMethodID,
			Reference:       p.Claim.Reference,
			Note:            p.Claim.Note,
			SubmittedAt:     p.Claim.SubmittedAt,
		})
	}
	return out
}

// MemberSummaryResponse is one member's line of a group summary
type MemberSummaryResponse struct {
	MemberID       uuid.UUID  `json:"member_id"`
	DisplayName    string     `json:"display_name"`
	Role           string     `json:"role"`
	Active         bool       `json:"active"`
	ApprovedTotal  string     `json:"approved_total"`
	ApprovedCount  int        `json:"approved_count"`
	LastApprovedAt *time.Time `json:"last_approved_at,omitempty"`
	PendingTotal   string     `json:"pending_total"`
	RejectedTotal  string     `json:"rejected_total"`
	PercentOfGroup string     `json:"percent_of_group"`
}

// GroupStatsResponse holds group-wide totals
type GroupStatsResponse struct {
	ApprovedTotal       string `json:"approved_total"`
	ApprovedCount       int    `json:"approved_count"`
	PendingTotal        string `json:"pending_total"`
	PendingCount        int    `json:"pending_count"`
	RejectedTotal       string `json:"rejected_total"`
	RejectedCount       int    `json:"rejected_count"`
	MemberCount         int    `json:"member_count"`
	ContributingMembers int    `json:"contributing_members"`
	AverageContribution string `json:"average_contribution"`
}

// GroupSummaryResponse is the contribution summary of a group
type GroupSummaryResponse struct {
	GroupID     uuid.UUID               `json:"group_id"`
	Currency    string                  `json:"currency"`
	Members     []MemberSummaryResponse `json:"members"`
	Stats       GroupStatsResponse      `json:"stats"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// NewGroupSummaryResponse converts a group summary
func NewGroupSummaryResponse(s *appcontribution.GroupSummary) GroupSummaryResponse {
	members := make([]MemberSummaryResponse, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, MemberSummaryResponse{
			MemberID:       m.MemberID,
			DisplayName:    m.DisplayName,
			Role:           string(m.Role),
			Active:         m.Active,
			ApprovedTotal:  m.ApprovedTotal.StringFixed(2),
			ApprovedCount:  m.ApprovedCount,
			LastApprovedAt: m.LastApprovedAt,
			PendingTotal:   m.PendingTotal.StringFixed(2),
			RejectedTotal:  m.RejectedTotal.StringFixed(2),
			PercentOfGroup: m.PercentOfGroup.StringFixed(2),
		})
	}
	return GroupSummaryResponse{
		GroupID:     s.GroupID,
		Currency:    s.Currency,
		Members:     members,
		Stats:       newGroupStatsResponse(s.Stats),
		GeneratedAt: s.GeneratedAt,
	}
}

// MemberReportRowResponse is one row of the detailed report
type MemberReportRowResponse struct {
	MemberID       uuid.UUID  `json:"member_id"`
	DisplayName    string     `json:"display_name"`
	Email          string     `json:"email,omitempty"`
	Role           string     `json:"role"`
	ApprovedTotal  string     `json:"approved_total"`
	ApprovedCount  int        `json:"approved_count"`
	PendingTotal   string     `json:"pending_total"`
	PendingCount   int        `json:"pending_count"`
	RejectedTotal  string     `json:"rejected_total"`
	RejectedCount  int        `json:"rejected_count"`
	LastApprovedAt *time.Time `json:"last_approved_at,omitempty"`
	PercentOfGroup string     `json:"percent_of_group"`
}

// GroupReportResponse is the detailed per-member report of a group
type GroupReportResponse struct {
	GroupID     uuid.UUID                 `json:"group_id"`
	Currency    string                    `json:"currency"`
	Rows        []MemberReportRowResponse `json:"rows"`
	Stats       GroupStatsResponse        `json:"stats"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// NewGroupReportResponse converts a group report
func NewGroupReportResponse(r *appcontribution.GroupReport) GroupReportResponse {
	rows := make([]MemberReportRowResponse, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, MemberReportRowResponse{
			MemberID:       row.MemberID,
			DisplayName:    row.DisplayName,
			Email:          row.Email,
			Role:           string(row.Role),
			ApprovedTotal:  row.ApprovedTotal.StringFixed(2),
			ApprovedCount:  row.ApprovedCount,
			PendingTotal:   row.PendingTotal.StringFixed(2),
			PendingCount:   row.PendingCount,
			RejectedTotal:  row.RejectedTotal.StringFixed(2),
			RejectedCount:  row.RejectedCount,
			LastApprovedAt: row.LastApprovedAt,
			PercentOfGroup: row.PercentOfGroup.StringFixed(2),
		})
	}
	return GroupReportResponse{
		GroupID:     r.GroupID,
		Currency:    r.Currency,
		Rows:        rows,
		Stats:       newGroupStatsResponse(r.Stats),
		GeneratedAt: r.GeneratedAt,
	}
}

func newGroupStatsResponse(s contribution.GroupStats) GroupStatsResponse {
	return GroupStatsResponse{
		ApprovedTotal:       s.ApprovedTotal.StringFixed(2),
		ApprovedCount:       s.ApprovedCount,
		PendingTotal:        s.PendingTotal.StringFixed(2),
		PendingCount:        s.PendingCount,
		RejectedTotal:       s.RejectedTotal.StringFixed(2),
		RejectedCount:       s.RejectedCount,
		MemberCount:         s.MemberCount,
		ContributingMembers: s.ContributingMembers,
		AverageContribution: s.AverageContribution.StringFixed(2),
	}
}

// ArchiveReportResponse locates an archived CSV report
type ArchiveReportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatePaymentMethodRequest registers a collection destination
type CreatePaymentMethodRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=phone till paybill"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
	Number      string `json:"number" binding:"required,max=32"`
}

// ListPaymentMethodsQuery filters the payment method list
type ListPaymentMethodsQuery struct {
	IncludeInactive bool `form:"include_inactive"`
}

// PaymentMethodResponse is a group's payment method
type PaymentMethodResponse struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"display_name"`
	Number      string    `json:"number"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPaymentMethodResponse converts a payment method
func NewPaymentMethodResponse(m *contribution.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		Kind:        string(m.Kind),
		DisplayName: m.DisplayName,
		Number:      m.Number,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// NewPaymentMethodResponses converts a list of payment methods
func NewPaymentMethodResponses(methods []contribution.PaymentMethod) []PaymentMethodResponse {
	out := make([]PaymentMethodResponse, 0, len(methods))
	for i := range methods {
		out = append(out, NewPaymentMethodResponse(&methods[i]))
	}
	return out
}

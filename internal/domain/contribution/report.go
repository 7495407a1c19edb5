package contribution

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ContributionSummary is the per-member view shown on the group dashboard
type ContributionSummary struct {
	MemberID       uuid.UUID
	DisplayName    string
	Role           Role
	Active         bool
	ApprovedTotal  decimal.Decimal
	ApprovedCount  int
	LastApprovedAt *time.Time
	PendingTotal   decimal.Decimal
	RejectedTotal  decimal.Decimal
	PercentOfGroup decimal.Decimal
}

// MemberReportRow is one row of the exportable contribution report
type MemberReportRow struct {
	MemberID       uuid.UUID
	DisplayName    string
	Email          string
	Role           Role
	ApprovedTotal  decimal.Decimal
	ApprovedCount  int
	PendingTotal   decimal.Decimal
	PendingCount   int
	RejectedTotal  decimal.Decimal
	RejectedCount  int
	LastApprovedAt *time.Time
	PercentOfGroup decimal.Decimal
}

// GroupStats are group-wide aggregates
type GroupStats struct {
	ApprovedTotal       decimal.Decimal
	ApprovedCount       int
	PendingTotal        decimal.Decimal
	PendingCount        int
	RejectedTotal       decimal.Decimal
	RejectedCount       int
	MemberCount         int
	ContributingMembers int
	AverageContribution decimal.Decimal
}

// IntegrityIssueKind classifies a broken claim/approval/ledger invariant
type IntegrityIssueKind string

const (
	IssueClaimWithoutApproval  IntegrityIssueKind = "claim_without_approval"
	IssueApprovedWithoutEntry  IntegrityIssueKind = "approved_without_ledger_entry"
	IssueEntryWithoutApproval  IntegrityIssueKind = "ledger_entry_without_approved_approval"
	IssueUnknownMember         IntegrityIssueKind = "claim_for_unknown_member"
	IssueRunningTotalMismatch  IntegrityIssueKind = "running_total_mismatch"
	IssueUnknownApprovalStatus IntegrityIssueKind = "unknown_approval_status"
)

// IntegrityIssue describes one violation found while projecting
type IntegrityIssue struct {
	Kind    IntegrityIssueKind
	ClaimID uuid.UUID
	Detail  string
}

// String implements fmt.Stringer
func (i IntegrityIssue) String() string {
	if i.ClaimID == uuid.Nil {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s (claim %s): %s", i.Kind, i.ClaimID, i.Detail)
}

// Projection is the read model computed from members and claim records
type Projection struct {
	Rows  []MemberReportRow
	Stats GroupStats
}

// Summaries returns the dashboard view of the projection, in row order
func (p *Projection) Summaries() []ContributionSummary {
	out := make([]ContributionSummary, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, ContributionSummary{
			MemberID:       r.MemberID,
			DisplayName:    r.DisplayName,
			Role:           r.Role,
			ApprovedTotal:  r.ApprovedTotal,
			ApprovedCount:  r.ApprovedCount,
			LastApprovedAt: r.LastApprovedAt,
			PendingTotal:   r.PendingTotal,
			RejectedTotal:  r.RejectedTotal,
			PercentOfGroup: r.PercentOfGroup,
		})
	}
	return out
}

// Project tallies claim records per member. Rows are ordered by approved
// total descending with ties broken by member id. Records that break the
// ledger invariants are reported as issues and left out of the totals.
func Project(members []Member, records []ClaimRecord) (*Projection, []IntegrityIssue) {
	rows := make(map[uuid.UUID]*MemberReportRow, len(members))
	for _, m := range members {
		rows[m.ID] = &MemberReportRow{
			MemberID:       m.ID,
			DisplayName:    m.Label(),
			Email:          m.Email,
			Role:           m.Role,
			ApprovedTotal:  decimal.Zero,
			PendingTotal:   decimal.Zero,
			RejectedTotal:  decimal.Zero,
			PercentOfGroup: decimal.Zero,
		}
	}

	var issues []IntegrityIssue
	for _, rec := range records {
		row, ok := rows[rec.Claim.MemberID]
		if !ok {
			issues = append(issues, IntegrityIssue{
				Kind:    IssueUnknownMember,
				ClaimID: rec.Claim.ID,
				Detail:  "member " + rec.Claim.MemberID.String() + " is not part of the group",
			})
			continue
		}
		if rec.ApprovalID == nil {
			issues = append(issues, IntegrityIssue{Kind: IssueClaimWithoutApproval, ClaimID: rec.Claim.ID, Detail: "no approval row"})
			continue
		}
		hasEntry := rec.LedgerEntryID != nil

		switch rec.Status {
		case ApprovalStatusApproved:
			if !hasEntry {
				issues = append(issues, IntegrityIssue{Kind: IssueApprovedWithoutEntry, ClaimID: rec.Claim.ID, Detail: "approved claim was never posted"})
				continue
			}
			row.ApprovedTotal = row.ApprovedTotal.Add(rec.Claim.Amount)
			row.ApprovedCount++
			approvedAt := rec.ResolvedAt
			if approvedAt == nil {
				approvedAt = rec.PostedAt
			}
			if approvedAt != nil && (row.LastApprovedAt == nil || approvedAt.After(*row.LastApprovedAt)) {
				t := *approvedAt
				row.LastApprovedAt = &t
			}
		case ApprovalStatusPending, ApprovalStatusRejected:
			if hasEntry {
				issues = append(issues, IntegrityIssue{Kind: IssueEntryWithoutApproval, ClaimID: rec.Claim.ID, Detail: "ledger entry exists for a " + rec.Status.String() + " claim"})
				continue
			}
			if rec.Status == ApprovalStatusPending {
				row.PendingTotal = row.PendingTotal.Add(rec.Claim.Amount)
				row.PendingCount++
			} else {
				row.RejectedTotal = row.RejectedTotal.Add(rec.Claim.Amount)
				row.RejectedCount++
			}
		default:
			issues = append(issues, IntegrityIssue{Kind: IssueUnknownApprovalStatus, ClaimID: rec.Claim.ID, Detail: "status " + rec.Status.String()})
		}
	}

	p := &Projection{Rows: make([]MemberReportRow, 0, len(rows))}
	p.Stats = GroupStats{
		ApprovedTotal:       decimal.Zero,
		PendingTotal:        decimal.Zero,
		RejectedTotal:       decimal.Zero,
		AverageContribution: decimal.Zero,
		MemberCount:         len(rows),
	}
	for _, row := range rows {
		p.Stats.ApprovedTotal = p.Stats.ApprovedTotal.Add(row.ApprovedTotal)
		p.Stats.ApprovedCount += row.ApprovedCount
		p.Stats.PendingTotal = p.Stats.PendingTotal.Add(row.PendingTotal)
		p.Stats.PendingCount += row.PendingCount
		p.Stats.RejectedTotal = p.Stats.RejectedTotal.Add(row.RejectedTotal)
		p.Stats.RejectedCount += row.RejectedCount
		if row.ApprovedCount > 0 {
			p.Stats.ContributingMembers++
		}
		p.Rows = append(p.Rows, *row)
	}
	if p.Stats.ContributingMembers > 0 {
		p.Stats.AverageContribution = p.Stats.ApprovedTotal.
			Div(decimal.NewFromInt(int64(p.Stats.ContributingMembers))).Round(2)
	}

	for i := range p.Rows {
		p.Rows[i].PercentOfGroup = Percentage(p.Rows[i].ApprovedTotal, p.Stats.ApprovedTotal)
	}

	slices.SortFunc(p.Rows, func(a, b MemberReportRow) int {
		if c := b.ApprovedTotal.Cmp(a.ApprovedTotal); c != 0 {
			return c
		}
		return strings.Compare(a.MemberID.String(), b.MemberID.String())
	})

	return p, issues
}

// Percentage returns part / total * 100 rounded to two places, or zero when
// total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

// CheckRunningTotal compares the store's running total with the sum of posted
// entries and reports drift.
func CheckRunningTotal(balance *Balance, stats GroupStats) *IntegrityIssue {
	total := decimal.Zero
	count := int64(0)
	if balance != nil {
		total = balance.Total
		count = balance.EntryCount
	}
	if total.Equal(stats.ApprovedTotal) && count == int64(stats.ApprovedCount) {
		return nil
	}
	return &IntegrityIssue{
		Kind: IssueRunningTotalMismatch,
		Detail: fmt.Sprintf("running total %s over %d entries, posted entries sum to %s over %d",
			total.String(), count, stats.ApprovedTotal.String(), stats.ApprovedCount),
	}
}

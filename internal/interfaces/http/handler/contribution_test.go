package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type contributionFixture struct {
	submitter  *MockSubmitter
	approvals  *MockApprovalService
	reporter   *MockReporter
	membership *MockMembership
	router     *gin.Engine
	caller     uuid.UUID
	groupID    uuid.UUID
}

func newContributionFixture(t *testing.T) *contributionFixture {
	t.Helper()
	f := &contributionFixture{
		submitter:  new(MockSubmitter),
		approvals:  new(MockApprovalService),
		reporter:   new(MockReporter),
		membership: new(MockMembership),
		caller:     uuid.New(),
		groupID:    uuid.New(),
	}
	h := NewContributionHandler(f.submitter, f.approvals, f.reporter, f.membership)

	f.router = gin.New()
	api := f.router.Group("/api/v1", asUser(f.caller))
	api.POST("/groups/:group_id/contributions", h.Submit)
	api.GET("/groups/:group_id/approvals", h.ListPendingApprovals)
	api.POST("/approvals/:approval_id/resolve", h.Resolve)
	api.GET("/groups/:group_id/contributions/summary", h.Summary)
	api.GET("/groups/:group_id/contributions/report", h.Report)
	api.POST("/groups/:group_id/contributions/report/archive", h.Archive)

	anon := f.router.Group("/anon", asUser(uuid.Nil))
	anon.POST("/groups/:group_id/contributions", h.Submit)
	return f
}

func (f *contributionFixture) groupPath(suffix string) string {
	return "/api/v1/groups/" + f.groupID.String() + suffix
}

func TestContributionHandler_Submit(t *testing.T) {
	t.Run("creates a pending claim from a numeric amount", func(t *testing.T) {
		f := newContributionFixture(t)
		result := &appcontribution.SubmitResult{
			ClaimID:     uuid.New(),
			ApprovalID:  uuid.New(),
			Status:      contribution.ApprovalStatusPending,
			SubmittedAt: testNow,
		}
		f.submitter.On("Submit", mock.Anything, appcontribution.SubmitCommand{
			GroupID:      f.groupID,
			CallerUserID: f.caller,
			Amount:       "1500",
			Method:       contribution.MethodMobileMoney,
			Reference:    "QK12ABC",
		}).Return(result, nil)

		w := doRequest(f.router, http.MethodPost, f.groupPath("/contributions"),
			`{"amount":1500,"method":"mobile_money","reference":"QK12ABC"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var body struct {
			Data dto.SubmitContributionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, result.ClaimID, body.Data.ClaimID)
		assert.Equal(t, "pending", body.Data.Status)
		f.submitter.AssertExpectations(t)
	})

	t.Run("passes the payment method id", func(t *testing.T) {
		f := newContributionFixture(t)
		pmID := uuid.New()
		f.submitter.On("Submit", mock.Anything, mock.MatchedBy(func(cmd appcontribution.SubmitCommand) bool {
			return cmd.PaymentMethodID != nil && *cmd.PaymentMethodID == pmID && cmd.Amount == "250.50"
		})).Return(&appcontribution.SubmitResult{Status: contribution.ApprovalStatusPending}, nil)

		w := doRequest(f.router, http.MethodPost, f.groupPath("/contributions"),
			`{"amount":"250.50","payment_method_id":"`+pmID.String()+`"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		f.submitter.AssertExpectations(t)
	})

	t.Run("maps service errors", func(t *testing.T) {
		f := newContributionFixture(t)
		f.submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, contribution.ErrNotAMember)

		w := doRequest(f.router, http.MethodPost, f.groupPath("/contributions"), `{"amount":100,"method":"cash"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rejects bad input before calling the service", func(t *testing.T) {
		f := newContributionFixture(t)
		cases := []struct {
			path string
			body string
			want int
		}{
			{f.groupPath("/contributions"), `{"method":"cash"}`, http.StatusBadRequest},
			{f.groupPath("/contributions"), `{"amount":true}`, http.StatusBadRequest},
			{f.groupPath("/contributions"), `{"amount":10,"payment_method_id":"nope"}`, http.StatusBadRequest},
			{"/api/v1/groups/not-a-uuid/contributions", `{"amount":10}`, http.StatusBadRequest},
			{"/anon/groups/" + f.groupID.String() + "/contributions", `{"amount":10}`, http.StatusUnauthorized},
		}
		for _, tc := range cases {
			w := doRequest(f.router, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, tc.body)
		}
		f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestContributionHandler_Resolve(t *testing.T) {
	t.Run("approve posts a ledger entry", func(t *testing.T) {
		f := newContributionFixture(t)
		approvalID := uuid.New()
		entryID := uuid.New()
		f.approvals.On("Resolve", mock.Anything, appcontribution.ResolveCommand{
			ApprovalID:   approvalID,
			CallerUserID: f.caller,
			Decision:     contribution.DecisionApprove,
		}).Return(&appcontribution.ResolveResult{
			ApprovalID:    approvalID,
			Outcome:       appcontribution.OutcomeResolved,
			Status:        contribution.ApprovalStatusApproved,
			ResolvedAt:    &testNow,
			LedgerEntryID: &entryID,
		}, nil)

		w := doRequest(f.router, http.MethodPost, "/api/v1/approvals/"+approvalID.String()+"/resolve", `{"decision":"approve"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data dto.ResolveApprovalResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "approved", body.Data.Status)
		assert.False(t, body.Data.AlreadyProcessed)
		assert.Equal(t, &entryID, body.Data.LedgerEntryID)
	})

	t.Run("repeated resolution succeeds with already_processed", func(t *testing.T) {
		f := newContributionFixture(t)
		approvalID := uuid.New()
		f.approvals.On("Resolve", mock.Anything, mock.Anything).Return(&appcontribution.ResolveResult{
			ApprovalID: approvalID,
			Outcome:    appcontribution.OutcomeAlreadyResolved,
			Status:     contribution.ApprovalStatusApproved,
		}, nil)

		w := doRequest(f.router, http.MethodPost, "/api/v1/approvals/"+approvalID.String()+"/resolve", `{"decision":"reject","rejection_reason":"duplicate"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"already_processed":true`)
	})

	t.Run("missing reason is a bad request", func(t *testing.T) {
		f := newContributionFixture(t)
		f.approvals.On("Resolve", mock.Anything, mock.Anything).Return(nil, contribution.ErrMissingRejectionReason)

		w := doRequest(f.router, http.MethodPost, "/api/v1/approvals/"+uuid.NewString()+"/resolve", `{"decision":"reject"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeMissingReason)
	})

	t.Run("non-manager is forbidden", func(t *testing.T) {
		f := newContributionFixture(t)
		f.approvals.On("Resolve", mock.Anything, mock.Anything).Return(nil, contribution.ErrNotAuthorized)

		w := doRequest(f.router, http.MethodPost, "/api/v1/approvals/"+uuid.NewString()+"/resolve", `{"decision":"approve"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestContributionHandler_ListPendingApprovals(t *testing.T) {
	f := newContributionFixture(t)
	claim := contribution.Claim{
		ID:          uuid.New(),
		GroupID:     f.groupID,
		MemberID:    uuid.New(),
		Amount:      decimal.RequireFromString("1500"),
		Method:      contribution.MethodCash,
		SubmittedAt: testNow,
	}
	approval := contribution.Approval{ClaimID: claim.ID, Status: contribution.ApprovalStatusPending}
	approval.ID = uuid.New()
	f.approvals.On("ListPendingApprovals", mock.Anything, f.groupID, f.caller).
		Return([]contribution.PendingApproval{{Approval: approval, Claim: claim}}, nil)

	w := doRequest(f.router, http.MethodGet, f.groupPath("/approvals"), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []dto.PendingApprovalResponse `json:"data"`
		Meta dto.Meta                      `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "1500.00", body.Data[0].Amount)
	assert.Equal(t, approval.ID, body.Data[0].ApprovalID)
	assert.Equal(t, int64(1), body.Meta.Total)
}

func sampleReport(groupID uuid.UUID) *appcontribution.GroupReport {
	return &appcontribution.GroupReport{
		GroupID:  groupID,
		Currency: "KES",
		Rows: []contribution.MemberReportRow{{
			MemberID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			DisplayName:    "Wanjiku",
			Role:           contribution.RoleTreasurer,
			ApprovedTotal:  decimal.RequireFromString("1500"),
			ApprovedCount:  1,
			PercentOfGroup: decimal.RequireFromString("100"),
		}},
		Stats:       contribution.GroupStats{ApprovedTotal: decimal.RequireFromString("1500"), ApprovedCount: 1, MemberCount: 1},
		GeneratedAt: testNow,
	}
}

func TestContributionHandler_SummaryAndReport(t *testing.T) {
	t.Run("summary is member gated", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(nil, contribution.ErrNotAMember)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/summary"), "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		f.reporter.AssertNotCalled(t, "SummaryFor", mock.Anything, mock.Anything)
	})

	t.Run("summary renders amounts with two decimals", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(&contribution.Member{}, nil)
		f.reporter.On("SummaryFor", mock.Anything, f.groupID).Return(&appcontribution.GroupSummary{
			GroupID:  f.groupID,
			Currency: "KES",
			Members: []contribution.ContributionSummary{{
				MemberID:       uuid.New(),
				DisplayName:    "Wanjiku",
				ApprovedTotal:  decimal.RequireFromString("1500"),
				ApprovedCount:  1,
				PercentOfGroup: decimal.RequireFromString("100"),
			}},
			GeneratedAt: testNow,
		}, nil)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/summary"), "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data dto.GroupSummaryResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data.Members, 1)
		assert.Equal(t, "1500.00", body.Data.Members[0].ApprovedTotal)
		assert.Equal(t, "100.00", body.Data.Members[0].PercentOfGroup)
	})

	t.Run("integrity violation is a 500", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(&contribution.Member{}, nil)
		f.reporter.On("SummaryFor", mock.Anything, f.groupID).Return(nil, contribution.ErrIntegrityViolation)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/summary"), "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeIntegrity)
	})

	t.Run("report as csv", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(&contribution.Member{}, nil)
		f.reporter.On("DetailFor", mock.Anything, f.groupID).Return(sampleReport(f.groupID), nil)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/report?format=csv"), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "contributions-"+f.groupID.String()+"-20260314.csv")
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "member_id,display_name"))
		assert.Contains(t, lines[1], "Wanjiku")
	})

	t.Run("report as json", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(&contribution.Member{}, nil)
		f.reporter.On("DetailFor", mock.Anything, f.groupID).Return(sampleReport(f.groupID), nil)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/report"), "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data dto.GroupReportResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data.Rows, 1)
		assert.Equal(t, "treasurer", body.Data.Rows[0].Role)
		assert.Equal(t, "1500.00", body.Data.Stats.ApprovedTotal)
	})

	t.Run("unknown format", func(t *testing.T) {
		f := newContributionFixture(t)
		f.membership.On("RequireMember", mock.Anything, f.groupID, f.caller).Return(&contribution.Member{}, nil)

		w := doRequest(f.router, http.MethodGet, f.groupPath("/contributions/report?format=pdf"), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContributionHandler_Archive(t *testing.T) {
	t.Run("returns the download location", func(t *testing.T) {
		f := newContributionFixture(t)
		f.reporter.On("ArchiveReport", mock.Anything, f.groupID, f.caller).Return(&appcontribution.ArchiveResult{
			Key:       "reports/" + f.groupID.String() + "/20260314T093000Z.csv",
			URL:       "https://s3.example/reports/x.csv?X-Amz-Expires=900",
			ExpiresAt: testNow.Add(15 * time.Minute),
		}, nil)

		w := doRequest(f.router, http.MethodPost, f.groupPath("/contributions/report/archive"), "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "20260314T093000Z.csv")
	})

	t.Run("storage down is retryable", func(t *testing.T) {
		f := newContributionFixture(t)
		f.reporter.On("ArchiveReport", mock.Anything, f.groupID, f.caller).Return(nil, appcontribution.ErrArchiveUnavailable)

		w := doRequest(f.router, http.MethodPost, f.groupPath("/contributions/report/archive"), "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"retryable":true`)
	})
}

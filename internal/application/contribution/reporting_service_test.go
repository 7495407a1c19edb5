package contribution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reportingFixture struct {
	members *MockMemberRepository
	store   *MockLedgerStore
	cache   *MockSummaryCache
	metrics *recordingMetrics
	archive *memoryArchive
	group   *contribution.Group
}

func newReportingFixture() *reportingFixture {
	return &reportingFixture{
		members: new(MockMemberRepository),
		store:   new(MockLedgerStore),
		cache:   new(MockSummaryCache),
		metrics: newRecordingMetrics(),
		archive: &memoryArchive{},
		group:   &contribution.Group{ID: uuid.New(), Name: "Umoja Chama", Currency: "KES", CreatedAt: fixedNow},
	}
}

func (f *reportingFixture) aggregator(withArchive bool) *ReportingAggregator {
	cfg := ReportingAggregatorConfig{
		Members: f.members,
		Store:   f.store,
		Cache:   f.cache,
		Metrics: f.metrics,
		Clock:   fixedClock,
	}
	if withArchive {
		cfg.Archive = f.archive
	}
	return NewReportingAggregator(cfg)
}

// expectProjection wires the store reads behind one projection
func (f *reportingFixture) expectProjection(members []contribution.Member, records []contribution.ClaimRecord, balance *contribution.Balance) {
	ctx := context.Background()
	f.members.On("FindGroup", ctx, f.group.ID).Return(f.group, nil)
	f.members.On("ListMembers", ctx, f.group.ID).Return(members, nil)
	if balance == nil {
		f.store.On("LoadProjectionInputs", ctx, f.group.ID).Return(records, nil, nil)
	} else {
		f.store.On("LoadProjectionInputs", ctx, f.group.ID).Return(records, balance, nil)
	}
}

func approvedRecord(memberID uuid.UUID, amount int64, at time.Time) contribution.ClaimRecord {
	approvalID, entryID := uuid.New(), uuid.New()
	return contribution.ClaimRecord{
		Claim:         contribution.Claim{ID: uuid.New(), MemberID: memberID, Amount: decimal.NewFromInt(amount)},
		ApprovalID:    &approvalID,
		Status:        contribution.ApprovalStatusApproved,
		ResolvedAt:    &at,
		LedgerEntryID: &entryID,
		PostedAt:      &at,
	}
}

func TestReportingAggregator_SummaryFor_EmptyGroup(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()
	m := newMember(f.group.ID, contribution.RoleMember)

	f.expectProjection([]contribution.Member{*m}, nil, nil)
	f.cache.On("Generation", ctx, f.group.ID).Return(int64(3), nil)
	f.cache.On("Get", ctx, f.group.ID, int64(3)).Return(nil, false, nil)
	f.cache.On("Set", ctx, f.group.ID, int64(3), mock.Anything).Return(nil)

	summary, err := f.aggregator(false).SummaryFor(ctx, f.group.ID)
	require.NoError(t, err)

	require.Len(t, summary.Members, 1)
	assert.True(t, summary.Members[0].PercentOfGroup.IsZero())
	assert.True(t, summary.Members[0].ApprovedTotal.IsZero())
	assert.True(t, summary.Stats.ApprovedTotal.IsZero())
	assert.Equal(t, 1, summary.Stats.MemberCount)
	assert.Equal(t, "KES", summary.Currency)
	f.cache.AssertExpectations(t)
}

func TestReportingAggregator_SummaryFor_OrderAndPercentages(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()
	a := newMember(f.group.ID, contribution.RoleMember)
	b := newMember(f.group.ID, contribution.RoleTreasurer)

	records := []contribution.ClaimRecord{
		approvedRecord(a.ID, 500, fixedNow.Add(-time.Hour)),
		approvedRecord(b.ID, 1000, fixedNow.Add(-2*time.Hour)),
		approvedRecord(b.ID, 500, fixedNow),
	}
	balance := &contribution.Balance{GroupID: f.group.ID, Total: decimal.NewFromInt(2000), EntryCount: 3}
	f.expectProjection([]contribution.Member{*a, *b}, records, balance)
	f.cache.On("Generation", ctx, f.group.ID).Return(int64(0), errors.New("redis down"))

	summary, err := f.aggregator(false).SummaryFor(ctx, f.group.ID)
	require.NoError(t, err)

	require.Len(t, summary.Members, 2)
	assert.Equal(t, b.ID, summary.Members[0].MemberID)
	assert.Equal(t, "75", summary.Members[0].PercentOfGroup.String())
	assert.Equal(t, 2, summary.Members[0].ApprovedCount)
	assert.True(t, summary.Members[0].LastApprovedAt.Equal(fixedNow))
	assert.Equal(t, "25", summary.Members[1].PercentOfGroup.String())
	assert.Equal(t, 2, summary.Stats.ContributingMembers)
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportingAggregator_SummaryFor_CacheHit(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()

	cached := GroupSummary{
		GroupID:  f.group.ID,
		Currency: "KES",
		Stats:    contribution.GroupStats{ApprovedTotal: decimal.NewFromInt(42), MemberCount: 1},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	f.cache.On("Generation", ctx, f.group.ID).Return(int64(7), nil)
	f.cache.On("Get", ctx, f.group.ID, int64(7)).Return(payload, true, nil)

	summary, err := f.aggregator(false).SummaryFor(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, summary.Stats.ApprovedTotal.Equal(decimal.NewFromInt(42)))
	f.members.AssertNotCalled(t, "FindGroup", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "LoadProjectionInputs", mock.Anything, mock.Anything)
}

func TestReportingAggregator_IntegrityViolations(t *testing.T) {
	t.Run("approved claim without ledger entry", func(t *testing.T) {
		f := newReportingFixture()
		ctx := context.Background()
		m := newMember(f.group.ID, contribution.RoleMember)
		broken := approvedRecord(m.ID, 100, fixedNow)
		broken.LedgerEntryID = nil

		f.expectProjection([]contribution.Member{*m}, []contribution.ClaimRecord{broken}, nil)
		f.cache.On("Generation", ctx, f.group.ID).Return(int64(1), nil)
		f.cache.On("Get", ctx, f.group.ID, int64(1)).Return(nil, false, nil)

		_, err := f.aggregator(false).SummaryFor(ctx, f.group.ID)
		assert.ErrorIs(t, err, contribution.ErrIntegrityViolation)
		assert.Equal(t, 1, f.metrics.violations[string(contribution.IssueApprovedWithoutEntry)])
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("running total drift", func(t *testing.T) {
		f := newReportingFixture()
		m := newMember(f.group.ID, contribution.RoleMember)
		balance := &contribution.Balance{GroupID: f.group.ID, Total: decimal.NewFromInt(50), EntryCount: 1}
		f.expectProjection([]contribution.Member{*m}, []contribution.ClaimRecord{approvedRecord(m.ID, 100, fixedNow)}, balance)

		_, err := f.aggregator(false).DetailFor(context.Background(), f.group.ID)
		assert.ErrorIs(t, err, contribution.ErrIntegrityViolation)
		assert.Equal(t, 1, f.metrics.violations[string(contribution.IssueRunningTotalMismatch)])
	})

	t.Run("unknown group", func(t *testing.T) {
		f := newReportingFixture()
		f.members.On("FindGroup", mock.Anything, f.group.ID).Return(nil, nil)

		_, err := f.aggregator(false).DetailFor(context.Background(), f.group.ID)
		assert.ErrorIs(t, err, contribution.ErrGroupNotFound)
	})
}

func TestWriteCSV(t *testing.T) {
	lastA := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	lastB := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	report := &GroupReport{
		Rows: []contribution.MemberReportRow{
			{
				MemberID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				DisplayName:    "Wanjiru Kamau",
				Email:          "wanjiru@example.com",
				Role:           contribution.RoleTreasurer,
				ApprovedTotal:  decimal.NewFromInt(1500),
				ApprovedCount:  1,
				PendingTotal:   decimal.RequireFromString("250.5"),
				PendingCount:   1,
				RejectedTotal:  decimal.Zero,
				LastApprovedAt: &lastA,
				PercentOfGroup: decimal.NewFromInt(60),
			},
			{
				MemberID:       uuid.MustParse("22222222-2222-2222-2222-222222222222"),
				DisplayName:    "Otieno, Brian",
				Email:          "brian@example.com",
				Role:           contribution.RoleMember,
				ApprovedTotal:  decimal.NewFromInt(1000),
				ApprovedCount:  2,
				PendingTotal:   decimal.Zero,
				RejectedTotal:  decimal.NewFromInt(300),
				RejectedCount:  1,
				LastApprovedAt: &lastB,
				PercentOfGroup: decimal.NewFromInt(40),
			},
			{
				MemberID:       uuid.MustParse("33333333-3333-3333-3333-333333333333"),
				DisplayName:    "Achieng",
				Role:           contribution.RoleMember,
				ApprovedTotal:  decimal.Zero,
				PendingTotal:   decimal.Zero,
				RejectedTotal:  decimal.Zero,
				PercentOfGroup: decimal.Zero,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	g := goldie.New(t)
	g.Assert(t, "report_csv", buf.Bytes())
}

func TestReportingAggregator_ArchiveReport(t *testing.T) {
	t.Run("disabled without storage", func(t *testing.T) {
		f := newReportingFixture()
		_, err := f.aggregator(false).ArchiveReport(context.Background(), f.group.ID, uuid.New())
		assert.ErrorIs(t, err, ErrArchiveDisabled)
	})

	t.Run("manager only", func(t *testing.T) {
		f := newReportingFixture()
		plain := newMember(f.group.ID, contribution.RoleMember)
		f.members.On("FindMemberByUser", mock.Anything, f.group.ID, plain.UserID).Return(plain, nil)

		_, err := f.aggregator(true).ArchiveReport(context.Background(), f.group.ID, plain.UserID)
		assert.ErrorIs(t, err, contribution.ErrNotAuthorized)
		assert.Empty(t, f.archive.objects)
	})

	t.Run("uploads csv and returns link", func(t *testing.T) {
		f := newReportingFixture()
		treasurer := newMember(f.group.ID, contribution.RoleTreasurer)
		f.members.On("FindMemberByUser", mock.Anything, f.group.ID, treasurer.UserID).Return(treasurer, nil)
		f.expectProjection([]contribution.Member{*treasurer}, nil, nil)

		result, err := f.aggregator(true).ArchiveReport(context.Background(), f.group.ID, treasurer.UserID)
		require.NoError(t, err)

		wantKey := "reports/" + f.group.ID.String() + "/20260314T093000Z.csv"
		assert.Equal(t, wantKey, result.Key)
		assert.Contains(t, result.URL, wantKey)
		require.Contains(t, f.archive.objects, wantKey)
		assert.True(t, strings.HasPrefix(string(f.archive.objects[wantKey]), "member_id,display_name"))
	})

	t.Run("storage failure is retryable", func(t *testing.T) {
		f := newReportingFixture()
		f.archive.err = errors.New("connection refused")
		treasurer := newMember(f.group.ID, contribution.RoleAdmin)
		f.members.On("FindMemberByUser", mock.Anything, f.group.ID, treasurer.UserID).Return(treasurer, nil)
		f.expectProjection([]contribution.Member{*treasurer}, nil, nil)

		_, err := f.aggregator(true).ArchiveReport(context.Background(), f.group.ID, treasurer.UserID)
		assert.ErrorIs(t, err, ErrArchiveUnavailable)
	})
}

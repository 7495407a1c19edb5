package contribution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/stretchr/testify/mock"
)

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FindGroup(ctx context.Context, groupID uuid.UUID) (*contribution.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.Group), args.Error(1)
}

func (m *MockMemberRepository) FindMemberByUser(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.Member), args.Error(1)
}

func (m *MockMemberRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]contribution.Member, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contribution.Member), args.Error(1)
}

type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*contribution.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, includeInactive bool) ([]contribution.PaymentMethod, error) {
	args := m.Called(ctx, groupID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contribution.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) Save(ctx context.Context, method *contribution.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) CreateClaim(ctx context.Context, claim *contribution.Claim, approval *contribution.Approval) error {
	args := m.Called(ctx, claim, approval)
	return args.Error(0)
}

func (m *MockLedgerStore) FindApproval(ctx context.Context, approvalID uuid.UUID) (*contribution.Approval, *contribution.Claim, error) {
	args := m.Called(ctx, approvalID)
	var a *contribution.Approval
	var c *contribution.Claim
	if v := args.Get(0); v != nil {
		a = v.(*contribution.Approval)
	}
	if v := args.Get(1); v != nil {
		c = v.(*contribution.Claim)
	}
	return a, c, args.Error(2)
}

func (m *MockLedgerStore) ListPendingApprovals(ctx context.Context, groupID uuid.UUID) ([]contribution.PendingApproval, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contribution.PendingApproval), args.Error(1)
}

func (m *MockLedgerStore) ResolveApproval(ctx context.Context, approval *contribution.Approval, entry *contribution.LedgerEntry) error {
	args := m.Called(ctx, approval, entry)
	return args.Error(0)
}

func (m *MockLedgerStore) LoadProjectionInputs(ctx context.Context, groupID uuid.UUID) ([]contribution.ClaimRecord, *contribution.Balance, error) {
	args := m.Called(ctx, groupID)
	var records []contribution.ClaimRecord
	if args.Get(0) != nil {
		records = args.Get(0).([]contribution.ClaimRecord)
	}
	var balance *contribution.Balance
	if args.Get(1) != nil {
		balance = args.Get(1).(*contribution.Balance)
	}
	return records, balance, args.Error(2)
}

type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Generation(ctx context.Context, groupID uuid.UUID) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSummaryCache) Get(ctx context.Context, groupID uuid.UUID, generation int64) ([]byte, bool, error) {
	args := m.Called(ctx, groupID, generation)
	var payload []byte
	if v := args.Get(0); v != nil {
		payload = v.([]byte)
	}
	return payload, args.Bool(1), args.Error(2)
}

func (m *MockSummaryCache) Set(ctx context.Context, groupID uuid.UUID, generation int64, payload []byte) error {
	args := m.Called(ctx, groupID, generation, payload)
	return args.Error(0)
}

func (m *MockSummaryCache) Bump(ctx context.Context, groupID uuid.UUID) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

// recordingMetrics counts calls by label
type recordingMetrics struct {
	mu         sync.Mutex
	submitted  map[string]int
	resolved   map[string]int
	violations map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		submitted:  map[string]int{},
		resolved:   map[string]int{},
		violations: map[string]int{},
	}
}

func (r *recordingMetrics) ContributionSubmitted(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted[method]++
}

func (r *recordingMetrics) ApprovalResolved(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved[outcome]++
}

func (r *recordingMetrics) IntegrityViolation(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations[kind]++
}

type memoryArchive struct {
	objects map[string][]byte
	err     error
}

func (a *memoryArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *memoryArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	return "https://storage.test/" + key + "?sig=x", fixedNow.Add(15 * time.Minute), nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newMember(groupID uuid.UUID, role contribution.Role) *contribution.Member {
	return &contribution.Member{
		ID:          uuid.New(),
		GroupID:     groupID,
		UserID:      uuid.New(),
		DisplayName: "Member " + string(role),
		Role:        role,
		Active:      true,
		JoinedAt:    fixedNow.Add(-24 * time.Hour),
	}
}

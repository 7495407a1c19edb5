package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcontribution "github.com/hazina/backend/internal/application/contribution"
	"github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/hazina/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSubmitter struct{ mock.Mock }

func (m *MockSubmitter) Submit(ctx context.Context, cmd appcontribution.SubmitCommand) (*appcontribution.SubmitResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontribution.SubmitResult), args.Error(1)
}

type MockApprovalService struct{ mock.Mock }

func (m *MockApprovalService) Resolve(ctx context.Context, cmd appcontribution.ResolveCommand) (*appcontribution.ResolveResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontribution.ResolveResult), args.Error(1)
}

func (m *MockApprovalService) ListPendingApprovals(ctx context.Context, groupID, callerUserID uuid.UUID) ([]contribution.PendingApproval, error) {
	args := m.Called(ctx, groupID, callerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contribution.PendingApproval), args.Error(1)
}

type MockReporter struct{ mock.Mock }

func (m *MockReporter) SummaryFor(ctx context.Context, groupID uuid.UUID) (*appcontribution.GroupSummary, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontribution.GroupSummary), args.Error(1)
}

func (m *MockReporter) DetailFor(ctx context.Context, groupID uuid.UUID) (*appcontribution.GroupReport, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontribution.GroupReport), args.Error(1)
}

func (m *MockReporter) ArchiveReport(ctx context.Context, groupID, callerUserID uuid.UUID) (*appcontribution.ArchiveResult, error) {
	args := m.Called(ctx, groupID, callerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontribution.ArchiveResult), args.Error(1)
}

type MockMembership struct{ mock.Mock }

func (m *MockMembership) RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*contribution.Member, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.Member), args.Error(1)
}

type MockPaymentMethods struct{ mock.Mock }

func (m *MockPaymentMethods) List(ctx context.Context, groupID, callerUserID uuid.UUID, includeInactive bool) ([]contribution.PaymentMethod, error) {
	args := m.Called(ctx, groupID, callerUserID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contribution.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethods) Create(ctx context.Context, cmd appcontribution.CreatePaymentMethodCommand) (*contribution.PaymentMethod, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethods) Deactivate(ctx context.Context, methodID, callerUserID uuid.UUID) (*contribution.PaymentMethod, error) {
	args := m.Called(ctx, methodID, callerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contribution.PaymentMethod), args.Error(1)
}

type MockBridge struct{ mock.Mock }

func (m *MockBridge) Initiate(ctx context.Context, cmd payment.InitiateCommand) (*payment.InitiateResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockBridge) HandleCallback(ctx context.Context, raw []byte) payment.Ack {
	args := m.Called(ctx, raw)
	return args.Get(0).(payment.Ack)
}

func (m *MockBridge) GetTransactionStatus(ctx context.Context, transactionID, callerUserID uuid.UUID) (*mobilemoney.Transaction, error) {
	args := m.Called(ctx, transactionID, callerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mobilemoney.Transaction), args.Error(1)
}

// asUser stands in for the JWT middleware
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID.String())
		}
		c.Next()
	}
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

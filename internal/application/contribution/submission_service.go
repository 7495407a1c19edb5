package contribution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"go.uber.org/zap"
)

// SubmitCommand is a member's claim of having paid into the group pool
type SubmitCommand struct {
	GroupID         uuid.UUID
	CallerUserID    uuid.UUID
	Amount          string
	Method          contribution.DeclaredMethod
	PaymentMethodID *uuid.UUID
	Reference       string
	Note            string
}

// SubmitResult identifies the created claim and its pending approval
type SubmitResult struct {
	ClaimID     uuid.UUID
	ApprovalID  uuid.UUID
	Status      contribution.ApprovalStatus
	SubmittedAt time.Time
}

// SubmissionService records contribution claims
type SubmissionService struct {
	membership *Membership
	methods    contribution.PaymentMethodRepository
	store      contribution.LedgerStore
	cache      SummaryCache
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// SubmissionServiceConfig holds the dependencies of SubmissionService
type SubmissionServiceConfig struct {
	Members        contribution.MemberRepository
	PaymentMethods contribution.PaymentMethodRepository
	Store          contribution.LedgerStore
	Cache          SummaryCache
	Metrics        Metrics
	Logger         *zap.Logger
	Clock          func() time.Time
}

// NewSubmissionService creates a SubmissionService
func NewSubmissionService(cfg SubmissionServiceConfig) *SubmissionService {
	s := &SubmissionService{
		membership: NewMembership(cfg.Members),
		methods:    cfg.PaymentMethods,
		store:      cfg.Store,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Clock,
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit validates the command and records a claim with a pending approval.
// Checks run in a fixed order (amount, membership, method) and nothing is
// written unless all pass.
func (s *SubmissionService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	amount, err := contribution.ParseAmount(cmd.Amount)
	if err != nil {
		return nil, err
	}

	member, err := s.membership.RequireMember(ctx, cmd.GroupID, cmd.CallerUserID)
	if err != nil {
		return nil, err
	}

	method, err := s.resolveMethod(ctx, cmd)
	if err != nil {
		return nil, err
	}

	claim, err := contribution.NewClaim(cmd.GroupID, member.ID, amount, method, cmd.PaymentMethodID, cmd.Reference, cmd.Note, s.now().UTC())
	if err != nil {
		return nil, err
	}
	approval := contribution.NewPendingApproval(claim)

	if err := s.store.CreateClaim(ctx, claim, approval); err != nil {
		s.logger.Error("Failed to record contribution claim",
			zap.String("group_id", cmd.GroupID.String()),
			zap.String("member_id", member.ID.String()),
			zap.Error(err))
		return nil, err
	}

	invalidateSummary(ctx, s.cache, s.logger, cmd.GroupID)
	s.metrics.ContributionSubmitted(method.String())

	s.logger.Info("Contribution submitted",
		zap.String("group_id", cmd.GroupID.String()),
		zap.String("member_id", member.ID.String()),
		zap.String("claim_id", claim.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("method", method.String()))

	return &SubmitResult{
		ClaimID:     claim.ID,
		ApprovalID:  approval.ID,
		Status:      approval.Status,
		SubmittedAt: claim.SubmittedAt,
	}, nil
}

func (s *SubmissionService) resolveMethod(ctx context.Context, cmd SubmitCommand) (contribution.DeclaredMethod, error) {
	if cmd.PaymentMethodID == nil {
		if cmd.Method.IsGeneric() {
			return cmd.Method, nil
		}
		return "", contribution.ErrUnknownPaymentMethod
	}
	if cmd.Method != "" && cmd.Method != contribution.MethodPaymentMethod {
		return "", contribution.ErrUnknownPaymentMethod
	}
	pm, err := s.methods.FindByID(ctx, *cmd.PaymentMethodID)
	if err != nil {
		return "", err
	}
	if !pm.AcceptsSubmissionsFor(cmd.GroupID) {
		return "", contribution.ErrUnknownPaymentMethod
	}
	return contribution.MethodPaymentMethod, nil
}

// invalidateSummary moves the group's cache to a new generation. Failures
// are logged only; cache entries expire on their own.
func invalidateSummary(ctx context.Context, cache SummaryCache, logger *zap.Logger, groupID uuid.UUID) {
	if err := cache.Bump(ctx, groupID); err != nil {
		logger.Warn("Failed to invalidate contribution summary cache",
			zap.String("group_id", groupID.String()),
			zap.Error(err))
	}
}

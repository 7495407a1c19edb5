package contribution

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"go.uber.org/zap"
)

// ResolveCommand is a manager's decision over a pending approval
type ResolveCommand struct {
	ApprovalID      uuid.UUID
	CallerUserID    uuid.UUID
	Decision        contribution.Decision
	RejectionReason string
}

// ResolveOutcome tells a fresh resolution apart from a repeated one
type ResolveOutcome string

const (
	OutcomeResolved        ResolveOutcome = "resolved"
	OutcomeAlreadyResolved ResolveOutcome = "already_resolved"
)

// ResolveResult is the result of Resolve. When Outcome is
// OutcomeAlreadyResolved, Status is the state some earlier call left behind.
type ResolveResult struct {
	ApprovalID    uuid.UUID
	ClaimID       uuid.UUID
	Outcome       ResolveOutcome
	Status        contribution.ApprovalStatus
	ResolvedAt    *time.Time
	LedgerEntryID *uuid.UUID
}

// AlreadyProcessed reports whether the call changed nothing
func (r *ResolveResult) AlreadyProcessed() bool {
	return r.Outcome == OutcomeAlreadyResolved
}

// ApprovalResolver moves approvals out of pending and posts approved claims
// to the ledger.
type ApprovalResolver struct {
	membership *Membership
	store      contribution.LedgerStore
	cache      SummaryCache
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// ApprovalResolverConfig holds the dependencies of ApprovalResolver
type ApprovalResolverConfig struct {
	Members contribution.MemberRepository
	Store   contribution.LedgerStore
	Cache   SummaryCache
	Metrics Metrics
	Logger  *zap.Logger
	Clock   func() time.Time
}

// NewApprovalResolver creates an ApprovalResolver
func NewApprovalResolver(cfg ApprovalResolverConfig) *ApprovalResolver {
	r := &ApprovalResolver{
		membership: NewMembership(cfg.Members),
		store:      cfg.Store,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Clock,
	}
	if r.cache == nil {
		r.cache = nopCache{}
	}
	if r.metrics == nil {
		r.metrics = nopMetrics{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Resolve approves or rejects a pending approval. Checks run in order:
// existence, manager capability, rejection reason, then the store-side
// compare-and-swap. Losing the swap is not an error.
func (r *ApprovalResolver) Resolve(ctx context.Context, cmd ResolveCommand) (*ResolveResult, error) {
	if !cmd.Decision.IsValid() {
		return nil, contribution.ErrInvalidDecision
	}

	approval, claim, err := r.store.FindApproval(ctx, cmd.ApprovalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, contribution.ErrApprovalNotFound
	}

	manager, err := r.membership.RequireManager(ctx, claim.GroupID, cmd.CallerUserID)
	if err != nil {
		return nil, err
	}

	if !approval.IsPending() {
		// the reason check precedes the state check
		if cmd.Decision == contribution.DecisionReject && isBlank(cmd.RejectionReason) {
			return nil, contribution.ErrMissingRejectionReason
		}
		r.metrics.ApprovalResolved(string(OutcomeAlreadyResolved))
		return alreadyResolved(approval), nil
	}

	now := r.now().UTC()
	resolvedBy := manager.ID.String()
	var entry *contribution.LedgerEntry
	switch cmd.Decision {
	case contribution.DecisionApprove:
		entry, err = approval.Approve(claim, resolvedBy, now)
	case contribution.DecisionReject:
		err = approval.Reject(resolvedBy, cmd.RejectionReason, now)
	}
	if err != nil {
		return nil, err
	}

	if err := r.store.ResolveApproval(ctx, approval, entry); err != nil {
		if errors.Is(err, contribution.ErrAlreadyResolved) {
			r.logger.Info("Approval resolved concurrently",
				zap.String("approval_id", approval.ID.String()),
				zap.String("decision", string(cmd.Decision)))
			r.metrics.ApprovalResolved(string(OutcomeAlreadyResolved))
			return r.currentState(ctx, cmd.ApprovalID)
		}
		r.logger.Error("Failed to resolve approval",
			zap.String("approval_id", approval.ID.String()),
			zap.Error(err))
		return nil, err
	}

	invalidateSummary(ctx, r.cache, r.logger, claim.GroupID)
	r.metrics.ApprovalResolved(approval.Status.String())

	r.logger.Info("Approval resolved",
		zap.String("approval_id", approval.ID.String()),
		zap.String("claim_id", claim.ID.String()),
		zap.String("group_id", claim.GroupID.String()),
		zap.String("status", approval.Status.String()),
		zap.String("resolved_by", resolvedBy))

	result := &ResolveResult{
		ApprovalID: approval.ID,
		ClaimID:    claim.ID,
		Outcome:    OutcomeResolved,
		Status:     approval.Status,
		ResolvedAt: approval.ResolvedAt,
	}
	if entry != nil {
		id := entry.ID
		result.LedgerEntryID = &id
	}
	return result, nil
}

// ListPendingApprovals returns the group's unresolved approvals, oldest
// first. Only managers may list them.
func (r *ApprovalResolver) ListPendingApprovals(ctx context.Context, groupID, callerUserID uuid.UUID) ([]contribution.PendingApproval, error) {
	if _, err := r.membership.RequireManager(ctx, groupID, callerUserID); err != nil {
		return nil, err
	}
	return r.store.ListPendingApprovals(ctx, groupID)
}

func (r *ApprovalResolver) currentState(ctx context.Context, approvalID uuid.UUID) (*ResolveResult, error) {
	approval, _, err := r.store.FindApproval(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, contribution.ErrApprovalNotFound
	}
	return alreadyResolved(approval), nil
}

func alreadyResolved(a *contribution.Approval) *ResolveResult {
	return &ResolveResult{
		ApprovalID: a.ID,
		ClaimID:    a.ClaimID,
		Outcome:    OutcomeAlreadyResolved,
		Status:     a.Status,
		ResolvedAt: a.ResolvedAt,
	}
}

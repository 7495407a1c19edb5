package contribution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"go.uber.org/zap"
)

// CreatePaymentMethodCommand registers a collection destination for a group
type CreatePaymentMethodCommand struct {
	GroupID      uuid.UUID
	CallerUserID uuid.UUID
	Kind         contribution.MethodKind
	DisplayName  string
	Number       string
}

// PaymentMethodService manages a group's payment methods
type PaymentMethodService struct {
	membership *Membership
	methods    contribution.PaymentMethodRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewPaymentMethodService creates a PaymentMethodService
func NewPaymentMethodService(members contribution.MemberRepository, methods contribution.PaymentMethodRepository, logger *zap.Logger) *PaymentMethodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentMethodService{
		membership: NewMembership(members),
		methods:    methods,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns the group's payment methods. Inactive methods are only
// listed for managers.
func (s *PaymentMethodService) List(ctx context.Context, groupID, callerUserID uuid.UUID, includeInactive bool) ([]contribution.PaymentMethod, error) {
	member, err := s.membership.RequireMember(ctx, groupID, callerUserID)
	if err != nil {
		return nil, err
	}
	if includeInactive && !contribution.HasManagerCapability(member, groupID) {
		includeInactive = false
	}
	return s.methods.ListByGroup(ctx, groupID, includeInactive)
}

// Create adds an active payment method
func (s *PaymentMethodService) Create(ctx context.Context, cmd CreatePaymentMethodCommand) (*contribution.PaymentMethod, error) {
	if _, err := s.membership.RequireManager(ctx, cmd.GroupID, cmd.CallerUserID); err != nil {
		return nil, err
	}
	pm, err := contribution.NewPaymentMethod(cmd.GroupID, cmd.Kind, cmd.DisplayName, cmd.Number)
	if err != nil {
		return nil, err
	}
	if err := s.methods.Save(ctx, pm); err != nil {
		return nil, err
	}
	s.logger.Info("Payment method created",
		zap.String("group_id", cmd.GroupID.String()),
		zap.String("payment_method_id", pm.ID.String()),
		zap.String("kind", string(pm.Kind)))
	return pm, nil
}

// Deactivate hides a method from new submissions. Pending claims that
// already reference it remain resolvable.
func (s *PaymentMethodService) Deactivate(ctx context.Context, methodID, callerUserID uuid.UUID) (*contribution.PaymentMethod, error) {
	pm, err := s.methods.FindByID(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, contribution.ErrPaymentMethodNotFound
	}
	if _, err := s.membership.RequireManager(ctx, pm.GroupID, callerUserID); err != nil {
		return nil, err
	}
	if !pm.Active {
		return pm, nil
	}
	pm.Deactivate(s.now().UTC())
	if err := s.methods.Save(ctx, pm); err != nil {
		return nil, err
	}
	s.logger.Info("Payment method deactivated",
		zap.String("group_id", pm.GroupID.String()),
		zap.String("payment_method_id", pm.ID.String()))
	return pm, nil
}

// Package payment bridges the mobile-money network into the contribution
// ledger: it initiates customer charges and reconciles their callbacks.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Metrics receives bridge counters
type Metrics interface {
	ChargeInitiated(result string)
	CallbackProcessed(outcome string)
}

// SummaryInvalidator drops cached group summaries after a funded posting
type SummaryInvalidator interface {
	Bump(ctx context.Context, groupID uuid.UUID) error
}

type nopMetrics struct{}

func (nopMetrics) ChargeInitiated(string)   {}
func (nopMetrics) CallbackProcessed(string) {}

type nopInvalidator struct{}

func (nopInvalidator) Bump(context.Context, uuid.UUID) error { return nil }

// CallbackOutcome classifies what a callback did
type CallbackOutcome string

const (
	CallbackSucceeded CallbackOutcome = "success"
	CallbackFailed    CallbackOutcome = "failed"
	CallbackDuplicate CallbackOutcome = "duplicate"
	CallbackUnknown   CallbackOutcome = "unknown"
	CallbackInvalid   CallbackOutcome = "invalid"
	CallbackError     CallbackOutcome = "error"
	// CallbackThrottled callbacks were acknowledged without being read
	CallbackThrottled CallbackOutcome = "throttled"
)

// Ack is the body returned to the payment network for every callback
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Accepted is the only acknowledgement ever sent
var Accepted = Ack{ResultCode: 0, ResultDesc: "Accepted"}

// FundTarget asks for a confirmed payment to be posted as the caller's
// contribution to GroupID.
type FundTarget struct {
	GroupID uuid.UUID
}

// InitiateCommand requests a customer charge
type InitiateCommand struct {
	CallerUserID     uuid.UUID
	PhoneNumber      string
	Amount           string
	AccountReference string
	Description      string
	Fund             *FundTarget
}

// InitiateResult identifies the recorded pending transaction
type InitiateResult struct {
	TransactionID     uuid.UUID
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

// GatewayBridge initiates mobile-money charges and applies their callbacks
type GatewayBridge struct {
	gateway      mobilemoney.Gateway
	transactions mobilemoney.TransactionRepository
	members      contribution.MemberRepository
	summaries    SummaryInvalidator
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// GatewayBridgeConfig holds the dependencies of GatewayBridge
type GatewayBridgeConfig struct {
	Gateway      mobilemoney.Gateway
	Transactions mobilemoney.TransactionRepository
	Members      contribution.MemberRepository
	Summaries    SummaryInvalidator
	Metrics      Metrics
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewGatewayBridge creates a GatewayBridge
func NewGatewayBridge(cfg GatewayBridgeConfig) *GatewayBridge {
	b := &GatewayBridge{
		gateway:      cfg.Gateway,
		transactions: cfg.Transactions,
		members:      cfg.Members,
		summaries:    cfg.Summaries,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          cfg.Clock,
	}
	if b.summaries == nil {
		b.summaries = nopInvalidator{}
	}
	if b.metrics == nil {
		b.metrics = nopMetrics{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Initiate sends an STK push and records the pending transaction under both
// correlation ids. Nothing is recorded unless the network accepts the request.
func (b *GatewayBridge) Initiate(ctx context.Context, cmd InitiateCommand) (*InitiateResult, error) {
	if cmd.CallerUserID == uuid.Nil {
		return nil, mobilemoney.ErrUnauthorized
	}
	phone, err := mobilemoney.NormalizePhoneNumber(cmd.PhoneNumber)
	if err != nil {
		return nil, err
	}
	amount, err := parseWholeAmount(cmd.Amount)
	if err != nil {
		return nil, err
	}

	var funding *mobilemoney.FundingTarget
	if cmd.Fund != nil {
		member, err := b.members.FindMemberByUser(ctx, cmd.Fund.GroupID, cmd.CallerUserID)
		if err != nil {
			return nil, err
		}
		if member == nil || !member.Active {
			return nil, contribution.ErrNotAMember
		}
		funding = &mobilemoney.FundingTarget{GroupID: cmd.Fund.GroupID, MemberID: member.ID}
	}

	req := &mobilemoney.ChargeRequest{
		PhoneNumber:      phone,
		Amount:           amount,
		AccountReference: cmd.AccountReference,
		Description:      cmd.Description,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := b.gateway.AccessToken(ctx)
	if err != nil {
		b.metrics.ChargeInitiated("error")
		b.logger.Warn("Failed to obtain gateway access token", zap.Error(err))
		return nil, err
	}
	resp, err := b.gateway.InitiateCharge(ctx, token, req)
	if err != nil {
		b.metrics.ChargeInitiated("error")
		b.logger.Warn("STK push request failed", zap.Error(err))
		return nil, err
	}
	if !resp.IsAccepted() {
		b.metrics.ChargeInitiated("rejected")
		b.logger.Info("STK push rejected by network",
			zap.String("response_code", resp.ResponseCode),
			zap.String("response_description", resp.ResponseDescription))
		return nil, fmt.Errorf("%w: %s", mobilemoney.ErrGatewayRejected, resp.ResponseDescription)
	}

	tx := mobilemoney.NewPendingTransaction(cmd.CallerUserID, req, resp, funding)
	tx.CreatedAt = b.now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	if err := b.transactions.Create(ctx, tx); err != nil {
		b.metrics.ChargeInitiated("error")
		b.logger.Error("Accepted STK push could not be recorded",
			zap.String("merchant_request_id", resp.MerchantRequestID),
			zap.String("checkout_request_id", resp.CheckoutRequestID),
			zap.String("user_id", cmd.CallerUserID.String()),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, err
	}

	b.metrics.ChargeInitiated("accepted")
	b.logger.Info("STK push initiated",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("checkout_request_id", tx.CheckoutRequestID),
		zap.Bool("funds_contribution", funding != nil))

	return &InitiateResult{
		TransactionID:     tx.ID,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

// HandleCallback reconciles a network callback and always returns the
// acknowledgement. Failures are logged and counted, never surfaced.
func (b *GatewayBridge) HandleCallback(ctx context.Context, raw []byte) Ack {
	outcome, err := b.Reconcile(ctx, raw)
	b.metrics.CallbackProcessed(string(outcome))

	switch {
	case err == nil:
	case outcome == CallbackError:
		b.logger.Error("Callback reconciliation failed", zap.Error(err))
	default:
		b.logger.Warn("Callback ignored",
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
	return Accepted
}

// Reconcile applies a callback to its pending transaction. The transition
// and any funded ledger posting are one compare-and-swap in the store, so
// replays and concurrent deliveries resolve the transaction exactly once.
func (b *GatewayBridge) Reconcile(ctx context.Context, raw []byte) (CallbackOutcome, error) {
	result, err := mobilemoney.ParseCallback(raw)
	if err != nil {
		return CallbackInvalid, err
	}

	log := b.logger.With(
		zap.String("merchant_request_id", result.MerchantRequestID),
		zap.String("checkout_request_id", result.CheckoutRequestID),
	)

	tx, err := b.transactions.FindByCorrelation(ctx, result.CheckoutRequestID, result.MerchantRequestID)
	if err != nil {
		return CallbackError, err
	}
	if tx == nil {
		return CallbackUnknown, mobilemoney.ErrTransactionNotFound
	}
	if !tx.IsPending() {
		log.Info("Callback for resolved transaction", zap.String("status", tx.Status.String()))
		return CallbackDuplicate, nil
	}

	now := b.now().UTC()
	if err := tx.ApplyCallback(result, raw, now); err != nil {
		return CallbackDuplicate, nil
	}

	funded, err := tx.FundedContribution(now)
	if err != nil {
		log.Error("Funded contribution could not be built; recording payment only",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		funded = nil
		tx.FundedClaimID = nil
	}

	if err := b.transactions.Complete(ctx, tx, funded); err != nil {
		if errors.Is(err, mobilemoney.ErrTransactionAlreadyResolved) {
			log.Info("Callback lost race to a concurrent delivery")
			return CallbackDuplicate, nil
		}
		return CallbackError, err
	}

	if funded != nil {
		if err := b.summaries.Bump(ctx, funded.Claim.GroupID); err != nil {
			log.Warn("Failed to invalidate contribution summary cache", zap.Error(err))
		}
	}

	log.Info("Transaction reconciled",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", tx.Status.String()),
		zap.Int("result_code", result.ResultCode),
		zap.String("receipt", tx.ReceiptNumber))

	if tx.Status.IsSuccess() {
		return CallbackSucceeded, nil
	}
	return CallbackFailed, nil
}

// GetTransactionStatus returns the caller's transaction. Transactions of
// other users are reported as not found.
func (b *GatewayBridge) GetTransactionStatus(ctx context.Context, transactionID, callerUserID uuid.UUID) (*mobilemoney.Transaction, error) {
	if callerUserID == uuid.Nil {
		return nil, mobilemoney.ErrUnauthorized
	}
	tx, err := b.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.UserID != callerUserID {
		return nil, mobilemoney.ErrTransactionNotFound
	}
	return tx, nil
}

// parseWholeAmount accepts positive whole shillings below contribution.MaxAmount
func parseWholeAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() || !d.IsInteger() || d.GreaterThanOrEqual(contribution.MaxAmount) {
		return 0, mobilemoney.ErrInvalidAmount
	}
	return d.IntPart(), nil
}

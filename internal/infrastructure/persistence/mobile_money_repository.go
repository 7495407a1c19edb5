package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/domain/mobilemoney"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormMobileMoneyRepository implements mobilemoney.TransactionRepository using GORM
type GormMobileMoneyRepository struct {
	store
}

// NewGormMobileMoneyRepository creates a new GormMobileMoneyRepository
func NewGormMobileMoneyRepository(db *gorm.DB, timeout time.Duration) *GormMobileMoneyRepository {
	return &GormMobileMoneyRepository{store: store{db: db, timeout: timeout}}
}

// Create inserts a pending transaction
func (r *GormMobileMoneyRepository) Create(ctx context.Context, tx *mobilemoney.Transaction) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Create(models.MobileMoneyTransactionModelFromDomain(tx)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return mobilemoney.ErrDuplicateCorrelationID
		}
		return unavailable("create transaction", err)
	}
	return nil
}

// FindByID finds a transaction by ID
func (r *GormMobileMoneyRepository) FindByID(ctx context.Context, id uuid.UUID) (*mobilemoney.Transaction, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCorrelation matches a callback to its transaction by checkout
// request id, falling back to the merchant request id.
func (r *GormMobileMoneyRepository) FindByCorrelation(ctx context.Context, checkoutRequestID, merchantRequestID string) (*mobilemoney.Transaction, error) {
	if checkoutRequestID != "" {
		tx, err := r.findOne(ctx, "checkout_request_id = ?", checkoutRequestID)
		if err != nil || tx != nil {
			return tx, err
		}
	}
	if merchantRequestID != "" {
		return r.findOne(ctx, "merchant_request_id = ?", merchantRequestID)
	}
	return nil, nil
}

func (r *GormMobileMoneyRepository) findOne(ctx context.Context, query string, arg any) (*mobilemoney.Transaction, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var model models.MobileMoneyTransactionModel
	if err := db.Where(query, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find transaction", err)
	}
	return model.ToDomain(), nil
}

// Complete persists the callback outcome as a compare-and-swap on the pending
// status, posting the funded contribution in the same transaction.
func (r *GormMobileMoneyRepository) Complete(ctx context.Context, t *mobilemoney.Transaction, funded *contribution.FundedContribution) error {
	err := r.transaction(ctx, "complete transaction", func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":          string(t.Status),
			"receipt_number":  t.ReceiptNumber,
			"result_code":     t.ResultCode,
			"result_desc":     t.ResultDesc,
			"funded_claim_id": t.FundedClaimID,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      t.UpdatedAt,
		}
		if len(t.RawCallback) > 0 {
			updates["raw_callback"] = datatypes.JSON(t.RawCallback)
		}

		res := tx.Model(&models.MobileMoneyTransactionModel{}).
			Where("id = ? AND status = ?", t.ID, string(mobilemoney.TransactionStatusPending)).
			Updates(updates)
		if res.Error != nil {
			return unavailable("update transaction", res.Error)
		}
		if res.RowsAffected == 0 {
			return mobilemoney.ErrTransactionAlreadyResolved
		}
		if funded == nil {
			return nil
		}
		if err := insertClaim(tx, funded.Claim, funded.Approval); err != nil {
			return err
		}
		return postLedgerEntry(tx, funded.Entry)
	})
	if err != nil {
		return err
	}
	t.IncrementVersion()
	return nil
}

// Ensure GormMobileMoneyRepository implements mobilemoney.TransactionRepository
var _ mobilemoney.TransactionRepository = (*GormMobileMoneyRepository)(nil)

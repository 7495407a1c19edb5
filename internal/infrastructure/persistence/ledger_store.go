package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerStore implements contribution.LedgerStore using GORM.
// Running totals live in group_balances and member_balances and are only
// ever changed by store-side increments inside the posting transaction.
type GormLedgerStore struct {
	store
}

// NewGormLedgerStore creates a new GormLedgerStore
func NewGormLedgerStore(db *gorm.DB, timeout time.Duration) *GormLedgerStore {
	return &GormLedgerStore{store: store{db: db, timeout: timeout}}
}

// CreateClaim writes the claim and its pending approval atomically
func (s *GormLedgerStore) CreateClaim(ctx context.Context, claim *contribution.Claim, approval *contribution.Approval) error {
	return s.transaction(ctx, "create claim", func(tx *gorm.DB) error {
		return insertClaim(tx, claim, approval)
	})
}

// FindApproval returns the approval and its claim, or (nil, nil, nil) when
// the approval does not exist.
func (s *GormLedgerStore) FindApproval(ctx context.Context, approvalID uuid.UUID) (*contribution.Approval, *contribution.Claim, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var approval models.ApprovalModel
	if err := db.Where("id = ?", approvalID).First(&approval).Error; err != nil {
		if isNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, unavailable("find approval", err)
	}

	var claim models.ClaimModel
	if err := db.Where("id = ?", approval.ClaimID).First(&claim).Error; err != nil {
		if isNotFound(err) {
			return nil, nil, contribution.ErrIntegrityViolation
		}
		return nil, nil, unavailable("find claim", err)
	}
	return approval.ToDomain(), claim.ToDomain(), nil
}

// ListPendingApprovals lists a group's unresolved approvals, oldest first
func (s *GormLedgerStore) ListPendingApprovals(ctx context.Context, groupID uuid.UUID) ([]contribution.PendingApproval, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var approvals []models.ApprovalModel
	err := db.Joins("JOIN contribution_claims ON contribution_claims.id = approvals.claim_id").
		Where("contribution_claims.group_id = ? AND approvals.status = ?", groupID, string(contribution.ApprovalStatusPending)).
		Order("approvals.created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, unavailable("list pending approvals", err)
	}
	if len(approvals) == 0 {
		return []contribution.PendingApproval{}, nil
	}

	claimIDs := make([]uuid.UUID, 0, len(approvals))
	for _, a := range approvals {
		claimIDs = append(claimIDs, a.ClaimID)
	}
	var claims []models.ClaimModel
	if err := db.Where("id IN ?", claimIDs).Find(&claims).Error; err != nil {
		return nil, unavailable("list pending claims", err)
	}
	byID := make(map[uuid.UUID]*models.ClaimModel, len(claims))
	for i := range claims {
		byID[claims[i].ID] = &claims[i]
	}

	pending := make([]contribution.PendingApproval, 0, len(approvals))
	for i := range approvals {
		claim, ok := byID[approvals[i].ClaimID]
		if !ok {
			continue
		}
		pending = append(pending, contribution.PendingApproval{
			Approval: *approvals[i].ToDomain(),
			Claim:    *claim.ToDomain(),
		})
	}
	return pending, nil
}

// ResolveApproval persists a resolution as a compare-and-swap on the pending
// status. When entry is non-nil it is posted in the same transaction.
func (s *GormLedgerStore) ResolveApproval(ctx context.Context, approval *contribution.Approval, entry *contribution.LedgerEntry) error {
	err := s.transaction(ctx, "resolve approval", func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalModel{}).
			Where("id = ? AND status = ?", approval.ID, string(contribution.ApprovalStatusPending)).
			Updates(map[string]any{
				"status":           string(approval.Status),
				"resolved_by":      approval.ResolvedBy,
				"resolved_at":      approval.ResolvedAt,
				"rejection_reason": approval.RejectionReason,
				"version":          gorm.Expr("version + 1"),
				"updated_at":       approval.UpdatedAt,
			})
		if res.Error != nil {
			return unavailable("update approval", res.Error)
		}
		if res.RowsAffected == 0 {
			return contribution.ErrAlreadyResolved
		}
		if entry == nil {
			return nil
		}
		return postLedgerEntry(tx, entry)
	})
	if err != nil {
		return err
	}
	approval.IncrementVersion()
	return nil
}

type claimRecordRow struct {
	ID              uuid.UUID
	GroupID         uuid.UUID
	MemberID        uuid.UUID
	Amount          decimal.Decimal
	Method          string
	PaymentMethodID *uuid.UUID
	Reference       string
	Note            string
	SubmittedAt     time.Time
	ApprovalID      *uuid.UUID
	Status          *string
	ResolvedAt      *time.Time
	LedgerEntryID   *uuid.UUID
	PostedAt        *time.Time
}

// ListClaimRecords returns every claim of a group joined with its approval
// and ledger entry, oldest first.
func (s *GormLedgerStore) ListClaimRecords(ctx context.Context, groupID uuid.UUID) ([]contribution.ClaimRecord, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	return listClaimRecords(db, groupID)
}

// FindGroupBalance returns the running total of a group, or nil when nothing
// has been posted yet.
func (s *GormLedgerStore) FindGroupBalance(ctx context.Context, groupID uuid.UUID) (*contribution.Balance, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	return findGroupBalance(db, groupID)
}

// LoadProjectionInputs reads a group's claim records and running total from
// one snapshot, so an approval committing in between cannot make them
// disagree.
func (s *GormLedgerStore) LoadProjectionInputs(ctx context.Context, groupID uuid.UUID) ([]contribution.ClaimRecord, *contribution.Balance, error) {
	var (
		records []contribution.ClaimRecord
		balance *contribution.Balance
	)
	err := s.snapshot(ctx, "load projection inputs", func(tx *gorm.DB) error {
		var err error
		if records, err = listClaimRecords(tx, groupID); err != nil {
			return err
		}
		balance, err = findGroupBalance(tx, groupID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return records, balance, nil
}

func listClaimRecords(db *gorm.DB, groupID uuid.UUID) ([]contribution.ClaimRecord, error) {
	var rows []claimRecordRow
	err := db.Table("contribution_claims AS c").
		Select("c.id, c.group_id, c.member_id, c.amount, c.method, c.payment_method_id, c.reference, c.note, c.submitted_at, "+
			"a.id AS approval_id, a.status, a.resolved_at, l.id AS ledger_entry_id, l.posted_at").
		Joins("LEFT JOIN approvals a ON a.claim_id = c.id").
		Joins("LEFT JOIN ledger_entries l ON l.claim_id = c.id").
		Where("c.group_id = ?", groupID).
		Order("c.submitted_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, unavailable("list claim records", err)
	}

	records := make([]contribution.ClaimRecord, 0, len(rows))
	for _, row := range rows {
		rec := contribution.ClaimRecord{
			Claim: contribution.Claim{
				ID:              row.ID,
				GroupID:         row.GroupID,
				MemberID:        row.MemberID,
				Amount:          row.Amount,
				Method:          contribution.DeclaredMethod(row.Method),
				PaymentMethodID: row.PaymentMethodID,
				Reference:       row.Reference,
				Note:            row.Note,
				SubmittedAt:     row.SubmittedAt,
			},
			ApprovalID:    row.ApprovalID,
			ResolvedAt:    row.ResolvedAt,
			LedgerEntryID: row.LedgerEntryID,
			PostedAt:      row.PostedAt,
		}
		if row.Status != nil {
			rec.Status = contribution.ApprovalStatus(*row.Status)
		}
		records = append(records, rec)
	}
	return records, nil
}

func findGroupBalance(db *gorm.DB, groupID uuid.UUID) (*contribution.Balance, error) {
	var model models.GroupBalanceModel
	if err := db.Where("group_id = ?", groupID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find group balance", err)
	}
	return model.ToDomain(), nil
}

// FindMemberBalance returns the running total of one member, or nil when
// nothing has been posted for them yet.
func (s *GormLedgerStore) FindMemberBalance(ctx context.Context, groupID, memberID uuid.UUID) (*contribution.Balance, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var model models.MemberBalanceModel
	if err := db.Where("group_id = ? AND member_id = ?", groupID, memberID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find member balance", err)
	}
	return model.ToDomain(), nil
}

// insertClaim writes a claim and its approval within tx
func insertClaim(tx *gorm.DB, claim *contribution.Claim, approval *contribution.Approval) error {
	if err := tx.Create(models.ClaimModelFromDomain(claim)).Error; err != nil {
		return unavailable("insert claim", err)
	}
	if err := tx.Create(models.ApprovalModelFromDomain(approval)).Error; err != nil {
		return unavailable("insert approval", err)
	}
	return nil
}

// postLedgerEntry inserts entry and increments the group and member running
// totals within tx. A second entry for the same claim is a no-op.
func postLedgerEntry(tx *gorm.DB, entry *contribution.LedgerEntry) error {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "claim_id"}},
		DoNothing: true,
	}).Create(models.LedgerEntryModelFromDomain(entry))
	if res.Error != nil {
		return unavailable("insert ledger entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total":       gorm.Expr("group_balances.total + ?", entry.Amount),
			"entry_count": gorm.Expr("group_balances.entry_count + 1"),
			"updated_at":  entry.PostedAt,
		}),
	}).Create(&models.GroupBalanceModel{
		GroupID:    entry.GroupID,
		Total:      entry.Amount,
		EntryCount: 1,
		UpdatedAt:  entry.PostedAt,
	}).Error
	if err != nil {
		return unavailable("increment group balance", err)
	}

	postedAt := entry.PostedAt
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "member_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total":          gorm.Expr("member_balances.total + ?", entry.Amount),
			"entry_count":    gorm.Expr("member_balances.entry_count + 1"),
			"last_posted_at": postedAt,
		}),
	}).Create(&models.MemberBalanceModel{
		GroupID:      entry.GroupID,
		MemberID:     entry.MemberID,
		Total:        entry.Amount,
		EntryCount:   1,
		LastPostedAt: &postedAt,
	}).Error
	if err != nil {
		return unavailable("increment member balance", err)
	}
	return nil
}

// Ensure GormLedgerStore implements contribution.LedgerStore
var _ contribution.LedgerStore = (*GormLedgerStore)(nil)

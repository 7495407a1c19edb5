package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hazina/backend/internal/domain/contribution"
	"github.com/hazina/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentMethodRepository implements contribution.PaymentMethodRepository using GORM
type GormPaymentMethodRepository struct {
	store
}

// NewGormPaymentMethodRepository creates a new GormPaymentMethodRepository
func NewGormPaymentMethodRepository(db *gorm.DB, timeout time.Duration) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{store: store{db: db, timeout: timeout}}
}

// FindByID finds a payment method by ID
func (r *GormPaymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*contribution.PaymentMethod, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var model models.PaymentMethodModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("find payment method", err)
	}
	return model.ToDomain(), nil
}

// ListByGroup lists the payment methods of a group, newest first
func (r *GormPaymentMethodRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, includeInactive bool) ([]contribution.PaymentMethod, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Where("group_id = ?", groupID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var rows []models.PaymentMethodModel
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, unavailable("list payment methods", err)
	}
	methods := make([]contribution.PaymentMethod, 0, len(rows))
	for i := range rows {
		methods = append(methods, *rows[i].ToDomain())
	}
	return methods, nil
}

// Save creates or updates a payment method
func (r *GormPaymentMethodRepository) Save(ctx context.Context, method *contribution.PaymentMethod) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Save(models.PaymentMethodModelFromDomain(method)).Error; err != nil {
		return unavailable("save payment method", err)
	}
	return nil
}

// Ensure GormPaymentMethodRepository implements contribution.PaymentMethodRepository
var _ contribution.PaymentMethodRepository = (*GormPaymentMethodRepository)(nil)

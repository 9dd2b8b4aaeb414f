package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRefundRepository implements RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund by ID
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a refund by ID taking a row lock
func (r *GormRefundRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a refund by its refund number
func (r *GormRefundRepository) FindByNumber(ctx context.Context, refundNumber string) (*settlement.Refund, error) {
	var model models.RefundModel
	if err := r.db.WithContext(ctx).
		First(&model, "refund_number = ?", refundNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDeal finds the refunds belonging to a deal
func (r *GormRefundRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]settlement.Refund, error) {
	var refundModels []models.RefundModel
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&refundModels).Error; err != nil {
		return nil, err
	}
	refunds := make([]settlement.Refund, len(refundModels))
	for i, model := range refundModels {
		refunds[i] = *model.ToDomain()
	}
	return refunds, nil
}

// FindAll finds refunds with filtering
func (r *GormRefundRepository) FindAll(ctx context.Context, filter settlement.RefundFilter) ([]settlement.Refund, error) {
	var refundModels []models.RefundModel
	query := r.applyRefundFilter(r.db.WithContext(ctx), filter)

	query = query.Order(ValidateSortField(filter.OrderBy, RefundSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&refundModels).Error; err != nil {
		return nil, err
	}
	refunds := make([]settlement.Refund, len(refundModels))
	for i, model := range refundModels {
		refunds[i] = *model.ToDomain()
	}
	return refunds, nil
}

// Count counts refunds matching the filter
func (r *GormRefundRepository) Count(ctx context.Context, filter settlement.RefundFilter) (int64, error) {
	var count int64
	query := r.applyRefundFilter(
		r.db.WithContext(ctx).Model(&models.RefundModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a refund
func (r *GormRefundRepository) Save(ctx context.Context, refund *settlement.Refund) error {
	var model models.RefundModel
	model.FromDomain(refund)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormRefundRepository) SaveWithLock(ctx context.Context, refund *settlement.Refund, expectedVersion int) error {
	var model models.RefundModel
	model.FromDomain(refund)
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", refund.ID, expectedVersion).
		Updates(&model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormRefundRepository) applyRefundFilter(query *gorm.DB, filter settlement.RefundFilter) *gorm.DB {
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("refund_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormRefundRepository implements settlement.RefundRepository
var _ settlement.RefundRepository = (*GormRefundRepository)(nil)

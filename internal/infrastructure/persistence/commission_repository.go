package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommissionRepository implements CommissionRepository using GORM
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewGormCommissionRepository creates a new GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// FindByID finds a commission by ID
func (r *GormCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a commission by ID taking a row lock
func (r *GormCommissionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	var model models.CommissionModel
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

// FindByDeal finds the commissions belonging to a deal
func (r *GormCommissionRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]commission.Commission, error) {
	var commissionModels []models.CommissionModel
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	commissions := make([]commission.Commission, len(commissionModels))
	for i, model := range commissionModels {
		commissions[i] = *model.ToDomain()
	}
	return commissions, nil
}

// FindByAgent finds commissions for an agent with filtering
func (r *GormCommissionRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter commission.CommissionFilter) ([]commission.Commission, error) {
	filter.AgentID = &agentID
	return r.FindAll(ctx, filter)
}

// FindAll finds commissions with filtering
func (r *GormCommissionRepository) FindAll(ctx context.Context, filter commission.CommissionFilter) ([]commission.Commission, error) {
	var commissionModels []models.CommissionModel
	query := r.applyCommissionFilter(r.db.WithContext(ctx), filter)

	query = query.Order(ValidateSortField(filter.OrderBy, CommissionSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&commissionModels).Error; err != nil {
		return nil, err
	}
	commissions := make([]commission.Commission, len(commissionModels))
	for i, model := range commissionModels {
		commissions[i] = *model.ToDomain()
	}
	return commissions, nil
}

// Count counts commissions matching the filter
func (r *GormCommissionRepository) Count(ctx context.Context, filter commission.CommissionFilter) (int64, error) {
	var count int64
	query := r.applyCommissionFilter(
		r.db.WithContext(ctx).Model(&models.CommissionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a commission
func (r *GormCommissionRepository) Save(ctx context.Context, comm *commission.Commission) error {
	var model models.CommissionModel
	model.FromDomain(comm)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormCommissionRepository) SaveWithLock(ctx context.Context, comm *commission.Commission, expectedVersion int) error {
	var model models.CommissionModel
	model.FromDomain(comm)
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", comm.ID, expectedVersion).
		Updates(&model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormCommissionRepository) applyCommissionFilter(query *gorm.DB, filter commission.CommissionFilter) *gorm.DB {
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Search != "" {
		query = query.Where("agent_name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormCommissionRepository implements commission.CommissionRepository
var _ commission.CommissionRepository = (*GormCommissionRepository)(nil)

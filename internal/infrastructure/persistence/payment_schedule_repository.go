package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentScheduleRepository implements PaymentScheduleRepository using GORM
type GormPaymentScheduleRepository struct {
	db *gorm.DB
}

// NewGormPaymentScheduleRepository creates a new GormPaymentScheduleRepository
func NewGormPaymentScheduleRepository(db *gorm.DB) *GormPaymentScheduleRepository {
	return &GormPaymentScheduleRepository{db: db}
}

// FindByID finds a payment schedule by ID
func (r *GormPaymentScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentSchedule, error) {
	var model models.PaymentScheduleModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a payment schedule by ID taking a row lock
func (r *GormPaymentScheduleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.PaymentSchedule, error) {
	var model models.PaymentScheduleModel
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

// FindByDeal finds the payment schedules belonging to a deal
func (r *GormPaymentScheduleRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]billing.PaymentSchedule, error) {
	var scheduleModels []models.PaymentScheduleModel
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	schedules := make([]billing.PaymentSchedule, len(scheduleModels))
	for i, model := range scheduleModels {
		schedules[i] = *model.ToDomain()
	}
	return schedules, nil
}

// FindAll finds payment schedules with filtering
func (r *GormPaymentScheduleRepository) FindAll(ctx context.Context, filter billing.ScheduleFilter) ([]billing.PaymentSchedule, error) {
	var scheduleModels []models.PaymentScheduleModel
	query := r.applyScheduleFilter(r.db.WithContext(ctx), filter)

	query = query.Order(ValidateSortField(filter.OrderBy, ScheduleSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	schedules := make([]billing.PaymentSchedule, len(scheduleModels))
	for i, model := range scheduleModels {
		schedules[i] = *model.ToDomain()
	}
	return schedules, nil
}

// Count counts payment schedules matching the filter
func (r *GormPaymentScheduleRepository) Count(ctx context.Context, filter billing.ScheduleFilter) (int64, error) {
	var count int64
	query := r.applyScheduleFilter(
		r.db.WithContext(ctx).Model(&models.PaymentScheduleModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment schedule
func (r *GormPaymentScheduleRepository) Save(ctx context.Context, schedule *billing.PaymentSchedule) error {
	var model models.PaymentScheduleModel
	model.FromDomain(schedule)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPaymentScheduleRepository) SaveWithLock(ctx context.Context, schedule *billing.PaymentSchedule, expectedVersion int) error {
	var model models.PaymentScheduleModel
	model.FromDomain(schedule)
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", schedule.ID, expectedVersion).
		Updates(&model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormPaymentScheduleRepository) applyScheduleFilter(query *gorm.DB, filter billing.ScheduleFilter) *gorm.DB {
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.PlanType != nil {
		query = query.Where("plan_type = ?", *filter.PlanType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormPaymentScheduleRepository implements billing.PaymentScheduleRepository
var _ billing.PaymentScheduleRepository = (*GormPaymentScheduleRepository)(nil)

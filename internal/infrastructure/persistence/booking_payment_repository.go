package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBookingPaymentRepository implements BookingPaymentRepository using GORM.
// Booking payments are write-once; the repository exposes no update path.
type GormBookingPaymentRepository struct {
	db *gorm.DB
}

// NewGormBookingPaymentRepository creates a new GormBookingPaymentRepository
func NewGormBookingPaymentRepository(db *gorm.DB) *GormBookingPaymentRepository {
	return &GormBookingPaymentRepository{db: db}
}

// FindByID finds a booking payment by ID
func (r *GormBookingPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.BookingPayment, error) {
	var model models.BookingPaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDeal finds the booking payments belonging to a deal
func (r *GormBookingPaymentRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]settlement.BookingPayment, error) {
	var paymentModels []models.BookingPaymentModel
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]settlement.BookingPayment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindUnmatchedByReference finds booking payments carrying the given bank reference
// number or UTR that no bank transaction has matched yet
func (r *GormBookingPaymentRepository) FindUnmatchedByReference(ctx context.Context, reference string) ([]settlement.BookingPayment, error) {
	var paymentModels []models.BookingPaymentModel
	if err := r.db.WithContext(ctx).
		Where("reference_number = ? OR utr = ?", reference, reference).
		Where("id NOT IN (SELECT matched_booking_id FROM bank_transactions WHERE matched_booking_id IS NOT NULL)").
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]settlement.BookingPayment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindUnreconciled finds booking payments not yet linked by any bank transaction
func (r *GormBookingPaymentRepository) FindUnreconciled(ctx context.Context) ([]settlement.BookingPayment, error) {
	var paymentModels []models.BookingPaymentModel
	if err := r.db.WithContext(ctx).
		Where("id NOT IN (SELECT matched_booking_id FROM bank_transactions WHERE matched_booking_id IS NOT NULL)").
		Order("paid_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]settlement.BookingPayment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Save creates a booking payment record
func (r *GormBookingPaymentRepository) Save(ctx context.Context, payment *settlement.BookingPayment) error {
	var model models.BookingPaymentModel
	model.FromDomain(payment)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Ensure GormBookingPaymentRepository implements settlement.BookingPaymentRepository
var _ settlement.BookingPaymentRepository = (*GormBookingPaymentRepository)(nil)

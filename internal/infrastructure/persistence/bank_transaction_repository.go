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

// GormBankTransactionRepository implements BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a bank transaction by ID
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.BankTransaction, error) {
	var model models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a bank transaction by ID taking a row lock
func (r *GormBankTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.BankTransaction, error) {
	var model models.BankTransactionModel
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

// FindPending finds transactions awaiting the automatic matching pass
func (r *GormBankTransactionRepository) FindPending(ctx context.Context, limit int) ([]settlement.BankTransaction, error) {
	var txnModels []models.BankTransactionModel
	query := r.db.WithContext(ctx).
		Where("status = ?", settlement.ReconciliationStatusPending).
		Order("transaction_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txnModels).Error; err != nil {
		return nil, err
	}
	txns := make([]settlement.BankTransaction, len(txnModels))
	for i, model := range txnModels {
		txns[i] = *model.ToDomain()
	}
	return txns, nil
}

// FindAll finds bank transactions with filtering
func (r *GormBankTransactionRepository) FindAll(ctx context.Context, filter settlement.BankTransactionFilter) ([]settlement.BankTransaction, error) {
	var txnModels []models.BankTransactionModel
	query := r.applyBankTransactionFilter(r.db.WithContext(ctx), filter)

	query = query.Order(ValidateSortField(filter.OrderBy, BankTransactionSortFields, "transaction_date") + " " + ValidateSortOrder(filter.OrderDir))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&txnModels).Error; err != nil {
		return nil, err
	}
	txns := make([]settlement.BankTransaction, len(txnModels))
	for i, model := range txnModels {
		txns[i] = *model.ToDomain()
	}
	return txns, nil
}

// Count counts bank transactions matching the filter
func (r *GormBankTransactionRepository) Count(ctx context.Context, filter settlement.BankTransactionFilter) (int64, error) {
	var count int64
	query := r.applyBankTransactionFilter(
		r.db.WithContext(ctx).Model(&models.BankTransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a bank transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, txn *settlement.BankTransaction) error {
	var model models.BankTransactionModel
	model.FromDomain(txn)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormBankTransactionRepository) SaveWithLock(ctx context.Context, txn *settlement.BankTransaction, expectedVersion int) error {
	var model models.BankTransactionModel
	model.FromDomain(txn)
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("id = ? AND version = ?", txn.ID, expectedVersion).
		Updates(&model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormBankTransactionRepository) applyBankTransactionFilter(query *gorm.DB, filter settlement.BankTransactionFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BankName != nil {
		query = query.Where("bank_name = ?", *filter.BankName)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("reference_number ILIKE ? OR utr ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormBankTransactionRepository implements settlement.BankTransactionRepository
var _ settlement.BankTransactionRepository = (*GormBankTransactionRepository)(nil)

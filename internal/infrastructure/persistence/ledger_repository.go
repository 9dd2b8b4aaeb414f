package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository implements LedgerRepository using GORM. Entries are
// append-only; Append serializes writers on the scope's chain and rejects
// entries computed from a stale balance so callers can retry.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByID finds a ledger entry by ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByScope finds entries for one scope, newest first
func (r *GormLedgerRepository) FindByScope(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	filter.LedgerType = &ledgerType
	filter.ScopeID = &scopeID
	return r.FindAll(ctx, filter)
}

// FindAll finds ledger entries with filtering
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	query := r.applyLedgerFilter(r.db.WithContext(ctx), filter)

	orderBy := ValidateSortField(filter.OrderBy, LedgerEntrySortFields, "")
	if orderBy != "" {
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("transaction_date DESC").Order("sequence DESC")
	}

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]settlement.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Count counts ledger entries matching the filter
func (r *GormLedgerRepository) Count(ctx context.Context, filter settlement.LedgerFilter) (int64, error) {
	var count int64
	query := r.applyLedgerFilter(
		r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LastBalance returns the balance of the most recent entry for a scope.
// A scope with no entries starts at zero.
func (r *GormLedgerRepository) LastBalance(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID) (decimal.Decimal, error) {
	var model models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("ledger_type = ? AND scope_id = ?", ledgerType, scopeID).
		Order("sequence DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return model.Balance, nil
}

// Append persists a new entry at the head of its scope's chain. The chain
// head is locked for the duration of the insert; if the entry's balance was
// computed from a balance that is no longer the head, the append fails with
// a concurrency conflict and the caller must recompute.
func (r *GormLedgerRepository) Append(ctx context.Context, entry *settlement.LedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var head models.LedgerEntryModel
		lastBalance := decimal.Zero
		var lastSequence int64

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ledger_type = ? AND scope_id = ?", entry.LedgerType, entry.ScopeID).
			Order("sequence DESC").
			First(&head).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			lastBalance = head.Balance
			lastSequence = head.Sequence
		}

		expected := lastBalance.Add(entry.Credit).Sub(entry.Debit)
		if !expected.Equal(entry.Balance) {
			return shared.ErrConcurrencyConflict
		}

		entry.Sequence = lastSequence + 1

		var model models.LedgerEntryModel
		model.FromDomain(entry)
		return tx.Create(&model).Error
	})
}

func (r *GormLedgerRepository) applyLedgerFilter(query *gorm.DB, filter settlement.LedgerFilter) *gorm.DB {
	if filter.LedgerType != nil {
		query = query.Where("ledger_type = ?", *filter.LedgerType)
	}
	if filter.ScopeID != nil {
		query = query.Where("scope_id = ?", *filter.ScopeID)
	}
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}
	return query
}

// Ensure GormLedgerRepository implements settlement.LedgerRepository
var _ settlement.LedgerRepository = (*GormLedgerRepository)(nil)

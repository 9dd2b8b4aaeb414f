package persistence

import (
	"context"

	appbilling "github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements the billing TransactionScope using
// GORM transactions, so a payment's invoice, payment row, installment and
// ledger writes commit or roll back as one.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormBillingTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormBillingTransactionalRepositories provides repositories bound to one transaction.
type gormBillingTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// ScheduleRepo returns the payment schedule repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) ScheduleRepo() billing.PaymentScheduleRepository {
	return NewGormPaymentScheduleRepository(r.tx)
}

// LedgerRepo returns the ledger repository scoped to the current transaction.
func (r *gormBillingTransactionalRepositories) LedgerRepo() settlement.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormBillingTransactionalRepositories)(nil)

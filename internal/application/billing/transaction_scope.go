package billing

import (
	"context"

	"github.com/zenithcrm/backend/internal/domain/billing"
	settlementdomain "github.com/zenithcrm/backend/internal/domain/settlement"
)

// TransactionScope runs a unit of work whose repository writes commit or
// roll back together. Recording a payment touches the invoice, the payment,
// the linked installment and the customer ledger; none of those writes may
// be observable without the others.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories participating in a
// billing transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() billing.PaymentRepository
	// ScheduleRepo returns the payment schedule repository scoped to the current transaction
	ScheduleRepo() billing.PaymentScheduleRepository
	// LedgerRepo returns the ledger repository scoped to the current transaction.
	// May be nil when the wiring carries no ledger; ledger posting is skipped then.
	LedgerRepo() settlementdomain.LedgerRepository
}

// NoOpTransactionScope executes the unit of work directly against the
// injected repositories, without a database transaction. For testing.
type NoOpTransactionScope struct {
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	scheduleRepo billing.PaymentScheduleRepository
	ledgerRepo   settlementdomain.LedgerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	scheduleRepo billing.PaymentScheduleRepository,
	ledgerRepo settlementdomain.LedgerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		scheduleRepo: scheduleRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}

// ScheduleRepo returns the payment schedule repository.
func (s *NoOpTransactionScope) ScheduleRepo() billing.PaymentScheduleRepository {
	return s.scheduleRepo
}

// LedgerRepo returns the ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() settlementdomain.LedgerRepository {
	return s.ledgerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

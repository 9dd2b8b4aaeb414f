package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zenithcrm/backend/internal/domain/billing"
	settlementdomain "github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

func issuedInvoice(t *testing.T, total float64, dueDate time.Time) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(
		uuid.New(),
		uuid.New(),
		"Asha Mehta",
		billing.InvoiceTypeTax,
		billing.TriggerManual,
		valueobject.NewMoneyINRFromFloat(total),
		valueobject.ZeroINR(),
		dueDate,
	)
	require.NoError(t, err)
	require.NoError(t, inv.Issue())
	inv.ClearDomainEvents()
	return inv
}

// countingScope wraps another scope and records each unit of work's outcome,
// so tests can assert that all writes ran inside a single execution.
type countingScope struct {
	inner    TransactionScope
	executed int
	lastErr  error
}

func (s *countingScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.executed++
	s.lastErr = s.inner.Execute(ctx, fn)
	return s.lastErr
}

func TestRecordPayment_PartialPayment(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	ledgerRepo := new(MockLedgerRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, ledgerRepo)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	dueDate := time.Now().AddDate(0, 0, -10)
	invoice := issuedInvoice(t, 100000, dueDate)

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)
	ledgerRepo.On("LastBalance", mock.Anything, settlementdomain.LedgerTypeCustomer, invoice.ClientID).
		Return(decimal.Zero, nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *settlementdomain.LedgerEntry) bool {
		return entry.LedgerType == settlementdomain.LedgerTypeCustomer &&
			entry.TransactionType == settlementdomain.LedgerTxnInvoicePayment &&
			entry.Credit.Equal(decimal.NewFromInt(40000))
	})).Return(nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(40000),
		Method:    billing.PaymentMethodBankTransfer,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartiallyPaid, result.InvoiceStatus)
	assert.True(t, result.RemainingAmount.Equal(decimal.NewFromInt(60000)))
	assert.False(t, result.ExcessFlagged)
	invoiceRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
}

func TestRecordPayment_FullPaymentSettles(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	invoice := issuedInvoice(t, 250000, time.Now().AddDate(0, 1, 0))

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(250000),
		Method:    billing.PaymentMethodUPI,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, result.InvoiceStatus)
	assert.True(t, result.RemainingAmount.IsZero())
}

func TestRecordPayment_ExcessFlagsInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	invoice := issuedInvoice(t, 50000, time.Now().AddDate(0, 1, 0))

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(60000),
		Method:    billing.PaymentMethodCash,
	})

	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, result.InvoiceStatus)
	assert.True(t, result.ExcessFlagged)
	assert.True(t, result.RemainingAmount.IsZero())
}

func TestRecordPayment_InvoiceNotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	missingID := uuid.New()
	invoiceRepo.On("FindByIDForUpdate", mock.Anything, missingID).Return(nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: missingID,
		Amount:    decimal.NewFromInt(1000),
		Method:    billing.PaymentMethodCash,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_NOT_FOUND", domainErr.Code)
}

func TestRecordPayment_RejectedOnDraftInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	draft, err := billing.NewInvoice(
		uuid.New(), uuid.New(), "Asha Mehta", billing.InvoiceTypeTax, billing.TriggerManual,
		valueobject.NewMoneyINRFromFloat(10000), valueobject.ZeroINR(),
		time.Now().AddDate(0, 1, 0),
	)
	require.NoError(t, err)

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, draft.ID).Return(draft, nil)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: draft.ID,
		Amount:    decimal.NewFromInt(10000),
		Method:    billing.PaymentMethodCash,
	})

	require.Error(t, err)
	paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordPayment_WritesShareOneUnitOfWork(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	ledgerRepo := new(MockLedgerRepository)
	scope := &countingScope{inner: NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, ledgerRepo)}
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	invoice := issuedInvoice(t, 100000, time.Now().AddDate(0, 1, 0))
	saveErr := errors.New("connection reset")

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(saveErr)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(40000),
		Method:    billing.PaymentMethodBankTransfer,
	})

	// The invoice write and the failed payment write ran in the same unit of
	// work, and the failure surfaced from it, so a real scope rolls both back.
	require.Error(t, err)
	require.ErrorIs(t, err, saveErr)
	assert.Equal(t, 1, scope.executed)
	require.Error(t, scope.lastErr)
	assert.ErrorIs(t, scope.lastErr, saveErr)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRecordPayment_AdvancesLinkedInstallment(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	schedule, err := billing.NewPaymentSchedule(
		uuid.New(), billing.PlanTypeTimeBased,
		valueobject.NewMoneyINRFromFloat(1000000), valueobject.ZeroINR(),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		billing.FrequencyMonthly, 0, 4, nil,
	)
	require.NoError(t, err)
	require.NoError(t, schedule.GenerateInstallments(valueobject.NewMoneyINRFromFloat(250000)))
	require.NoError(t, schedule.Activate())
	schedule.ClearDomainEvents()

	invoice := issuedInvoice(t, 250000, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, invoice.LinkInstallment(schedule.ID, 1))
	require.NoError(t, schedule.LinkInvoice(1, invoice.ID))

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)
	scheduleRepo.On("FindByIDForUpdate", mock.Anything, schedule.ID).Return(schedule, nil)
	scheduleRepo.On("SaveWithLock", mock.Anything, schedule, mock.AnythingOfType("int")).Return(nil)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(250000),
		Method:    billing.PaymentMethodBankTransfer,
	})

	require.NoError(t, err)
	inst, ok := schedule.FindInstallment(1)
	require.True(t, ok)
	assert.True(t, inst.IsPaid)
	assert.True(t, inst.PaidAmount.Equal(decimal.NewFromInt(250000)))
	scheduleRepo.AssertExpectations(t)
}

func TestRecordPayment_ExcessNeverOverrunsInstallment(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	scheduleRepo := new(MockScheduleRepository)
	scope := NewNoOpTransactionScope(invoiceRepo, paymentRepo, scheduleRepo, nil)
	svc := NewPaymentRecorderService(scope, paymentRepo, nil)

	schedule, err := billing.NewPaymentSchedule(
		uuid.New(), billing.PlanTypeTimeBased,
		valueobject.NewMoneyINRFromFloat(100000), valueobject.ZeroINR(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		billing.FrequencyMonthly, 0, 2, nil,
	)
	require.NoError(t, err)
	require.NoError(t, schedule.GenerateInstallments(valueobject.NewMoneyINRFromFloat(50000)))
	require.NoError(t, schedule.Activate())
	schedule.ClearDomainEvents()

	invoice := issuedInvoice(t, 50000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, invoice.LinkInstallment(schedule.ID, 1))
	require.NoError(t, schedule.LinkInvoice(1, invoice.ID))

	invoiceRepo.On("FindByIDForUpdate", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)
	paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)
	scheduleRepo.On("FindByIDForUpdate", mock.Anything, schedule.ID).Return(schedule, nil)
	scheduleRepo.On("SaveWithLock", mock.Anything, schedule, mock.AnythingOfType("int")).Return(nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    decimal.NewFromInt(55000),
		Method:    billing.PaymentMethodCheque,
	})

	require.NoError(t, err)
	assert.True(t, result.ExcessFlagged)
	inst, ok := schedule.FindInstallment(1)
	require.True(t, ok)
	// The installment only ever absorbs its own amount
	assert.True(t, inst.PaidAmount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, inst.IsPaid)
}

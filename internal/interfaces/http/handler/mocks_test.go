package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/domain/settlement"
)

// MockScheduleRepository implements billing.PaymentScheduleRepository for testing
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.PaymentSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]billing.PaymentSchedule, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]billing.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindAll(ctx context.Context, filter billing.ScheduleFilter) ([]billing.PaymentSchedule, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]billing.PaymentSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Count(ctx context.Context, filter billing.ScheduleFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScheduleRepository) Save(ctx context.Context, schedule *billing.PaymentSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) SaveWithLock(ctx context.Context, schedule *billing.PaymentSchedule, expectedVersion int) error {
	args := m.Called(ctx, schedule, expectedVersion)
	return args.Error(0)
}

// MockInvoiceRepository implements billing.InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByDeal(ctx context.Context, dealID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, dealID, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindSweepCandidates(ctx context.Context, asOf time.Time, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice, expectedVersion int) error {
	args := m.Called(ctx, invoice, expectedVersion)
	return args.Error(0)
}

// MockPaymentRepository implements billing.PaymentRepository for testing
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByNumber(ctx context.Context, paymentNumber string) (*billing.Payment, error) {
	args := m.Called(ctx, paymentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindUnmatchedByExternalRef(ctx context.Context, externalRef string) ([]billing.Payment, error) {
	args := m.Called(ctx, externalRef)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter billing.PaymentFilter) ([]billing.Payment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter billing.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockCommissionRepository implements commission.CommissionRepository for testing
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]commission.Commission, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter commission.CommissionFilter) ([]commission.Commission, error) {
	args := m.Called(ctx, agentID, filter)
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindAll(ctx context.Context, filter commission.CommissionFilter) ([]commission.Commission, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) Count(ctx context.Context, filter commission.CommissionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommissionRepository) Save(ctx context.Context, comm *commission.Commission) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

func (m *MockCommissionRepository) SaveWithLock(ctx context.Context, comm *commission.Commission, expectedVersion int) error {
	args := m.Called(ctx, comm, expectedVersion)
	return args.Error(0)
}

// MockAgentDirectory implements commission.AgentDirectory for testing
type MockAgentDirectory struct {
	mock.Mock
}

func (m *MockAgentDirectory) ActiveAgents(ctx context.Context) ([]commission.AgentCandidate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]commission.AgentCandidate), args.Error(1)
}

// MockRefundRepository implements settlement.RefundRepository for testing
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindByNumber(ctx context.Context, refundNumber string) (*settlement.Refund, error) {
	args := m.Called(ctx, refundNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]settlement.Refund, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindAll(ctx context.Context, filter settlement.RefundFilter) ([]settlement.Refund, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) Count(ctx context.Context, filter settlement.RefundFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefundRepository) Save(ctx context.Context, refund *settlement.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockRefundRepository) SaveWithLock(ctx context.Context, refund *settlement.Refund, expectedVersion int) error {
	args := m.Called(ctx, refund, expectedVersion)
	return args.Error(0)
}

// MockBookingPaymentRepository implements settlement.BookingPaymentRepository for testing
type MockBookingPaymentRepository struct {
	mock.Mock
}

func (m *MockBookingPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.BookingPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]settlement.BookingPayment, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) FindUnmatchedByReference(ctx context.Context, reference string) ([]settlement.BookingPayment, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) FindUnreconciled(ctx context.Context) ([]settlement.BookingPayment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) Save(ctx context.Context, payment *settlement.BookingPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockBankTransactionRepository implements settlement.BankTransactionRepository for testing
type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.BankTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.BankTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindPending(ctx context.Context, limit int) ([]settlement.BankTransaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]settlement.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindAll(ctx context.Context, filter settlement.BankTransactionFilter) ([]settlement.BankTransaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]settlement.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) Count(ctx context.Context, filter settlement.BankTransactionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankTransactionRepository) Save(ctx context.Context, txn *settlement.BankTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockBankTransactionRepository) SaveWithLock(ctx context.Context, txn *settlement.BankTransaction, expectedVersion int) error {
	args := m.Called(ctx, txn, expectedVersion)
	return args.Error(0)
}

// MockLedgerRepository implements settlement.LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByScope(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	args := m.Called(ctx, ledgerType, scopeID, filter)
	return args.Get(0).([]settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Count(ctx context.Context, filter settlement.LedgerFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) LastBalance(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, ledgerType, scopeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *settlement.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

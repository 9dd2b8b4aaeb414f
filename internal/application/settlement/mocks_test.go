package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	billingdomain "github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Refund), args.Error(1)
}

func (m *MockRefundRepository) FindAll(ctx context.Context, filter settlement.RefundFilter) ([]settlement.Refund, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindAll(ctx context.Context, filter settlement.BankTransactionFilter) ([]settlement.BankTransaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) FindUnmatchedByReference(ctx context.Context, reference string) ([]settlement.BookingPayment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) FindUnreconciled(ctx context.Context) ([]settlement.BookingPayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.BookingPayment), args.Error(1)
}

func (m *MockBookingPaymentRepository) Save(ctx context.Context, payment *settlement.BookingPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billingdomain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingdomain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByNumber(ctx context.Context, paymentNumber string) (*billingdomain.Payment, error) {
	args := m.Called(ctx, paymentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingdomain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billingdomain.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingdomain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindUnmatchedByExternalRef(ctx context.Context, externalRef string) ([]billingdomain.Payment, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingdomain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter billingdomain.PaymentFilter) ([]billingdomain.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billingdomain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter billingdomain.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billingdomain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

var _ settlement.LedgerRepository = (*MockLedgerRepository)(nil)
var _ settlement.RefundRepository = (*MockRefundRepository)(nil)
var _ settlement.BankTransactionRepository = (*MockBankTransactionRepository)(nil)
var _ settlement.BookingPaymentRepository = (*MockBookingPaymentRepository)(nil)
var _ billingdomain.PaymentRepository = (*MockPaymentRepository)(nil)

package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// RefundFilter defines filtering options for refund queries
type RefundFilter struct {
	shared.Filter
	DealID   *uuid.UUID
	ClientID *uuid.UUID
	Status   *RefundStatus
}

// RefundRepository defines the interface for refund persistence
type RefundRepository interface {
	// FindByID finds a refund by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Refund, error)

	// FindByIDForUpdate finds a refund by ID taking a row lock; must be
	// called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Refund, error)

	// FindByNumber finds a refund by its refund number
	FindByNumber(ctx context.Context, refundNumber string) (*Refund, error)

	// FindByDeal finds the refunds belonging to a deal
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]Refund, error)

	// FindAll finds refunds with filtering
	FindAll(ctx context.Context, filter RefundFilter) ([]Refund, error)

	// Count counts refunds matching the filter
	Count(ctx context.Context, filter RefundFilter) (int64, error)

	// Save creates or updates a refund
	Save(ctx context.Context, refund *Refund) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, refund *Refund, expectedVersion int) error
}

// BookingPaymentRepository defines the interface for booking payment persistence
type BookingPaymentRepository interface {
	// FindByID finds a booking payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BookingPayment, error)

	// FindByDeal finds the booking payments belonging to a deal
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]BookingPayment, error)

	// FindUnmatchedByReference finds booking payments carrying the given bank
	// reference number or UTR that are not yet linked to any bank transaction
	FindUnmatchedByReference(ctx context.Context, reference string) ([]BookingPayment, error)

	// FindUnreconciled finds booking payments not yet linked by any bank transaction
	FindUnreconciled(ctx context.Context) ([]BookingPayment, error)

	// Save creates a booking payment; booking payments are immutable once created
	Save(ctx context.Context, payment *BookingPayment) error
}

// BankTransactionFilter defines filtering options for bank transaction queries
type BankTransactionFilter struct {
	shared.Filter
	Status   *ReconciliationStatus
	BankName *string
	From     *time.Time
	To       *time.Time
}

// BankTransactionRepository defines the interface for bank transaction persistence
type BankTransactionRepository interface {
	// FindByID finds a bank transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BankTransaction, error)

	// FindByIDForUpdate finds a bank transaction by ID taking a row lock;
	// must be called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BankTransaction, error)

	// FindPending finds transactions awaiting the automatic matching pass
	FindPending(ctx context.Context, limit int) ([]BankTransaction, error)

	// FindAll finds bank transactions with filtering
	FindAll(ctx context.Context, filter BankTransactionFilter) ([]BankTransaction, error)

	// Count counts bank transactions matching the filter
	Count(ctx context.Context, filter BankTransactionFilter) (int64, error)

	// Save creates or updates a bank transaction
	Save(ctx context.Context, txn *BankTransaction) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, txn *BankTransaction, expectedVersion int) error
}

// LedgerFilter defines filtering options for ledger queries
type LedgerFilter struct {
	shared.Filter
	LedgerType      *LedgerType
	ScopeID         *uuid.UUID
	TransactionType *LedgerTransactionType
	From            *time.Time
	To              *time.Time
}

// LedgerRepository defines the interface for the append-only ledger.
// Appends to the same scope must go through a serialized path so the
// balance chain never diverges.
type LedgerRepository interface {
	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)

	// FindByScope finds entries for one scope ordered by transaction date
	// descending then sequence descending
	FindByScope(ctx context.Context, ledgerType LedgerType, scopeID uuid.UUID, filter LedgerFilter) ([]LedgerEntry, error)

	// FindAll finds ledger entries with filtering
	FindAll(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)

	// Count counts ledger entries matching the filter
	Count(ctx context.Context, filter LedgerFilter) (int64, error)

	// LastBalance returns the balance of the most recent entry for a scope,
	// taking a lock on the scope's chain; must be called inside a transaction
	LastBalance(ctx context.Context, ledgerType LedgerType, scopeID uuid.UUID) (decimal.Decimal, error)

	// Append persists a new entry; entries are never updated or deleted
	Append(ctx context.Context, entry *LedgerEntry) error
}

package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// LedgerType identifies the entity a running balance is tracked against
type LedgerType string

const (
	LedgerTypeCustomer LedgerType = "CUSTOMER"
	LedgerTypeUnit     LedgerType = "UNIT"
	LedgerTypeProject  LedgerType = "PROJECT"
)

// IsValid checks if the ledger type is valid
func (t LedgerType) IsValid() bool {
	return t == LedgerTypeCustomer || t == LedgerTypeUnit || t == LedgerTypeProject
}

// String returns the string representation of LedgerType
func (t LedgerType) String() string {
	return string(t)
}

// LedgerTransactionType describes what produced a ledger entry
type LedgerTransactionType string

const (
	LedgerTxnBookingPayment   LedgerTransactionType = "BOOKING_PAYMENT"
	LedgerTxnInvoicePayment   LedgerTransactionType = "INVOICE_PAYMENT"
	LedgerTxnRefund           LedgerTransactionType = "REFUND"
	LedgerTxnCommissionPayout LedgerTransactionType = "COMMISSION_PAYOUT"
	LedgerTxnAdjustment       LedgerTransactionType = "ADJUSTMENT"
)

// IsValid checks if the transaction type is valid
func (t LedgerTransactionType) IsValid() bool {
	switch t {
	case LedgerTxnBookingPayment, LedgerTxnInvoicePayment, LedgerTxnRefund,
		LedgerTxnCommissionPayout, LedgerTxnAdjustment:
		return true
	}
	return false
}

// LedgerEntry is one append-only line in a scope's running balance.
// Entries are never updated or deleted; corrections are new offsetting
// entries. Balance is previous balance plus credit minus debit.
type LedgerEntry struct {
	shared.BaseEntity
	LedgerType      LedgerType            `json:"ledger_type"`
	ScopeID         uuid.UUID             `json:"scope_id"`
	TransactionType LedgerTransactionType `json:"transaction_type"`
	TransactionDate time.Time             `json:"transaction_date"`
	Debit           decimal.Decimal       `json:"debit"`
	Credit          decimal.Decimal       `json:"credit"`
	Balance         decimal.Decimal       `json:"balance"`
	Description     string                `json:"description"`
	SourceID        *uuid.UUID            `json:"source_id,omitempty"` // The payment/refund/commission that produced this line
	Sequence        int64                 `json:"sequence"`            // Per-scope insertion order, assigned on persist
}

// NewLedgerEntry appends one line to a scope's balance chain. Exactly one
// of debit or credit must be positive; previousBalance is the balance of
// the scope's most recent entry.
func NewLedgerEntry(
	ledgerType LedgerType,
	scopeID uuid.UUID,
	transactionType LedgerTransactionType,
	transactionDate time.Time,
	debit valueobject.Money,
	credit valueobject.Money,
	previousBalance decimal.Decimal,
	description string,
	sourceID *uuid.UUID,
) (*LedgerEntry, error) {
	if !ledgerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_LEDGER_TYPE", "Ledger type is not valid")
	}
	if scopeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Scope ID cannot be empty")
	}
	if !transactionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type is not valid")
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction date is required")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Debit and credit cannot be negative")
	}
	if debit.IsZero() == credit.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Exactly one of debit or credit must be positive")
	}

	balance := previousBalance.Add(credit.Amount()).Sub(debit.Amount())

	return &LedgerEntry{
		BaseEntity:      shared.NewBaseEntity(),
		LedgerType:      ledgerType,
		ScopeID:         scopeID,
		TransactionType: transactionType,
		TransactionDate: transactionDate,
		Debit:           debit.Amount(),
		Credit:          credit.Amount(),
		Balance:         balance,
		Description:     description,
		SourceID:        sourceID,
	}, nil
}

// SignedAmount returns credit minus debit for this entry
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// ReplayBalances recomputes the balance chain for entries already ordered
// by (transaction_date, sequence) and reports whether every stored balance
// matches the recomputed one.
func ReplayBalances(entries []LedgerEntry) (consistent bool, divergentIndex int) {
	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].SignedAmount())
		if !entries[i].Balance.Equal(running) {
			return false, i
		}
	}
	return true, -1
}

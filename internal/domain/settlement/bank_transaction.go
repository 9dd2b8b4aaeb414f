package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// ReconciliationStatus represents the matching state of a bank transaction
type ReconciliationStatus string

const (
	ReconciliationStatusPending   ReconciliationStatus = "PENDING"   // Not yet examined or ambiguous
	ReconciliationStatusMatched   ReconciliationStatus = "MATCHED"   // Linked to exactly one internal record
	ReconciliationStatusUnmatched ReconciliationStatus = "UNMATCHED" // Examined, no candidate found
)

// IsValid checks if the status is a valid ReconciliationStatus
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconciliationStatusPending, ReconciliationStatusMatched, ReconciliationStatusUnmatched:
		return true
	}
	return false
}

// String returns the string representation of ReconciliationStatus
func (s ReconciliationStatus) String() string {
	return string(s)
}

// MatchedRecordType identifies what a bank transaction was matched against
type MatchedRecordType string

const (
	MatchedRecordPayment MatchedRecordType = "PAYMENT"
	MatchedRecordBooking MatchedRecordType = "BOOKING_PAYMENT"
)

// BankTransaction is an externally reported bank feed entry awaiting
// reconciliation against internal payments or booking payments. Matching
// links exactly one record: payment XOR booking.
type BankTransaction struct {
	shared.BaseAggregateRoot
	Amount           decimal.Decimal      `json:"amount"`
	TransactionDate  time.Time            `json:"transaction_date"`
	ReferenceNumber  string               `json:"reference_number"`
	UTR              string               `json:"utr"`
	BankName         string               `json:"bank_name"`
	Status           ReconciliationStatus `json:"status"`
	MatchedPaymentID *uuid.UUID           `json:"matched_payment_id,omitempty"`
	MatchedBookingID *uuid.UUID           `json:"matched_booking_id,omitempty"`
	MatchedAt        *time.Time           `json:"matched_at"`
	MatchedBy        *uuid.UUID           `json:"matched_by"` // Set for manual matches only
	Remark           string               `json:"remark"`
}

// NewBankTransaction ingests one externally reported bank feed entry
func NewBankTransaction(
	amount valueobject.Money,
	transactionDate time.Time,
	referenceNumber string,
	utr string,
	bankName string,
) (*BankTransaction, error) {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Bank transaction amount must be positive")
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction date is required")
	}
	if referenceNumber == "" && utr == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "A reference number or UTR is required")
	}
	if bankName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Bank name cannot be empty")
	}

	bt := &BankTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Amount:            amount.Amount(),
		TransactionDate:   transactionDate,
		ReferenceNumber:   referenceNumber,
		UTR:               utr,
		BankName:          bankName,
		Status:            ReconciliationStatusPending,
	}

	bt.AddDomainEvent(NewBankTransactionIngestedEvent(bt))

	return bt, nil
}

// IsMatched returns true if the transaction is already linked to a record
func (bt *BankTransaction) IsMatched() bool {
	return bt.Status == ReconciliationStatusMatched
}

// MatchToPayment links the transaction to an internal payment.
// Re-matching an already matched transaction is rejected, never overwritten.
func (bt *BankTransaction) MatchToPayment(paymentID uuid.UUID, matchedBy *uuid.UUID) error {
	if bt.IsMatched() {
		return shared.NewDomainError("ALREADY_MATCHED", fmt.Sprintf("Bank transaction %s is already matched", bt.ID))
	}
	if paymentID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Payment ID cannot be empty")
	}

	now := time.Now()
	bt.Status = ReconciliationStatusMatched
	bt.MatchedPaymentID = &paymentID
	bt.MatchedBookingID = nil
	bt.MatchedAt = &now
	bt.MatchedBy = matchedBy
	bt.UpdatedAt = now
	bt.IncrementVersion()

	bt.AddDomainEvent(NewBankTransactionMatchedEvent(bt, MatchedRecordPayment, paymentID))

	return nil
}

// MatchToBooking links the transaction to an internal booking payment.
// Re-matching an already matched transaction is rejected, never overwritten.
func (bt *BankTransaction) MatchToBooking(bookingID uuid.UUID, matchedBy *uuid.UUID) error {
	if bt.IsMatched() {
		return shared.NewDomainError("ALREADY_MATCHED", fmt.Sprintf("Bank transaction %s is already matched", bt.ID))
	}
	if bookingID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Booking payment ID cannot be empty")
	}

	now := time.Now()
	bt.Status = ReconciliationStatusMatched
	bt.MatchedBookingID = &bookingID
	bt.MatchedPaymentID = nil
	bt.MatchedAt = &now
	bt.MatchedBy = matchedBy
	bt.UpdatedAt = now
	bt.IncrementVersion()

	bt.AddDomainEvent(NewBankTransactionMatchedEvent(bt, MatchedRecordBooking, bookingID))

	return nil
}

// MarkUnmatched records that the automatic pass examined the transaction
// and found no unique candidate. Idempotent; matched transactions are
// never downgraded.
func (bt *BankTransaction) MarkUnmatched() bool {
	if bt.IsMatched() || bt.Status == ReconciliationStatusUnmatched {
		return false
	}

	bt.Status = ReconciliationStatusUnmatched
	bt.UpdatedAt = time.Now()
	bt.IncrementVersion()

	return true
}

// GetAmountMoney returns the transaction amount as Money
func (bt *BankTransaction) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(bt.Amount)
}

// BankTransactionIngestedEvent is raised when a bank feed entry is recorded
type BankTransactionIngestedEvent struct {
	shared.BaseDomainEvent
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	UTR             string          `json:"utr"`
	BankName        string          `json:"bank_name"`
}

// EventType returns the event type name
func (e *BankTransactionIngestedEvent) EventType() string {
	return "BankTransactionIngested"
}

// NewBankTransactionIngestedEvent creates a new BankTransactionIngestedEvent
func NewBankTransactionIngestedEvent(bt *BankTransaction) *BankTransactionIngestedEvent {
	return &BankTransactionIngestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionIngested", "BankTransaction", bt.ID),
		Amount:          bt.Amount,
		ReferenceNumber: bt.ReferenceNumber,
		UTR:             bt.UTR,
		BankName:        bt.BankName,
	}
}

// BankTransactionMatchedEvent is raised when a transaction is reconciled
type BankTransactionMatchedEvent struct {
	shared.BaseDomainEvent
	Amount     decimal.Decimal   `json:"amount"`
	RecordType MatchedRecordType `json:"record_type"`
	RecordID   uuid.UUID         `json:"record_id"`
	Manual     bool              `json:"manual"`
}

// EventType returns the event type name
func (e *BankTransactionMatchedEvent) EventType() string {
	return "BankTransactionMatched"
}

// NewBankTransactionMatchedEvent creates a new BankTransactionMatchedEvent
func NewBankTransactionMatchedEvent(bt *BankTransaction, recordType MatchedRecordType, recordID uuid.UUID) *BankTransactionMatchedEvent {
	return &BankTransactionMatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BankTransactionMatched", "BankTransaction", bt.ID),
		Amount:          bt.Amount,
		RecordType:      recordType,
		RecordID:        recordID,
		Manual:          bt.MatchedBy != nil,
	}
}

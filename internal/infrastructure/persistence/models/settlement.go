package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// RefundModel is the persistence model for the Refund aggregate root.
type RefundModel struct {
	AggregateModel
	RefundNumber        string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	DealID              uuid.UUID                    `gorm:"type:uuid;not null;index"`
	ClientID            uuid.UUID                    `gorm:"type:uuid;not null;index"`
	SourceType          *settlement.RefundSourceType `gorm:"type:varchar(30)"`
	SourceID            *uuid.UUID                   `gorm:"type:uuid;index"`
	Amount              decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	CancellationCharges decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	NetRefundAmount     decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Reason              string                       `gorm:"type:varchar(500);not null"`
	Status              settlement.RefundStatus      `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy          *uuid.UUID                   `gorm:"type:uuid"`
	ApprovedAt          *time.Time
	ProcessedAt         *time.Time
	RejectedAt          *time.Time
	RejectionReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ToDomain converts the persistence model to a domain Refund entity.
func (m *RefundModel) ToDomain() *settlement.Refund {
	return &settlement.Refund{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		RefundNumber:        m.RefundNumber,
		DealID:              m.DealID,
		ClientID:            m.ClientID,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		Amount:              m.Amount,
		CancellationCharges: m.CancellationCharges,
		NetRefundAmount:     m.NetRefundAmount,
		Reason:              m.Reason,
		Status:              m.Status,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		ProcessedAt:         m.ProcessedAt,
		RejectedAt:          m.RejectedAt,
		RejectionReason:     m.RejectionReason,
	}
}

// FromDomain populates the persistence model from a domain Refund entity.
func (m *RefundModel) FromDomain(r *settlement.Refund) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RefundNumber = r.RefundNumber
	m.DealID = r.DealID
	m.ClientID = r.ClientID
	m.SourceType = r.SourceType
	m.SourceID = r.SourceID
	m.Amount = r.Amount
	m.CancellationCharges = r.CancellationCharges
	m.NetRefundAmount = r.NetRefundAmount
	m.Reason = r.Reason
	m.Status = r.Status
	m.ApprovedBy = r.ApprovedBy
	m.ApprovedAt = r.ApprovedAt
	m.ProcessedAt = r.ProcessedAt
	m.RejectedAt = r.RejectedAt
	m.RejectionReason = r.RejectionReason
}

// BookingPaymentModel is the persistence model for the BookingPayment aggregate root.
// Booking payments are immutable once written.
type BookingPaymentModel struct {
	AggregateModel
	PaymentNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	DealID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method          string          `gorm:"type:varchar(30);not null"`
	PaidAt          time.Time       `gorm:"not null;index"`
	ReferenceNumber string          `gorm:"type:varchar(100);index"`
	UTR             string          `gorm:"type:varchar(100);index"`
	Remark          string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BookingPaymentModel) TableName() string {
	return "booking_payments"
}

// ToDomain converts the persistence model to a domain BookingPayment entity.
func (m *BookingPaymentModel) ToDomain() *settlement.BookingPayment {
	return &settlement.BookingPayment{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PaymentNumber:   m.PaymentNumber,
		DealID:          m.DealID,
		ClientID:        m.ClientID,
		Amount:          m.Amount,
		Method:          m.Method,
		PaidAt:          m.PaidAt,
		ReferenceNumber: m.ReferenceNumber,
		UTR:             m.UTR,
		Remark:          m.Remark,
	}
}

// FromDomain populates the persistence model from a domain BookingPayment entity.
func (m *BookingPaymentModel) FromDomain(bp *settlement.BookingPayment) {
	m.FromDomainAggregateRoot(bp.BaseAggregateRoot)
	m.PaymentNumber = bp.PaymentNumber
	m.DealID = bp.DealID
	m.ClientID = bp.ClientID
	m.Amount = bp.Amount
	m.Method = bp.Method
	m.PaidAt = bp.PaidAt
	m.ReferenceNumber = bp.ReferenceNumber
	m.UTR = bp.UTR
	m.Remark = bp.Remark
}

// BankTransactionModel is the persistence model for the BankTransaction aggregate root.
type BankTransactionModel struct {
	AggregateModel
	Amount           decimal.Decimal                 `gorm:"type:decimal(18,4);not null"`
	TransactionDate  time.Time                       `gorm:"not null;index"`
	ReferenceNumber  string                          `gorm:"type:varchar(100);index"`
	UTR              string                          `gorm:"type:varchar(100);index"`
	BankName         string                          `gorm:"type:varchar(200)"`
	Status           settlement.ReconciliationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	MatchedPaymentID *uuid.UUID                      `gorm:"type:uuid;index"`
	MatchedBookingID *uuid.UUID                      `gorm:"type:uuid;index"`
	MatchedAt        *time.Time
	MatchedBy        *uuid.UUID `gorm:"type:uuid"`
	Remark           string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction entity.
func (m *BankTransactionModel) ToDomain() *settlement.BankTransaction {
	return &settlement.BankTransaction{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Amount:           m.Amount,
		TransactionDate:  m.TransactionDate,
		ReferenceNumber:  m.ReferenceNumber,
		UTR:              m.UTR,
		BankName:         m.BankName,
		Status:           m.Status,
		MatchedPaymentID: m.MatchedPaymentID,
		MatchedBookingID: m.MatchedBookingID,
		MatchedAt:        m.MatchedAt,
		MatchedBy:        m.MatchedBy,
		Remark:           m.Remark,
	}
}

// FromDomain populates the persistence model from a domain BankTransaction entity.
func (m *BankTransactionModel) FromDomain(txn *settlement.BankTransaction) {
	m.FromDomainAggregateRoot(txn.BaseAggregateRoot)
	m.Amount = txn.Amount
	m.TransactionDate = txn.TransactionDate
	m.ReferenceNumber = txn.ReferenceNumber
	m.UTR = txn.UTR
	m.BankName = txn.BankName
	m.Status = txn.Status
	m.MatchedPaymentID = txn.MatchedPaymentID
	m.MatchedBookingID = txn.MatchedBookingID
	m.MatchedAt = txn.MatchedAt
	m.MatchedBy = txn.MatchedBy
	m.Remark = txn.Remark
}

// LedgerEntryModel is the persistence model for append-only ledger entries.
// Sequence is assigned per scope on insert and never reused; entries are
// never updated or deleted.
type LedgerEntryModel struct {
	BaseModel
	LedgerType      settlement.LedgerType            `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_scope_seq,priority:1"`
	ScopeID         uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_scope_seq,priority:2"`
	Sequence        int64                            `gorm:"not null;uniqueIndex:idx_ledger_scope_seq,priority:3"`
	TransactionType settlement.LedgerTransactionType `gorm:"type:varchar(30);not null;index"`
	TransactionDate time.Time                        `gorm:"not null;index"`
	Debit           decimal.Decimal                  `gorm:"type:decimal(18,4);not null"`
	Credit          decimal.Decimal                  `gorm:"type:decimal(18,4);not null"`
	Balance         decimal.Decimal                  `gorm:"type:decimal(18,4);not null"`
	Description     string                           `gorm:"type:varchar(500)"`
	SourceID        *uuid.UUID                       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *settlement.LedgerEntry {
	return &settlement.LedgerEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		LedgerType:      m.LedgerType,
		ScopeID:         m.ScopeID,
		TransactionType: m.TransactionType,
		TransactionDate: m.TransactionDate,
		Debit:           m.Debit,
		Credit:          m.Credit,
		Balance:         m.Balance,
		Description:     m.Description,
		SourceID:        m.SourceID,
		Sequence:        m.Sequence,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry entity.
func (m *LedgerEntryModel) FromDomain(e *settlement.LedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.LedgerType = e.LedgerType
	m.ScopeID = e.ScopeID
	m.TransactionType = e.TransactionType
	m.TransactionDate = e.TransactionDate
	m.Debit = e.Debit
	m.Credit = e.Credit
	m.Balance = e.Balance
	m.Description = e.Description
	m.SourceID = e.SourceID
	m.Sequence = e.Sequence
}

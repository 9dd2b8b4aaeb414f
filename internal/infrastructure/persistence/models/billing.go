package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// PaymentScheduleModel is the persistence model for the PaymentSchedule aggregate root.
type PaymentScheduleModel struct {
	AggregateModel
	DealID             uuid.UUID              `gorm:"type:uuid;not null;index"`
	PlanType           billing.PlanType       `gorm:"type:varchar(30);not null"`
	TotalContractValue decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BookingAmount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	StartDate          time.Time              `gorm:"not null"`
	Frequency          billing.Frequency      `gorm:"type:varchar(20);not null"`
	IntervalMonths     int                    `gorm:"not null;default:0"`
	InstallmentCount   int                    `gorm:"not null"`
	ReminderOffsetDays pq.Int64Array          `gorm:"type:bigint[]"`
	Installments       billing.Installments   `gorm:"type:jsonb;default:'[]'"`
	Status             billing.ScheduleStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancelReason       string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentScheduleModel) TableName() string {
	return "payment_schedules"
}

// ToDomain converts the persistence model to a domain PaymentSchedule entity.
func (m *PaymentScheduleModel) ToDomain() *billing.PaymentSchedule {
	offsets := make([]int, len(m.ReminderOffsetDays))
	for i, d := range m.ReminderOffsetDays {
		offsets[i] = int(d)
	}
	return &billing.PaymentSchedule{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DealID:             m.DealID,
		PlanType:           m.PlanType,
		TotalContractValue: m.TotalContractValue,
		BookingAmount:      m.BookingAmount,
		StartDate:          m.StartDate,
		Frequency:          m.Frequency,
		IntervalMonths:     m.IntervalMonths,
		InstallmentCount:   m.InstallmentCount,
		ReminderOffsetDays: offsets,
		Installments:       m.Installments,
		Status:             m.Status,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain PaymentSchedule entity.
func (m *PaymentScheduleModel) FromDomain(ps *billing.PaymentSchedule) {
	m.FromDomainAggregateRoot(ps.BaseAggregateRoot)
	offsets := make(pq.Int64Array, len(ps.ReminderOffsetDays))
	for i, d := range ps.ReminderOffsetDays {
		offsets[i] = int64(d)
	}
	m.DealID = ps.DealID
	m.PlanType = ps.PlanType
	m.TotalContractValue = ps.TotalContractValue
	m.BookingAmount = ps.BookingAmount
	m.StartDate = ps.StartDate
	m.Frequency = ps.Frequency
	m.IntervalMonths = ps.IntervalMonths
	m.InstallmentCount = ps.InstallmentCount
	m.ReminderOffsetDays = offsets
	m.Installments = ps.Installments
	m.Status = ps.Status
	m.CompletedAt = ps.CompletedAt
	m.CancelledAt = ps.CancelledAt
	m.CancelReason = ps.CancelReason
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	DealID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	ClientID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	ClientName        string               `gorm:"type:varchar(200);not null"`
	Type              billing.InvoiceType  `gorm:"type:varchar(20);not null;default:'TAX'"`
	UnitID            *uuid.UUID           `gorm:"type:uuid;index"`
	ProjectID         *uuid.UUID           `gorm:"type:uuid;index"`
	TriggerPoint      billing.TriggerPoint `gorm:"type:varchar(30);not null"`
	BaseAmount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TaxAmount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalAmount       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	DueDate           time.Time            `gorm:"not null;index"`
	Status            billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ScheduleID        *uuid.UUID           `gorm:"type:uuid;index"`
	InstallmentSeq    *int
	ExcessFlagged     bool `gorm:"not null;default:false"`
	EmailSent         bool `gorm:"not null;default:false"`
	EmailSentAt       *time.Time
	WhatsappSent      bool `gorm:"not null;default:false"`
	WhatsappSentAt    *time.Time
	Remark            string `gorm:"type:text"`
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
	PaidAt            *time.Time
	DueSoonWindowDays int `gorm:"not null;default:7"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		InvoiceNumber:     m.InvoiceNumber,
		DealID:            m.DealID,
		ClientID:          m.ClientID,
		ClientName:        m.ClientName,
		Type:              m.Type,
		UnitID:            m.UnitID,
		ProjectID:         m.ProjectID,
		TriggerPoint:      m.TriggerPoint,
		BaseAmount:        m.BaseAmount,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		ScheduleID:        m.ScheduleID,
		InstallmentSeq:    m.InstallmentSeq,
		ExcessFlagged:     m.ExcessFlagged,
		EmailSent:         m.EmailSent,
		EmailSentAt:       m.EmailSentAt,
		WhatsappSent:      m.WhatsappSent,
		WhatsappSentAt:    m.WhatsappSentAt,
		Remark:            m.Remark,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		PaidAt:            m.PaidAt,
		DueSoonWindowDays: m.DueSoonWindowDays,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.DealID = inv.DealID
	m.ClientID = inv.ClientID
	m.ClientName = inv.ClientName
	m.Type = inv.Type
	m.UnitID = inv.UnitID
	m.ProjectID = inv.ProjectID
	m.TriggerPoint = inv.TriggerPoint
	m.BaseAmount = inv.BaseAmount
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.ScheduleID = inv.ScheduleID
	m.InstallmentSeq = inv.InstallmentSeq
	m.ExcessFlagged = inv.ExcessFlagged
	m.EmailSent = inv.EmailSent
	m.EmailSentAt = inv.EmailSentAt
	m.WhatsappSent = inv.WhatsappSent
	m.WhatsappSentAt = inv.WhatsappSentAt
	m.Remark = inv.Remark
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.PaidAt = inv.PaidAt
	m.DueSoonWindowDays = inv.DueSoonWindowDays
}

// PaymentModel is the persistence model for the Payment aggregate root.
// Payments are immutable once written.
type PaymentModel struct {
	AggregateModel
	PaymentNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	DealID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Method        billing.PaymentMethod `gorm:"type:varchar(30);not null"`
	PaidAt        time.Time             `gorm:"not null;index"`
	ExternalRef   string                `gorm:"type:varchar(100);index"`
	Remark        string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PaymentNumber: m.PaymentNumber,
		InvoiceID:     m.InvoiceID,
		DealID:        m.DealID,
		Amount:        m.Amount,
		Method:        m.Method,
		PaidAt:        m.PaidAt,
		ExternalRef:   m.ExternalRef,
		Remark:        m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.InvoiceID = p.InvoiceID
	m.DealID = p.DealID
	m.Amount = p.Amount
	m.Method = p.Method
	m.PaidAt = p.PaidAt
	m.ExternalRef = p.ExternalRef
	m.Remark = p.Remark
}

package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// ScheduleFilter defines filtering options for payment schedule queries
type ScheduleFilter struct {
	shared.Filter
	DealID   *uuid.UUID
	PlanType *PlanType
	Status   *ScheduleStatus
}

// PaymentScheduleRepository defines the interface for payment schedule persistence
type PaymentScheduleRepository interface {
	// FindByID finds a schedule by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentSchedule, error)

	// FindByIDForUpdate finds a schedule by ID taking a row lock; must be
	// called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PaymentSchedule, error)

	// FindByDeal finds the schedules belonging to a deal
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]PaymentSchedule, error)

	// FindAll finds schedules with filtering
	FindAll(ctx context.Context, filter ScheduleFilter) ([]PaymentSchedule, error)

	// Count counts schedules matching the filter
	Count(ctx context.Context, filter ScheduleFilter) (int64, error)

	// Save creates or updates a payment schedule
	Save(ctx context.Context, schedule *PaymentSchedule) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, schedule *PaymentSchedule, expectedVersion int) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	DealID       *uuid.UUID
	ClientID     *uuid.UUID
	Status       *InvoiceStatus
	TriggerPoint *TriggerPoint
	DueFrom      *time.Time
	DueTo        *time.Time
	Overdue      *bool
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice by ID taking a row lock; must be
	// called inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindByDeal finds the invoices belonging to a deal
	FindByDeal(ctx context.Context, dealID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindAll finds invoices with filtering
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)

	// FindSweepCandidates finds non-terminal, non-administrative invoices
	// past their due date that are not yet marked Overdue as of the given time
	FindSweepCandidates(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice, expectedVersion int) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	DealID    *uuid.UUID
	Method    *PaymentMethod
	From      *time.Time
	To        *time.Time
	Unmatched *bool // Payments not yet linked by a bank reconciliation
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByNumber finds a payment by its payment number
	FindByNumber(ctx context.Context, paymentNumber string) (*Payment, error)

	// FindByInvoice finds all payments recorded against an invoice
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// FindUnmatchedByExternalRef finds payments carrying the given bank reference or UTR
	// that are not yet linked to any bank transaction
	FindUnmatchedByExternalRef(ctx context.Context, externalRef string) ([]Payment, error)

	// FindAll finds payments with filtering
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// Save creates a payment record; payments are immutable once created
	Save(ctx context.Context, payment *Payment) error
}

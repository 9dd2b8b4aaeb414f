package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	DealID        uuid.UUID       `json:"deal_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	TriggerPoint  TriggerPoint    `json:"trigger_point"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		DealID:          inv.DealID,
		ClientID:        inv.ClientID,
		TriggerPoint:    inv.TriggerPoint,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceIssuedEvent is raised when an invoice leaves Draft
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *InvoiceIssuedEvent) EventType() string {
	return "InvoiceIssued"
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceIssued", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ClientID:        inv.ClientID,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePartiallyPaidEvent is raised when a payment leaves a balance outstanding
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber   string          `json:"invoice_number"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *InvoicePartiallyPaidEvent) EventType() string {
	return "InvoicePartiallyPaid"
}

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(inv *Invoice, payment valueobject.Money) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePartiallyPaid", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentAmount:   payment.Amount(),
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount(),
	}
}

// InvoicePaidEvent is raised when an invoice becomes fully paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		ClientID:        inv.ClientID,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
	}
}

// InvoiceOverdueEvent is raised when the sweep or a re-evaluation moves an
// invoice into Overdue
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber   string          `json:"invoice_number"`
	PreviousStatus  InvoiceStatus   `json:"previous_status"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *InvoiceOverdueEvent) EventType() string {
	return "InvoiceOverdue"
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice, previous InvoiceStatus) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceOverdue", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		PreviousStatus:  previous,
		RemainingAmount: inv.RemainingAmount(),
	}
}

// InvoiceExcessPaymentEvent is raised when payments exceed the invoice total;
// the excess is held for manual review rather than auto-refunded
type InvoiceExcessPaymentEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	ExcessAmount  decimal.Decimal `json:"excess_amount"`
}

// EventType returns the event type name
func (e *InvoiceExcessPaymentEvent) EventType() string {
	return "InvoiceExcessPayment"
}

// NewInvoiceExcessPaymentEvent creates a new InvoiceExcessPaymentEvent
func NewInvoiceExcessPaymentEvent(inv *Invoice, payment valueobject.Money) *InvoiceExcessPaymentEvent {
	return &InvoiceExcessPaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceExcessPayment", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentAmount:   payment.Amount(),
		ExcessAmount:    inv.PaidAmount.Sub(inv.TotalAmount),
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          inv.CancelReason,
	}
}

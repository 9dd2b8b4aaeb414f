package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"          // Administrative, not yet issued
	InvoiceStatusSent          InvoiceStatus = "SENT"           // Issued to the client, awaiting derivation
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"         // No payments, due date not imminent
	InvoiceStatusDue           InvoiceStatus = "DUE"            // No payments, due within the look-ahead window
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID" // 0 < paid < total
	InvoiceStatusPaid          InvoiceStatus = "PAID"           // paid >= total (terminal)
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"        // No full payment past the due date
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"      // Administrative (terminal)
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusUnpaid, InvoiceStatusDue,
		InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// IsAdministrative returns true for states entered only by explicit action,
// never by payment-derived rules
func (s InvoiceStatus) IsAdministrative() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusCancelled
}

// CanApplyPayment returns true if payments can be recorded in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return !s.IsTerminal() && s != InvoiceStatusDraft
}

// InvoiceType distinguishes the fiscal nature of the document
type InvoiceType string

const (
	InvoiceTypeTax      InvoiceType = "TAX"      // Regular GST invoice
	InvoiceTypeProforma InvoiceType = "PROFORMA" // Quotation, carries no fiscal liability
	InvoiceTypeBooking  InvoiceType = "BOOKING"  // Booking amount receipt invoice
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeTax, InvoiceTypeProforma, InvoiceTypeBooking:
		return true
	}
	return false
}

// TaxConfig describes how tax is derived from an invoiced amount.
// Rate is a percentage; Inclusive means the quoted amount already
// carries the tax inside it.
type TaxConfig struct {
	Rate      decimal.Decimal `json:"rate"`
	Inclusive bool            `json:"inclusive"`
}

// Apply splits an amount into its base and tax components under the config.
// For exclusive rates tax is added on top of the amount; for inclusive
// rates it is carved out of it.
func (tc TaxConfig) Apply(amount decimal.Decimal) (base, tax decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	if tc.Inclusive {
		base = amount.Mul(hundred).Div(hundred.Add(tc.Rate)).Round(2)
		tax = amount.Sub(base)
		return base, tax
	}
	return amount, amount.Mul(tc.Rate).Div(hundred).Round(2)
}

// TriggerPoint identifies what caused an invoice to be generated
type TriggerPoint string

const (
	TriggerDealClosed          TriggerPoint = "DEAL_CLOSED"
	TriggerBookingConfirmation TriggerPoint = "BOOKING_CONFIRMATION"
	TriggerMilestoneReached    TriggerPoint = "MILESTONE_REACHED"
	TriggerManual              TriggerPoint = "MANUAL"
	TriggerRecurring           TriggerPoint = "RECURRING"
)

// IsValid checks if the trigger point is valid
func (t TriggerPoint) IsValid() bool {
	switch t {
	case TriggerDealClosed, TriggerBookingConfirmation, TriggerMilestoneReached, TriggerManual, TriggerRecurring:
		return true
	}
	return false
}

// DefaultDueSoonWindowDays is the look-ahead within which an unpaid invoice
// is reported as Due rather than Unpaid
const DefaultDueSoonWindowDays = 3

// NewInvoiceNumber generates an invoice number of the form INV-YYYYMMDD-XXXXXXXX
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

// DeriveInvoiceStatus computes the payment-derived status from the amounts
// and dates alone. It is a pure function: same inputs, same status.
func DeriveInvoiceStatus(paidAmount, totalAmount decimal.Decimal, dueDate, today time.Time, dueSoonWindowDays int) InvoiceStatus {
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return InvoiceStatusPaid
	}
	if paidAmount.GreaterThan(decimal.Zero) {
		return InvoiceStatusPartiallyPaid
	}

	due := dateOnly(dueDate)
	now := dateOnly(today)
	if due.Before(now) {
		return InvoiceStatusOverdue
	}
	if !due.After(now.AddDate(0, 0, dueSoonWindowDays)) {
		return InvoiceStatusDue
	}
	return InvoiceStatusUnpaid
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Invoice is a billing document requesting payment of a specific amount by a
// due date. Status is always recomputed from payment and date state; it is
// never set ad hoc outside Draft/Cancelled administration.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber     string          `json:"invoice_number"`
	DealID            uuid.UUID       `json:"deal_id"`
	ClientID          uuid.UUID       `json:"client_id"`
	ClientName        string          `json:"client_name"`
	Type              InvoiceType     `json:"type"`
	UnitID            *uuid.UUID      `json:"unit_id,omitempty"`    // Unit the invoice bills, when known
	ProjectID         *uuid.UUID      `json:"project_id,omitempty"` // Project the unit belongs to
	TriggerPoint      TriggerPoint    `json:"trigger_point"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	DueDate           time.Time       `json:"due_date"`
	Status            InvoiceStatus   `json:"status"`
	ScheduleID        *uuid.UUID      `json:"schedule_id"`          // Schedule whose installment this invoice bills
	InstallmentSeq    *int            `json:"installment_sequence"` // Sequence within the linked schedule
	ExcessFlagged     bool            `json:"excess_flagged"`       // Overpayment held for manual review
	EmailSent         bool            `json:"email_sent"`
	EmailSentAt       *time.Time      `json:"email_sent_at"`
	WhatsappSent      bool            `json:"whatsapp_sent"`
	WhatsappSentAt    *time.Time      `json:"whatsapp_sent_at"`
	Remark            string          `json:"remark"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	CancelReason      string          `json:"cancel_reason"`
	PaidAt            *time.Time      `json:"paid_at"`
	DueSoonWindowDays int             `json:"due_soon_window_days"`
}

// NewInvoice creates a new invoice in Draft status
func NewInvoice(
	dealID uuid.UUID,
	clientID uuid.UUID,
	clientName string,
	invoiceType InvoiceType,
	triggerPoint TriggerPoint,
	baseAmount valueobject.Money,
	taxAmount valueobject.Money,
	dueDate time.Time,
) (*Invoice, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if clientName == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type is not valid")
	}
	if !triggerPoint.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRIGGER_POINT", "Trigger point is not valid")
	}
	if baseAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Base amount must be positive")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	now := time.Now()
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     NewInvoiceNumber(now),
		DealID:            dealID,
		ClientID:          clientID,
		ClientName:        clientName,
		Type:              invoiceType,
		TriggerPoint:      triggerPoint,
		BaseAmount:        baseAmount.Amount(),
		TaxAmount:         taxAmount.Amount(),
		TotalAmount:       baseAmount.Amount().Add(taxAmount.Amount()),
		PaidAmount:        decimal.Zero,
		DueDate:           dueDate,
		Status:            InvoiceStatusDraft,
		DueSoonWindowDays: DefaultDueSoonWindowDays,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// LinkInstallment ties the invoice to one installment of a payment schedule
func (inv *Invoice) LinkInstallment(scheduleID uuid.UUID, sequence int) error {
	if scheduleID == uuid.Nil {
		return shared.NewDomainError("INVALID_SCHEDULE", "Schedule ID cannot be empty")
	}
	if sequence <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Installment sequence must be positive")
	}
	if inv.ScheduleID != nil {
		return shared.NewDomainError("ALREADY_EXISTS", "Invoice is already linked to an installment")
	}

	inv.ScheduleID = &scheduleID
	inv.InstallmentSeq = &sequence
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// Issue moves the invoice out of Draft so that payment-derived status rules
// apply to it from now on
func (inv *Invoice) Issue() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue invoice in %s status", inv.Status))
	}

	inv.Status = InvoiceStatusSent
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// ReevaluateStatus recomputes the payment-derived status as of the given
// time. Draft and Cancelled are administrative states and are never touched.
// Recomputing from unchanged inputs is a no-op.
func (inv *Invoice) ReevaluateStatus(asOf time.Time) bool {
	if inv.Status.IsAdministrative() {
		return false
	}

	window := inv.DueSoonWindowDays
	if window <= 0 {
		window = DefaultDueSoonWindowDays
	}
	derived := DeriveInvoiceStatus(inv.PaidAmount, inv.TotalAmount, inv.DueDate, asOf, window)
	if derived == inv.Status {
		return false
	}

	previous := inv.Status
	inv.Status = derived
	if derived == InvoiceStatusPaid && inv.PaidAt == nil {
		now := time.Now()
		inv.PaidAt = &now
	}
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	if derived == InvoiceStatusOverdue {
		inv.AddDomainEvent(NewInvoiceOverdueEvent(inv, previous))
	}

	return true
}

// ApplyPayment adds a payment amount and recomputes the derived status.
// An amount beyond the outstanding balance is accepted but flags the
// invoice for manual review; excess is never auto-refunded.
func (inv *Invoice) ApplyPayment(amount valueobject.Money, asOf time.Time) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())
	if inv.PaidAmount.GreaterThan(inv.TotalAmount) && !inv.ExcessFlagged {
		inv.ExcessFlagged = true
		inv.AddDomainEvent(NewInvoiceExcessPaymentEvent(inv, amount))
	}

	previous := inv.Status
	window := inv.DueSoonWindowDays
	if window <= 0 {
		window = DefaultDueSoonWindowDays
	}
	inv.Status = DeriveInvoiceStatus(inv.PaidAmount, inv.TotalAmount, inv.DueDate, asOf, window)
	if inv.Status == InvoiceStatusPaid {
		now := time.Now()
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else if inv.Status != previous || inv.Status == InvoiceStatusPartiallyPaid {
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amount))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// Cancel cancels the invoice; not allowed once payments have been applied
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if inv.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel invoice with recorded payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// MarkEmailSent records that the notification collaborator delivered the
// invoice by email
func (inv *Invoice) MarkEmailSent(at time.Time) {
	inv.EmailSent = true
	inv.EmailSentAt = &at
	inv.UpdatedAt = time.Now()
}

// MarkWhatsappSent records that the notification collaborator delivered the
// invoice over WhatsApp
func (inv *Invoice) MarkWhatsappSent(at time.Time) {
	inv.WhatsappSent = true
	inv.WhatsappSentAt = &at
	inv.UpdatedAt = time.Now()
}

// RemainingAmount returns the outstanding balance; never negative
func (inv *Invoice) RemainingAmount() decimal.Decimal {
	remaining := inv.TotalAmount.Sub(inv.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// GetTotalAmountMoney returns the total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.TotalAmount)
}

// GetRemainingAmountMoney returns the outstanding balance as Money
func (inv *Invoice) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.RemainingAmount())
}

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

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheque, PaymentMethodBankTransfer,
		PaymentMethodUPI, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// NewPaymentNumber generates a payment number of the form PAY-YYYYMMDD-XXXXXXXX
func NewPaymentNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), suffix)
}

// Payment records money received against exactly one invoice. It is
// immutable once created; corrections are new Payments or Refunds.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	DealID        uuid.UUID       `json:"deal_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	PaidAt        time.Time       `json:"paid_at"`
	ExternalRef   string          `json:"external_ref"` // Bank reference / UTR, if any
	Remark        string          `json:"remark"`
}

// NewPayment creates a new payment record
func NewPayment(
	invoiceID uuid.UUID,
	dealID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	paidAt time.Time,
	externalRef string,
	remark string,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     NewPaymentNumber(paidAt),
		InvoiceID:         invoiceID,
		DealID:            dealID,
		Amount:            amount.Amount(),
		Method:            method,
		PaidAt:            paidAt,
		ExternalRef:       externalRef,
		Remark:            remark,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Amount)
}

// PaymentRecordedEvent is raised when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	DealID        uuid.UUID       `json:"deal_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	ExternalRef   string          `json:"external_ref"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", p.ID),
		PaymentNumber:   p.PaymentNumber,
		InvoiceID:       p.InvoiceID,
		DealID:          p.DealID,
		Amount:          p.Amount,
		Method:          p.Method,
		ExternalRef:     p.ExternalRef,
	}
}

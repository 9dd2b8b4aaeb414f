package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// NewBookingPaymentNumber generates a booking payment number of the form BKP-YYYYMMDD-XXXXXXXX
func NewBookingPaymentNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("BKP-%s-%s", now.Format("20060102"), suffix)
}

// BookingPayment records money received to confirm a booking before any
// invoice exists. Like invoice payments it is immutable once created;
// cancellations go through the refund workflow.
type BookingPayment struct {
	shared.BaseAggregateRoot
	PaymentNumber   string          `json:"payment_number"`
	DealID          uuid.UUID       `json:"deal_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	PaidAt          time.Time       `json:"paid_at"`
	ReferenceNumber string          `json:"reference_number"` // Bank reference
	UTR             string          `json:"utr"`              // Unique transaction reference for transfers
	Remark          string          `json:"remark"`
}

// NewBookingPayment creates a new booking payment record
func NewBookingPayment(
	dealID uuid.UUID,
	clientID uuid.UUID,
	amount valueobject.Money,
	method string,
	paidAt time.Time,
	referenceNumber string,
	utr string,
	remark string,
) (*BookingPayment, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Booking payment amount must be positive")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	bp := &BookingPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     NewBookingPaymentNumber(paidAt),
		DealID:            dealID,
		ClientID:          clientID,
		Amount:            amount.Amount(),
		Method:            method,
		PaidAt:            paidAt,
		ReferenceNumber:   referenceNumber,
		UTR:               utr,
		Remark:            remark,
	}

	bp.AddDomainEvent(NewBookingPaymentReceivedEvent(bp))

	return bp, nil
}

// GetAmountMoney returns the booking payment amount as Money
func (bp *BookingPayment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(bp.Amount)
}

// BookingPaymentReceivedEvent is raised when a booking payment is recorded
type BookingPaymentReceivedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	DealID        uuid.UUID       `json:"deal_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *BookingPaymentReceivedEvent) EventType() string {
	return "BookingPaymentReceived"
}

// NewBookingPaymentReceivedEvent creates a new BookingPaymentReceivedEvent
func NewBookingPaymentReceivedEvent(bp *BookingPayment) *BookingPaymentReceivedEvent {
	return &BookingPaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BookingPaymentReceived", "BookingPayment", bp.ID),
		PaymentNumber:   bp.PaymentNumber,
		DealID:          bp.DealID,
		ClientID:        bp.ClientID,
		Amount:          bp.Amount,
	}
}

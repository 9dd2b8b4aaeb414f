package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// RefundRequestedEvent is raised when a refund request is created
type RefundRequestedEvent struct {
	shared.BaseDomainEvent
	RefundNumber        string          `json:"refund_number"`
	DealID              uuid.UUID       `json:"deal_id"`
	ClientID            uuid.UUID       `json:"client_id"`
	Amount              decimal.Decimal `json:"amount"`
	CancellationCharges decimal.Decimal `json:"cancellation_charges"`
	NetRefundAmount     decimal.Decimal `json:"net_refund_amount"`
	Reason              string          `json:"reason"`
}

// EventType returns the event type name
func (e *RefundRequestedEvent) EventType() string {
	return "RefundRequested"
}

// NewRefundRequestedEvent creates a new RefundRequestedEvent
func NewRefundRequestedEvent(r *Refund) *RefundRequestedEvent {
	return &RefundRequestedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent("RefundRequested", "Refund", r.ID),
		RefundNumber:        r.RefundNumber,
		DealID:              r.DealID,
		ClientID:            r.ClientID,
		Amount:              r.Amount,
		CancellationCharges: r.CancellationCharges,
		NetRefundAmount:     r.NetRefundAmount,
		Reason:              r.Reason,
	}
}

// RefundApprovedEvent is raised when a refund is approved
type RefundApprovedEvent struct {
	shared.BaseDomainEvent
	RefundNumber    string          `json:"refund_number"`
	DealID          uuid.UUID       `json:"deal_id"`
	NetRefundAmount decimal.Decimal `json:"net_refund_amount"`
	ApprovedBy      uuid.UUID       `json:"approved_by"`
}

// EventType returns the event type name
func (e *RefundApprovedEvent) EventType() string {
	return "RefundApproved"
}

// NewRefundApprovedEvent creates a new RefundApprovedEvent
func NewRefundApprovedEvent(r *Refund) *RefundApprovedEvent {
	var approvedBy uuid.UUID
	if r.ApprovedBy != nil {
		approvedBy = *r.ApprovedBy
	}
	return &RefundApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundApproved", "Refund", r.ID),
		RefundNumber:    r.RefundNumber,
		DealID:          r.DealID,
		NetRefundAmount: r.NetRefundAmount,
		ApprovedBy:      approvedBy,
	}
}

// RefundProcessedEvent is raised when an approved refund is paid out
type RefundProcessedEvent struct {
	shared.BaseDomainEvent
	RefundNumber    string          `json:"refund_number"`
	DealID          uuid.UUID       `json:"deal_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	NetRefundAmount decimal.Decimal `json:"net_refund_amount"`
}

// EventType returns the event type name
func (e *RefundProcessedEvent) EventType() string {
	return "RefundProcessed"
}

// NewRefundProcessedEvent creates a new RefundProcessedEvent
func NewRefundProcessedEvent(r *Refund) *RefundProcessedEvent {
	return &RefundProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundProcessed", "Refund", r.ID),
		RefundNumber:    r.RefundNumber,
		DealID:          r.DealID,
		ClientID:        r.ClientID,
		NetRefundAmount: r.NetRefundAmount,
	}
}

// RefundRejectedEvent is raised when a refund request is rejected
type RefundRejectedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string    `json:"refund_number"`
	DealID       uuid.UUID `json:"deal_id"`
	Reason       string    `json:"reason"`
}

// EventType returns the event type name
func (e *RefundRejectedEvent) EventType() string {
	return "RefundRejected"
}

// NewRefundRejectedEvent creates a new RefundRejectedEvent
func NewRefundRejectedEvent(r *Refund) *RefundRejectedEvent {
	return &RefundRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundRejected", "Refund", r.ID),
		RefundNumber:    r.RefundNumber,
		DealID:          r.DealID,
		Reason:          r.RejectionReason,
	}
}

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

// RefundStatus represents the state of a refund request
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusProcessed RefundStatus = "PROCESSED" // Terminal
	RefundStatusRejected  RefundStatus = "REJECTED"  // Terminal
)

// IsValid checks if the status is a valid RefundStatus
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusApproved, RefundStatusProcessed, RefundStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the refund is in a terminal state
func (s RefundStatus) IsTerminal() bool {
	return s == RefundStatusProcessed || s == RefundStatusRejected
}

// RefundSourceType identifies the record a refund is drawn against
type RefundSourceType string

const (
	RefundSourcePayment        RefundSourceType = "PAYMENT"
	RefundSourceBookingPayment RefundSourceType = "BOOKING_PAYMENT"
)

// IsValid checks if the source type is valid
func (s RefundSourceType) IsValid() bool {
	return s == RefundSourcePayment || s == RefundSourceBookingPayment
}

// NewRefundNumber generates a refund number of the form REF-YYYYMMDD-XXXXXXXX
func NewRefundNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("REF-%s-%s", now.Format("20060102"), suffix)
}

// Refund is a request to return money to a client after cancellation.
// The net refund amount is the requested amount less cancellation charges
// and is computed once at creation.
type Refund struct {
	shared.BaseAggregateRoot
	RefundNumber        string            `json:"refund_number"`
	DealID              uuid.UUID         `json:"deal_id"`
	ClientID            uuid.UUID         `json:"client_id"`
	SourceType          *RefundSourceType `json:"source_type,omitempty"` // Optional link to the money being returned
	SourceID            *uuid.UUID        `json:"source_id,omitempty"`
	Amount              decimal.Decimal   `json:"amount"`
	CancellationCharges decimal.Decimal   `json:"cancellation_charges"`
	NetRefundAmount     decimal.Decimal   `json:"net_refund_amount"`
	Reason              string            `json:"reason"`
	Status              RefundStatus      `json:"status"`
	ApprovedBy          *uuid.UUID        `json:"approved_by"`
	ApprovedAt          *time.Time        `json:"approved_at"`
	ProcessedAt         *time.Time        `json:"processed_at"`
	RejectedAt          *time.Time        `json:"rejected_at"`
	RejectionReason     string            `json:"rejection_reason"`
}

// NewRefund creates a refund request in Pending status
func NewRefund(
	dealID uuid.UUID,
	clientID uuid.UUID,
	sourceType *RefundSourceType,
	sourceID *uuid.UUID,
	amount valueobject.Money,
	cancellationCharges valueobject.Money,
	reason string,
) (*Refund, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if sourceType != nil {
		if !sourceType.IsValid() {
			return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Refund source type is not valid")
		}
		if sourceID == nil || *sourceID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID is required when a source type is given")
		}
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_REFUND", "Refund amount must be positive")
	}
	if cancellationCharges.IsNegative() {
		return nil, shared.NewDomainError("INVALID_REFUND", "Cancellation charges cannot be negative")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Refund reason is required")
	}

	net := amount.Amount().Sub(cancellationCharges.Amount())
	if net.IsNegative() {
		return nil, shared.NewDomainError("INVALID_REFUND", fmt.Sprintf("Cancellation charges %s exceed the refund amount %s",
			cancellationCharges.StringFixed(2), amount.StringFixed(2)))
	}

	r := &Refund{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		RefundNumber:        NewRefundNumber(time.Now()),
		DealID:              dealID,
		ClientID:            clientID,
		SourceType:          sourceType,
		SourceID:            sourceID,
		Amount:              amount.Amount(),
		CancellationCharges: cancellationCharges.Amount(),
		NetRefundAmount:     net,
		Reason:              reason,
		Status:              RefundStatusPending,
	}

	r.AddDomainEvent(NewRefundRequestedEvent(r))

	return r, nil
}

// Approve moves the refund from Pending to Approved and stamps the approver
func (r *Refund) Approve(approvedBy uuid.UUID) error {
	if r.Status != RefundStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve refund in %s status", r.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Approver ID cannot be empty")
	}

	now := time.Now()
	r.Status = RefundStatusApproved
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundApprovedEvent(r))

	return nil
}

// Process moves the refund from Approved to Processed. The caller must
// append the matching debit ledger entry in the same atomic unit.
func (r *Refund) Process() error {
	if r.Status != RefundStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot process refund in %s status", r.Status))
	}

	now := time.Now()
	r.Status = RefundStatusProcessed
	r.ProcessedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundProcessedEvent(r))

	return nil
}

// Reject moves the refund from Pending to Rejected
func (r *Refund) Reject(reason string) error {
	if r.Status != RefundStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject refund in %s status", r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	now := time.Now()
	r.Status = RefundStatusRejected
	r.RejectedAt = &now
	r.RejectionReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundRejectedEvent(r))

	return nil
}

// GetNetRefundAmountMoney returns the net refund amount as Money
func (r *Refund) GetNetRefundAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(r.NetRefundAmount)
}

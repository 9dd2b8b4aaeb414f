package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// PaymentScheduleCreatedEvent is raised when a new payment schedule is created
type PaymentScheduleCreatedEvent struct {
	shared.BaseDomainEvent
	DealID             uuid.UUID       `json:"deal_id"`
	PlanType           PlanType        `json:"plan_type"`
	TotalContractValue decimal.Decimal `json:"total_contract_value"`
	BookingAmount      decimal.Decimal `json:"booking_amount"`
	InstallmentCount   int             `json:"installment_count"`
}

// EventType returns the event type name
func (e *PaymentScheduleCreatedEvent) EventType() string {
	return "PaymentScheduleCreated"
}

// NewPaymentScheduleCreatedEvent creates a new PaymentScheduleCreatedEvent
func NewPaymentScheduleCreatedEvent(ps *PaymentSchedule) *PaymentScheduleCreatedEvent {
	return &PaymentScheduleCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent("PaymentScheduleCreated", "PaymentSchedule", ps.ID),
		DealID:             ps.DealID,
		PlanType:           ps.PlanType,
		TotalContractValue: ps.TotalContractValue,
		BookingAmount:      ps.BookingAmount,
		InstallmentCount:   ps.InstallmentCount,
	}
}

// InstallmentsGeneratedEvent is raised when installments are derived for a schedule
type InstallmentsGeneratedEvent struct {
	shared.BaseDomainEvent
	DealID           uuid.UUID       `json:"deal_id"`
	PlanType         PlanType        `json:"plan_type"`
	InstallmentCount int             `json:"installment_count"`
	InstallmentTotal decimal.Decimal `json:"installment_total"`
}

// EventType returns the event type name
func (e *InstallmentsGeneratedEvent) EventType() string {
	return "InstallmentsGenerated"
}

// NewInstallmentsGeneratedEvent creates a new InstallmentsGeneratedEvent
func NewInstallmentsGeneratedEvent(ps *PaymentSchedule) *InstallmentsGeneratedEvent {
	return &InstallmentsGeneratedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("InstallmentsGenerated", "PaymentSchedule", ps.ID),
		DealID:           ps.DealID,
		PlanType:         ps.PlanType,
		InstallmentCount: len(ps.Installments),
		InstallmentTotal: ps.InstallmentTotal(),
	}
}

// PaymentScheduleActivatedEvent is raised when a schedule becomes active
type PaymentScheduleActivatedEvent struct {
	shared.BaseDomainEvent
	DealID           uuid.UUID `json:"deal_id"`
	InstallmentCount int       `json:"installment_count"`
}

// EventType returns the event type name
func (e *PaymentScheduleActivatedEvent) EventType() string {
	return "PaymentScheduleActivated"
}

// NewPaymentScheduleActivatedEvent creates a new PaymentScheduleActivatedEvent
func NewPaymentScheduleActivatedEvent(ps *PaymentSchedule) *PaymentScheduleActivatedEvent {
	return &PaymentScheduleActivatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentScheduleActivated", "PaymentSchedule", ps.ID),
		DealID:           ps.DealID,
		InstallmentCount: len(ps.Installments),
	}
}

// MilestoneCompletedEvent is raised when construction reaches a milestone
type MilestoneCompletedEvent struct {
	shared.BaseDomainEvent
	DealID        uuid.UUID       `json:"deal_id"`
	Sequence      int             `json:"sequence"`
	MilestoneName string          `json:"milestone_name"`
	Amount        decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *MilestoneCompletedEvent) EventType() string {
	return "MilestoneCompleted"
}

// NewMilestoneCompletedEvent creates a new MilestoneCompletedEvent
func NewMilestoneCompletedEvent(ps *PaymentSchedule, inst *Installment) *MilestoneCompletedEvent {
	return &MilestoneCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("MilestoneCompleted", "PaymentSchedule", ps.ID),
		DealID:          ps.DealID,
		Sequence:        inst.Sequence,
		MilestoneName:   inst.MilestoneName,
		Amount:          inst.Amount,
	}
}

// PaymentScheduleCompletedEvent is raised when every installment is fully paid
type PaymentScheduleCompletedEvent struct {
	shared.BaseDomainEvent
	DealID uuid.UUID `json:"deal_id"`
}

// EventType returns the event type name
func (e *PaymentScheduleCompletedEvent) EventType() string {
	return "PaymentScheduleCompleted"
}

// NewPaymentScheduleCompletedEvent creates a new PaymentScheduleCompletedEvent
func NewPaymentScheduleCompletedEvent(ps *PaymentSchedule) *PaymentScheduleCompletedEvent {
	return &PaymentScheduleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentScheduleCompleted", "PaymentSchedule", ps.ID),
		DealID:          ps.DealID,
	}
}

// PaymentScheduleCancelledEvent is raised when a schedule is cancelled
type PaymentScheduleCancelledEvent struct {
	shared.BaseDomainEvent
	DealID uuid.UUID `json:"deal_id"`
	Reason string    `json:"reason"`
}

// EventType returns the event type name
func (e *PaymentScheduleCancelledEvent) EventType() string {
	return "PaymentScheduleCancelled"
}

// NewPaymentScheduleCancelledEvent creates a new PaymentScheduleCancelledEvent
func NewPaymentScheduleCancelledEvent(ps *PaymentSchedule) *PaymentScheduleCancelledEvent {
	return &PaymentScheduleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentScheduleCancelled", "PaymentSchedule", ps.ID),
		DealID:          ps.DealID,
		Reason:          ps.CancelReason,
	}
}

package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

// PlanType represents the kind of payment plan backing a schedule
type PlanType string

const (
	PlanTypeConstructionLinked PlanType = "CONSTRUCTION_LINKED" // Milestone-based (CLP)
	PlanTypeTimeBased          PlanType = "TIME_BASED"          // Fixed cadence installments
	PlanTypeDownPayment        PlanType = "DOWN_PAYMENT"        // Large upfront, small remainder
	PlanTypeCustom             PlanType = "CUSTOM"
)

// IsValid checks if the plan type is valid
func (p PlanType) IsValid() bool {
	switch p {
	case PlanTypeConstructionLinked, PlanTypeTimeBased, PlanTypeDownPayment, PlanTypeCustom:
		return true
	}
	return false
}

// String returns the string representation of PlanType
func (p PlanType) String() string {
	return string(p)
}

// Frequency represents the cadence of time-based installments
type Frequency string

const (
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
	FrequencyCustom    Frequency = "CUSTOM" // Interval supplied explicitly in months
)

// IsValid checks if the frequency is valid
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// IntervalMonths returns the number of months between installments.
// For FrequencyCustom the caller-supplied interval is used.
func (f Frequency) IntervalMonths(customInterval int) int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	case FrequencyCustom:
		return customInterval
	}
	return 0
}

// ScheduleStatus represents the lifecycle state of a payment schedule
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "DRAFT"     // Created, installments not yet generated or not yet activated
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"    // Installments generated and billing in progress
	ScheduleStatusCompleted ScheduleStatus = "COMPLETED" // All installments fully paid
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ScheduleStatus
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusDraft, ScheduleStatusActive, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ScheduleStatus
func (s ScheduleStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the schedule is in a terminal state
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// Installment represents one scheduled partial payment obligation.
// It is a value object within the PaymentSchedule aggregate, stored as JSONB.
type Installment struct {
	Sequence            int             `json:"sequence"` // 1-based, unique within the schedule
	DueDate             time.Time       `json:"due_date"`
	Amount              decimal.Decimal `json:"amount"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	IsPaid              bool            `json:"is_paid"`
	MilestoneName       string          `json:"milestone_name,omitempty"`
	MilestonePercentage decimal.Decimal `json:"milestone_percentage,omitempty"`
	MilestoneCompleted  bool            `json:"milestone_completed,omitempty"`
	MilestoneReachedAt  *time.Time      `json:"milestone_reached_at,omitempty"`
	InvoiceID           *uuid.UUID      `json:"invoice_id,omitempty"` // Invoice that billed this installment
}

// IsMilestone reports whether the installment is tied to a construction milestone
func (i *Installment) IsMilestone() bool {
	return i.MilestoneName != ""
}

// GetAmountMoney returns the installment amount as Money
func (i *Installment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.Amount)
}

// RemainingAmount returns the unpaid portion of the installment
func (i *Installment) RemainingAmount() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// Installments is a slice of Installment that implements GORM Scanner/Valuer for JSONB storage
type Installments []Installment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (ins Installments) Value() (driver.Value, error) {
	if ins == nil {
		return "[]", nil
	}
	return json.Marshal(ins)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (ins *Installments) Scan(value interface{}) error {
	if value == nil {
		*ins = Installments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Installments: unsupported type")
	}

	if len(bytes) == 0 {
		*ins = Installments{}
		return nil
	}

	return json.Unmarshal(bytes, ins)
}

// Milestone defines one construction milestone used to generate
// installments for construction-linked plans
type Milestone struct {
	Name       string
	Percentage decimal.Decimal
	DueDate    time.Time
}

// milestoneEpsilon is the tolerance accepted when milestone percentages are summed
var milestoneEpsilon = decimal.NewFromFloat(0.01)

// PaymentSchedule is the aggregate root for a deal's installment plan.
// Installments are immutable once the schedule is activated except for
// payment progress flags.
type PaymentSchedule struct {
	shared.BaseAggregateRoot
	DealID             uuid.UUID       `json:"deal_id"`
	PlanType           PlanType        `json:"plan_type"`
	TotalContractValue decimal.Decimal `json:"total_contract_value"`
	BookingAmount      decimal.Decimal `json:"booking_amount"`
	StartDate          time.Time       `json:"start_date"`
	Frequency          Frequency       `json:"frequency"`
	IntervalMonths     int             `json:"interval_months"` // Only meaningful for FrequencyCustom
	InstallmentCount   int             `json:"installment_count"`
	ReminderOffsetDays []int           `json:"reminder_offset_days" gorm:"-"`
	Installments       Installments    `json:"installments"`
	Status             ScheduleStatus  `json:"status"`
	CompletedAt        *time.Time      `json:"completed_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	CancelReason       string          `json:"cancel_reason"`
}

// NewPaymentSchedule creates a new payment schedule in Draft status
func NewPaymentSchedule(
	dealID uuid.UUID,
	planType PlanType,
	totalContractValue valueobject.Money,
	bookingAmount valueobject.Money,
	startDate time.Time,
	frequency Frequency,
	intervalMonths int,
	installmentCount int,
	reminderOffsetDays []int,
) (*PaymentSchedule, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if !planType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN_TYPE", "Plan type is not valid")
	}
	if totalContractValue.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total contract value must be positive")
	}
	if bookingAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Booking amount cannot be negative")
	}
	if bookingAmount.Amount().GreaterThan(totalContractValue.Amount()) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Booking amount cannot exceed total contract value")
	}
	if !frequency.IsValid() {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", "Frequency is not valid")
	}
	if frequency == FrequencyCustom && intervalMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", "Custom frequency requires a positive interval in months")
	}
	if installmentCount <= 0 {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Installment count must be positive")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}
	for _, offset := range reminderOffsetDays {
		if offset < 0 {
			return nil, shared.NewDomainError("INVALID_REMINDER_OFFSET", "Reminder offsets cannot be negative")
		}
	}

	ps := &PaymentSchedule{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		DealID:             dealID,
		PlanType:           planType,
		TotalContractValue: totalContractValue.Amount(),
		BookingAmount:      bookingAmount.Amount(),
		StartDate:          startDate,
		Frequency:          frequency,
		IntervalMonths:     intervalMonths,
		InstallmentCount:   installmentCount,
		ReminderOffsetDays: reminderOffsetDays,
		Installments:       Installments{},
		Status:             ScheduleStatusDraft,
	}

	ps.AddDomainEvent(NewPaymentScheduleCreatedEvent(ps))

	return ps, nil
}

// AddMonthsClamped adds n months to t, clamping the day-of-month to the
// last valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	totalMonths := int(month) - 1 + n
	targetYear := year + totalMonths/12
	targetMonth := time.Month(totalMonths%12 + 1)
	if totalMonths < 0 {
		// Go's modulo keeps the sign of the dividend
		targetYear = year + (totalMonths-11)/12
		targetMonth = time.Month((totalMonths%12+12)%12 + 1)
	}

	lastDay := daysInMonth(targetYear, targetMonth)
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GenerateInstallments derives dated installments from a per-installment
// amount at the schedule's frequency. Fails if installments already exist.
func (ps *PaymentSchedule) GenerateInstallments(perInstallmentAmount valueobject.Money) error {
	if ps.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot generate installments for schedule in %s status", ps.Status))
	}
	if len(ps.Installments) > 0 {
		return shared.NewDomainError("INSTALLMENTS_EXIST", "Installments have already been generated for this schedule")
	}
	if perInstallmentAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Installment amount must be positive")
	}

	interval := ps.Frequency.IntervalMonths(ps.IntervalMonths)
	if interval <= 0 {
		return shared.NewDomainError("INVALID_FREQUENCY", "Cannot derive an installment interval for this schedule")
	}

	// Installments plus the upfront booking amount must reconcile to the
	// contract value within one minor unit of rounding tolerance.
	expected := ps.TotalContractValue.Sub(ps.BookingAmount)
	sum := perInstallmentAmount.Amount().Round(2).Mul(decimal.NewFromInt(int64(ps.InstallmentCount)))
	if sum.Sub(expected).Abs().GreaterThan(milestoneEpsilon) {
		return shared.NewDomainError("INVALID_SCHEDULE", fmt.Sprintf("Installment amounts sum to %s but %s remains billable on the contract",
			sum.StringFixed(2), expected.StringFixed(2)))
	}

	installments := make(Installments, 0, ps.InstallmentCount)
	for i := 0; i < ps.InstallmentCount; i++ {
		installments = append(installments, Installment{
			Sequence:   i + 1,
			DueDate:    AddMonthsClamped(ps.StartDate, i*interval),
			Amount:     perInstallmentAmount.Amount().Round(2),
			PaidAmount: decimal.Zero,
		})
	}

	ps.Installments = installments
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewInstallmentsGeneratedEvent(ps))

	return nil
}

// GenerateMilestoneInstallments derives installments from construction
// milestone percentages. Amounts are rounded to 2 decimal places with the
// final milestone absorbing the rounding remainder so the amounts sum
// exactly to the total contract value.
func (ps *PaymentSchedule) GenerateMilestoneInstallments(milestones []Milestone) error {
	if ps.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot generate installments for schedule in %s status", ps.Status))
	}
	if len(ps.Installments) > 0 {
		return shared.NewDomainError("INSTALLMENTS_EXIST", "Installments have already been generated for this schedule")
	}
	if len(milestones) == 0 {
		return shared.NewDomainError("INVALID_SCHEDULE", "At least one milestone is required")
	}

	total := decimal.Zero
	for _, m := range milestones {
		if m.Percentage.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_SCHEDULE", "Milestone percentage must be positive")
		}
		total = total.Add(m.Percentage)
	}
	if total.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(milestoneEpsilon) {
		return shared.NewDomainError("INVALID_SCHEDULE", fmt.Sprintf("Milestone percentages must sum to 100, got %s", total.String()))
	}

	hundred := decimal.NewFromInt(100)
	installments := make(Installments, 0, len(milestones))
	allocated := decimal.Zero
	for i, m := range milestones {
		var amount decimal.Decimal
		if i == len(milestones)-1 {
			amount = ps.TotalContractValue.Sub(allocated)
		} else {
			amount = ps.TotalContractValue.Mul(m.Percentage).Div(hundred).Round(2)
			allocated = allocated.Add(amount)
		}
		installments = append(installments, Installment{
			Sequence:            i + 1,
			DueDate:             m.DueDate,
			Amount:              amount,
			PaidAmount:          decimal.Zero,
			MilestoneName:       m.Name,
			MilestonePercentage: m.Percentage,
		})
	}

	ps.Installments = installments
	ps.InstallmentCount = len(installments)
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewInstallmentsGeneratedEvent(ps))

	return nil
}

// Activate moves the schedule from Draft to Active; installments must exist
func (ps *PaymentSchedule) Activate() error {
	if ps.Status != ScheduleStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate schedule in %s status", ps.Status))
	}
	if len(ps.Installments) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot activate a schedule without installments")
	}

	ps.Status = ScheduleStatusActive
	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	ps.AddDomainEvent(NewPaymentScheduleActivatedEvent(ps))

	return nil
}

// ApplyInstallmentPayment records payment progress against one installment.
// The paid amount never exceeds the installment amount.
func (ps *PaymentSchedule) ApplyInstallmentPayment(sequence int, amount valueobject.Money) error {
	if ps.Status != ScheduleStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to schedule in %s status", ps.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	idx := -1
	for i := range ps.Installments {
		if ps.Installments[i].Sequence == sequence {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("Installment %d does not exist on this schedule", sequence))
	}

	inst := &ps.Installments[idx]
	if inst.IsPaid {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Installment %d is already fully paid", sequence))
	}
	if amount.Amount().GreaterThan(inst.RemainingAmount()) {
		return shared.NewDomainError("INVARIANT_VIOLATION", fmt.Sprintf("Payment %s exceeds remaining amount %s for installment %d",
			amount.StringFixed(2), inst.RemainingAmount().StringFixed(2), sequence))
	}

	inst.PaidAmount = inst.PaidAmount.Add(amount.Amount())
	if inst.PaidAmount.GreaterThanOrEqual(inst.Amount) {
		inst.IsPaid = true
	}

	allPaid := true
	for i := range ps.Installments {
		if !ps.Installments[i].IsPaid {
			allPaid = false
			break
		}
	}
	if allPaid {
		now := time.Now()
		ps.Status = ScheduleStatusCompleted
		ps.CompletedAt = &now
		ps.AddDomainEvent(NewPaymentScheduleCompletedEvent(ps))
	}

	ps.UpdatedAt = time.Now()
	ps.IncrementVersion()

	return nil
}

// MarkMilestoneCompleted records that construction reached the milestone
// backing an installment. Only active schedules accept completions and a
// milestone completes once.
func (ps *PaymentSchedule) MarkMilestoneCompleted(sequence int) error {
	if ps.Status != ScheduleStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete a milestone on a schedule in %s status", ps.Status))
	}

	idx := -1
	for i := range ps.Installments {
		if ps.Installments[i].Sequence == sequence {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("Installment %d does not exist on this schedule", sequence))
	}

	inst := &ps.Installments[idx]
	if !inst.IsMilestone() {
		return shared.NewDomainError("NOT_A_MILESTONE", fmt.Sprintf("Installment %d is not tied to a construction milestone", sequence))
	}
	if inst.MilestoneCompleted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Milestone %q has already been completed", inst.MilestoneName))
	}

	now := time.Now()
	inst.MilestoneCompleted = true
	inst.MilestoneReachedAt = &now
	ps.UpdatedAt = now
	ps.IncrementVersion()

	ps.AddDomainEvent(NewMilestoneCompletedEvent(ps, inst))

	return nil
}

// LinkInvoice records which invoice billed an installment
func (ps *PaymentSchedule) LinkInvoice(sequence int, invoiceID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	for i := range ps.Installments {
		if ps.Installments[i].Sequence == sequence {
			if ps.Installments[i].InvoiceID != nil {
				return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Installment %d is already linked to an invoice", sequence))
			}
			ps.Installments[i].InvoiceID = &invoiceID
			ps.UpdatedAt = time.Now()
			ps.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("Installment %d does not exist on this schedule", sequence))
}

// Cancel cancels the schedule
func (ps *PaymentSchedule) Cancel(reason string) error {
	if ps.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel schedule in %s status", ps.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	ps.Status = ScheduleStatusCancelled
	ps.CancelledAt = &now
	ps.CancelReason = reason
	ps.UpdatedAt = now
	ps.IncrementVersion()

	ps.AddDomainEvent(NewPaymentScheduleCancelledEvent(ps))

	return nil
}

// InstallmentTotal returns the sum of all installment amounts
func (ps *PaymentSchedule) InstallmentTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range ps.Installments {
		total = total.Add(ps.Installments[i].Amount)
	}
	return total
}

// FindInstallment returns the installment with the given sequence number
func (ps *PaymentSchedule) FindInstallment(sequence int) (*Installment, bool) {
	for i := range ps.Installments {
		if ps.Installments[i].Sequence == sequence {
			return &ps.Installments[i], true
		}
	}
	return nil, false
}

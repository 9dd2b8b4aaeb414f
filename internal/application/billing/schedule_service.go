package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// ScheduleService manages payment schedules and installment generation
type ScheduleService struct {
	scheduleRepo   billing.PaymentScheduleRepository
	invoiceService *InvoiceService // May be nil; milestone completions then raise no invoice
	eventPublisher shared.EventPublisher
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(
	scheduleRepo billing.PaymentScheduleRepository,
	invoiceService *InvoiceService,
	eventPublisher shared.EventPublisher,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo:   scheduleRepo,
		invoiceService: invoiceService,
		eventPublisher: eventPublisher,
	}
}

// MilestoneInput describes one construction milestone for a milestone-linked plan
type MilestoneInput struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	DueDate    time.Time       `json:"due_date"`
}

// CreateScheduleRequest represents a request to create a payment schedule
type CreateScheduleRequest struct {
	DealID             uuid.UUID        `json:"deal_id"`
	PlanType           billing.PlanType `json:"plan_type"`
	TotalContractValue decimal.Decimal  `json:"total_contract_value"`
	BookingAmount      decimal.Decimal  `json:"booking_amount"`
	StartDate          time.Time        `json:"start_date"`
	Frequency          billing.Frequency `json:"frequency"`
	IntervalMonths     int              `json:"interval_months"`
	InstallmentCount   int              `json:"installment_count"`
	ReminderOffsetDays []int            `json:"reminder_offset_days"`

	// InstallmentAmount overrides the derived per-installment amount.
	// When nil the billable value is divided evenly across the count.
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`

	// Milestones drives milestone-based generation; when present the
	// frequency and count are derived from the milestones themselves.
	Milestones []MilestoneInput `json:"milestones,omitempty"`
}

// CreateSchedule creates a payment schedule and generates its installments
func (s *ScheduleService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*billing.PaymentSchedule, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDealID, req.DealID.String(),
		"plan_type", string(req.PlanType),
		"installment_count", req.InstallmentCount,
	)

	installmentCount := req.InstallmentCount
	if len(req.Milestones) > 0 {
		installmentCount = len(req.Milestones)
	}

	schedule, err := billing.NewPaymentSchedule(
		req.DealID,
		req.PlanType,
		valueobject.NewMoneyINR(req.TotalContractValue),
		valueobject.NewMoneyINR(req.BookingAmount),
		req.StartDate,
		req.Frequency,
		req.IntervalMonths,
		installmentCount,
		req.ReminderOffsetDays,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(req.Milestones) > 0 {
		milestones := make([]billing.Milestone, 0, len(req.Milestones))
		for _, m := range req.Milestones {
			milestones = append(milestones, billing.Milestone{
				Name:       m.Name,
				Percentage: m.Percentage,
				DueDate:    m.DueDate,
			})
		}
		if err := schedule.GenerateMilestoneInstallments(milestones); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	} else {
		perAmount := s.resolveInstallmentAmount(req)
		if err := schedule.GenerateInstallments(valueobject.NewMoneyINR(perAmount)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	s.publishDomainEvents(ctx, schedule)

	telemetry.SetAttribute(span, telemetry.SpanAttrScheduleID, schedule.ID.String())

	return schedule, nil
}

func (s *ScheduleService) resolveInstallmentAmount(req CreateScheduleRequest) decimal.Decimal {
	if req.InstallmentAmount != nil {
		return *req.InstallmentAmount
	}
	if req.InstallmentCount <= 0 {
		return decimal.Zero
	}
	billable := req.TotalContractValue.Sub(req.BookingAmount)
	return billable.Div(decimal.NewFromInt(int64(req.InstallmentCount))).Round(2)
}

// ActivateSchedule moves a schedule with generated installments into Active status
func (s *ScheduleService) ActivateSchedule(ctx context.Context, scheduleID uuid.UUID) (*billing.PaymentSchedule, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule", "activate")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrScheduleID, scheduleID.String())

	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := schedule.GetVersion()
	if err := schedule.Activate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.scheduleRepo.SaveWithLock(ctx, schedule, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	s.publishDomainEvents(ctx, schedule)

	return schedule, nil
}

// CompleteMilestoneRequest represents a construction milestone being reached
type CompleteMilestoneRequest struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	Sequence   int       `json:"sequence"`
	ClientID   uuid.UUID `json:"client_id"`
	ClientName string    `json:"client_name"`
	AutoIssue  bool      `json:"auto_issue"`
}

// CompleteMilestone records that construction reached a milestone and raises
// the invoice billing the milestone's installment
func (s *ScheduleService) CompleteMilestone(ctx context.Context, req CompleteMilestoneRequest) (*billing.PaymentSchedule, *billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule", "complete_milestone")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrScheduleID, req.ScheduleID.String(),
		"sequence", req.Sequence,
	)

	schedule, err := s.findSchedule(ctx, req.ScheduleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	expectedVersion := schedule.GetVersion()
	if err := schedule.MarkMilestoneCompleted(req.Sequence); err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	if err := s.scheduleRepo.SaveWithLock(ctx, schedule, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	s.publishDomainEvents(ctx, schedule)

	inst, _ := schedule.FindInstallment(req.Sequence)
	var invoice *billing.Invoice
	if s.invoiceService != nil && req.ClientID != uuid.Nil && inst.InvoiceID == nil {
		scheduleID := schedule.ID
		sequence := req.Sequence
		invoice, err = s.invoiceService.GenerateInvoice(ctx, GenerateInvoiceRequest{
			DealID:         schedule.DealID,
			ClientID:       req.ClientID,
			ClientName:     req.ClientName,
			TriggerPoint:   billing.TriggerMilestoneReached,
			BaseAmount:     inst.Amount,
			DueDate:        inst.DueDate,
			ScheduleID:     &scheduleID,
			InstallmentSeq: &sequence,
			Remark:         fmt.Sprintf("Milestone reached: %s", inst.MilestoneName),
			AutoIssue:      req.AutoIssue,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, err
		}
		// The invoice generation linked itself into the schedule; re-read so
		// the caller sees the installment carrying the invoice.
		schedule, err = s.findSchedule(ctx, req.ScheduleID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, nil, err
		}
	}

	return schedule, invoice, nil
}

// CancelSchedule cancels a schedule with a reason
func (s *ScheduleService) CancelSchedule(ctx context.Context, scheduleID uuid.UUID, reason string) (*billing.PaymentSchedule, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "schedule", "cancel")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrScheduleID, scheduleID.String())

	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := schedule.GetVersion()
	if err := schedule.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.scheduleRepo.SaveWithLock(ctx, schedule, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	s.publishDomainEvents(ctx, schedule)

	return schedule, nil
}

// GetSchedule retrieves a schedule by ID
func (s *ScheduleService) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*billing.PaymentSchedule, error) {
	return s.findSchedule(ctx, scheduleID)
}

// GetSchedulesByDeal retrieves the schedules belonging to a deal
func (s *ScheduleService) GetSchedulesByDeal(ctx context.Context, dealID uuid.UUID) ([]billing.PaymentSchedule, error) {
	schedules, err := s.scheduleRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// ListSchedules lists schedules with filtering and pagination
func (s *ScheduleService) ListSchedules(ctx context.Context, filter billing.ScheduleFilter) (*shared.Paginated[billing.PaymentSchedule], error) {
	schedules, err := s.scheduleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	total, err := s.scheduleRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count schedules: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(schedules, total, page, pageSize)
	return &result, nil
}

// UpcomingReminder describes an installment whose due date falls within a
// configured reminder offset
type UpcomingReminder struct {
	ScheduleID  uuid.UUID       `json:"schedule_id"`
	DealID      uuid.UUID       `json:"deal_id"`
	Sequence    int             `json:"sequence"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	DaysUntil   int             `json:"days_until"`
	OffsetMatch int             `json:"offset_match"`
}

// UpcomingReminders reports unpaid installments of a schedule that are due
// exactly at one of the schedule's reminder offsets from asOf
func (s *ScheduleService) UpcomingReminders(ctx context.Context, scheduleID uuid.UUID, asOf time.Time) ([]UpcomingReminder, error) {
	schedule, err := s.findSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	reminders := make([]UpcomingReminder, 0)
	for _, inst := range schedule.Installments {
		if inst.IsPaid {
			continue
		}
		due := time.Date(inst.DueDate.Year(), inst.DueDate.Month(), inst.DueDate.Day(), 0, 0, 0, 0, time.UTC)
		daysUntil := int(due.Sub(today).Hours() / 24)
		for _, offset := range schedule.ReminderOffsetDays {
			if daysUntil == offset {
				reminders = append(reminders, UpcomingReminder{
					ScheduleID:  schedule.ID,
					DealID:      schedule.DealID,
					Sequence:    inst.Sequence,
					DueDate:     inst.DueDate,
					Amount:      inst.Amount,
					DaysUntil:   daysUntil,
					OffsetMatch: offset,
				})
				break
			}
		}
	}
	return reminders, nil
}

func (s *ScheduleService) findSchedule(ctx context.Context, scheduleID uuid.UUID) (*billing.PaymentSchedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return nil, shared.NewDomainError("SCHEDULE_NOT_FOUND", "Payment schedule not found")
	}
	return schedule, nil
}

func (s *ScheduleService) publishDomainEvents(ctx context.Context, schedule *billing.PaymentSchedule) {
	if s.eventPublisher == nil {
		return
	}
	events := schedule.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	schedule.ClearDomainEvents()
}

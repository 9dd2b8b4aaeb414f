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

// InvoiceService manages invoice generation and the payment-derived
// status lifecycle
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	scheduleRepo   billing.PaymentScheduleRepository
	eventPublisher shared.EventPublisher
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	scheduleRepo billing.PaymentScheduleRepository,
	eventPublisher shared.EventPublisher,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		scheduleRepo:   scheduleRepo,
		eventPublisher: eventPublisher,
	}
}

// GenerateInvoiceRequest represents a request to generate an invoice
type GenerateInvoiceRequest struct {
	DealID       uuid.UUID            `json:"deal_id"`
	ClientID     uuid.UUID            `json:"client_id"`
	ClientName   string               `json:"client_name"`
	InvoiceType  billing.InvoiceType  `json:"invoice_type,omitempty"`
	UnitID       *uuid.UUID           `json:"unit_id,omitempty"`
	ProjectID    *uuid.UUID           `json:"project_id,omitempty"`
	TriggerPoint billing.TriggerPoint `json:"trigger_point"`
	BaseAmount   decimal.Decimal      `json:"base_amount"`

	// TaxAmount is taken as-is unless TaxConfig is present, in which case
	// base and tax are derived from BaseAmount under the config.
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	TaxConfig      *billing.TaxConfig `json:"tax_config,omitempty"`
	DueDate        time.Time          `json:"due_date"`
	ScheduleID     *uuid.UUID         `json:"schedule_id,omitempty"`
	InstallmentSeq *int               `json:"installment_seq,omitempty"`
	Remark         string             `json:"remark"`
	AutoIssue      bool               `json:"auto_issue"`
}

// GenerateInvoice creates an invoice, optionally tied to one installment of
// a payment schedule
func (s *InvoiceService) GenerateInvoice(ctx context.Context, req GenerateInvoiceRequest) (*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "generate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDealID, req.DealID.String(),
		telemetry.SpanAttrClientID, req.ClientID.String(),
		"trigger_point", string(req.TriggerPoint),
	)

	invoiceType := req.InvoiceType
	if invoiceType == "" {
		if req.TriggerPoint == billing.TriggerBookingConfirmation {
			invoiceType = billing.InvoiceTypeBooking
		} else {
			invoiceType = billing.InvoiceTypeTax
		}
	}

	baseAmount := req.BaseAmount
	taxAmount := req.TaxAmount
	if req.TaxConfig != nil {
		baseAmount, taxAmount = req.TaxConfig.Apply(req.BaseAmount)
	}

	invoice, err := billing.NewInvoice(
		req.DealID,
		req.ClientID,
		req.ClientName,
		invoiceType,
		req.TriggerPoint,
		valueobject.NewMoneyINR(baseAmount),
		valueobject.NewMoneyINR(taxAmount),
		req.DueDate,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.Remark = req.Remark
	invoice.UnitID = req.UnitID
	invoice.ProjectID = req.ProjectID

	var schedule *billing.PaymentSchedule
	var scheduleVersion int
	if req.ScheduleID != nil {
		if req.InstallmentSeq == nil {
			err := shared.NewDomainError("INVALID_INPUT", "Installment sequence is required when linking a schedule")
			telemetry.RecordError(span, err)
			return nil, err
		}

		schedule, err = s.scheduleRepo.FindByID(ctx, *req.ScheduleID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to get schedule: %w", err)
		}
		if schedule == nil {
			err := shared.NewDomainError("SCHEDULE_NOT_FOUND", "Payment schedule not found")
			telemetry.RecordError(span, err)
			return nil, err
		}

		if err := invoice.LinkInstallment(schedule.ID, *req.InstallmentSeq); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		scheduleVersion = schedule.GetVersion()
		if err := schedule.LinkInvoice(*req.InstallmentSeq, invoice.ID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.AutoIssue {
		if err := invoice.Issue(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	if schedule != nil {
		if err := s.scheduleRepo.SaveWithLock(ctx, schedule, scheduleVersion); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save schedule: %w", err)
		}
	}

	s.publishDomainEvents(ctx, invoice)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
	)

	return invoice, nil
}

// IssueInvoice moves a draft invoice into circulation
func (s *InvoiceService) IssueInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "issue")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := invoice.GetVersion()
	if err := invoice.Issue(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The invoice stays SENT until a payment or the overdue sweep
	// re-derives its status.
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.publishDomainEvents(ctx, invoice)

	return invoice, nil
}

// CancelInvoice cancels an invoice that has no recorded payments
func (s *InvoiceService) CancelInvoice(ctx context.Context, invoiceID uuid.UUID, reason string) (*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "cancel")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := invoice.GetVersion()
	if err := invoice.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.publishDomainEvents(ctx, invoice)

	return invoice, nil
}

// DeliveryChannel identifies how an invoice was delivered to the client
type DeliveryChannel string

const (
	DeliveryChannelEmail    DeliveryChannel = "EMAIL"
	DeliveryChannelWhatsapp DeliveryChannel = "WHATSAPP"
)

// MarkDelivered records that the invoice was delivered over a channel
func (s *InvoiceService) MarkDelivered(ctx context.Context, invoiceID uuid.UUID, channel DeliveryChannel, at time.Time) (*billing.Invoice, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	switch channel {
	case DeliveryChannelEmail:
		invoice.MarkEmailSent(at)
	case DeliveryChannelWhatsapp:
		invoice.MarkWhatsappSent(at)
	default:
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Delivery channel is not valid")
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return invoice, nil
}

// GetInvoice retrieves an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.findInvoice(ctx, invoiceID)
}

// GetInvoiceByNumber retrieves an invoice by its invoice number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

// ListInvoices lists invoices with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, filter billing.InvoiceFilter) (*shared.Paginated[billing.Invoice], error) {
	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(invoices, total, page, pageSize)
	return &result, nil
}

// SweepResult summarizes one overdue sweep pass
type SweepResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// SweepOverdue recomputes the status of invoices past their due date.
// Running the sweep twice over the same data is a no-op the second time.
func (s *InvoiceService) SweepOverdue(ctx context.Context, asOf time.Time, batchSize int) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "sweep_overdue")
	defer span.End()

	if batchSize <= 0 {
		batchSize = 500
	}

	candidates, err := s.invoiceRepo.FindSweepCandidates(ctx, asOf, batchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to find sweep candidates: %w", err)
	}

	result := &SweepResult{Scanned: len(candidates)}
	for i := range candidates {
		invoice := &candidates[i]
		expectedVersion := invoice.GetVersion()
		if !invoice.ReevaluateStatus(asOf) {
			continue
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice, expectedVersion); err != nil {
			// Lost a concurrent update; the next sweep picks it up again
			result.Failed++
			continue
		}
		s.publishDomainEvents(ctx, invoice)
		result.Updated++
	}

	telemetry.SetAttributes(span,
		"scanned", result.Scanned,
		"updated", result.Updated,
		"failed", result.Failed,
	)

	return result, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

func (s *InvoiceService) publishDomainEvents(ctx context.Context, invoice *billing.Invoice) {
	if s.eventPublisher == nil {
		return
	}
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	invoice.ClearDomainEvents()
}

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/billing"
	settlementdomain "github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// PaymentRecorderService records payments against invoices. Recording a
// payment updates the invoice's paid amount and derived status, advances
// the linked installment, and posts a credit to the client's ledger, all
// within one transaction.
type PaymentRecorderService struct {
	txScope        TransactionScope
	paymentRepo    billing.PaymentRepository
	eventPublisher shared.EventPublisher
}

// NewPaymentRecorderService creates a new PaymentRecorderService. The
// paymentRepo serves the read paths; all writes go through the scope.
func NewPaymentRecorderService(
	txScope TransactionScope,
	paymentRepo billing.PaymentRepository,
	eventPublisher shared.EventPublisher,
) *PaymentRecorderService {
	return &PaymentRecorderService{
		txScope:        txScope,
		paymentRepo:    paymentRepo,
		eventPublisher: eventPublisher,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	InvoiceID   uuid.UUID             `json:"invoice_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Method      billing.PaymentMethod `json:"method"`
	PaidAt      time.Time             `json:"paid_at"`
	ExternalRef string                `json:"external_ref"`
	Remark      string                `json:"remark"`
}

// RecordPaymentResult represents the outcome of recording a payment
type RecordPaymentResult struct {
	Payment         *billing.Payment      `json:"payment"`
	InvoiceStatus   billing.InvoiceStatus `json:"invoice_status"`
	RemainingAmount decimal.Decimal       `json:"remaining_amount"`
	ExcessFlagged   bool                  `json:"excess_flagged"`
}

// RecordPayment records a payment against an invoice
func (s *PaymentRecorderService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, req.InvoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		"method", string(req.Method),
	)

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	var (
		invoice *billing.Invoice
		payment *billing.Payment
		pending []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}
		if invoice == nil {
			return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
		}

		amount := valueobject.NewMoneyINR(req.Amount)
		payment, err = billing.NewPayment(req.InvoiceID, invoice.DealID, amount, req.Method, paidAt, req.ExternalRef, req.Remark)
		if err != nil {
			return err
		}

		invoiceVersion := invoice.GetVersion()
		if err := invoice.ApplyPayment(amount, paidAt); err != nil {
			return err
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice, invoiceVersion); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if err := s.advanceInstallment(ctx, repos, invoice, req.Amount, &pending); err != nil {
			return err
		}

		if ledgerRepo := repos.LedgerRepo(); ledgerRepo != nil {
			_, err := settlement.AppendEntryWith(ctx, ledgerRepo, settlement.AppendEntryRequest{
				LedgerType:      settlementdomain.LedgerTypeCustomer,
				ScopeID:         invoice.ClientID,
				TransactionType: settlementdomain.LedgerTxnInvoicePayment,
				TransactionDate: paidAt,
				Credit:          req.Amount,
				Description:     fmt.Sprintf("Payment %s against invoice %s", payment.PaymentNumber, invoice.InvoiceNumber),
				SourceID:        &payment.ID,
			})
			if err != nil {
				return err
			}
		}

		pending = append(pending, invoice.GetDomainEvents()...)
		invoice.ClearDomainEvents()
		pending = append(pending, payment.GetDomainEvents()...)
		payment.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Events go out only after the transaction has committed.
	s.publishEvents(ctx, pending)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentNumber, payment.PaymentNumber,
		telemetry.SpanAttrInvoiceStatus, string(invoice.Status),
	)

	return &RecordPaymentResult{
		Payment:         payment,
		InvoiceStatus:   invoice.Status,
		RemainingAmount: invoice.RemainingAmount(),
		ExcessFlagged:   invoice.ExcessFlagged,
	}, nil
}

// advanceInstallment applies the paid amount to the installment the invoice
// bills, capped at the installment's remaining amount so an overpayment on
// the invoice never overruns the schedule.
func (s *PaymentRecorderService) advanceInstallment(ctx context.Context, repos TransactionalRepositories, invoice *billing.Invoice, amount decimal.Decimal, pending *[]shared.DomainEvent) error {
	if invoice.ScheduleID == nil || invoice.InstallmentSeq == nil {
		return nil
	}

	schedule, err := repos.ScheduleRepo().FindByIDForUpdate(ctx, *invoice.ScheduleID)
	if err != nil {
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return shared.NewDomainError("SCHEDULE_NOT_FOUND", "Payment schedule not found")
	}

	inst, ok := schedule.FindInstallment(*invoice.InstallmentSeq)
	if !ok {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", "Installment not found on schedule")
	}

	applied := amount
	if remaining := inst.RemainingAmount(); applied.GreaterThan(remaining) {
		applied = remaining
	}
	if applied.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	scheduleVersion := schedule.GetVersion()
	if err := schedule.ApplyInstallmentPayment(*invoice.InstallmentSeq, valueobject.NewMoneyINR(applied)); err != nil {
		return err
	}
	if err := repos.ScheduleRepo().SaveWithLock(ctx, schedule, scheduleVersion); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	*pending = append(*pending, schedule.GetDomainEvents()...)
	schedule.ClearDomainEvents()

	return nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentRecorderService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return payment, nil
}

// ListPaymentsByInvoice lists the payments recorded against an invoice
func (s *PaymentRecorderService) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.Payment, error) {
	payments, err := s.paymentRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// ListPayments lists payments with filtering and pagination
func (s *PaymentRecorderService) ListPayments(ctx context.Context, filter billing.PaymentFilter) (*shared.Paginated[billing.Payment], error) {
	payments, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(payments, total, page, pageSize)
	return &result, nil
}

func (s *PaymentRecorderService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

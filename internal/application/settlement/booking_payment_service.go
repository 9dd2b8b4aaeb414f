package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// BookingPaymentService records initial booking payments. Each booking
// payment posts a credit to the client's ledger.
type BookingPaymentService struct {
	bookingRepo    settlement.BookingPaymentRepository
	ledgerService  *LedgerService
	eventPublisher shared.EventPublisher
}

// NewBookingPaymentService creates a new BookingPaymentService
func NewBookingPaymentService(
	bookingRepo settlement.BookingPaymentRepository,
	ledgerService *LedgerService,
	eventPublisher shared.EventPublisher,
) *BookingPaymentService {
	return &BookingPaymentService{
		bookingRepo:    bookingRepo,
		ledgerService:  ledgerService,
		eventPublisher: eventPublisher,
	}
}

// RecordBookingPaymentRequest represents a request to record a booking payment
type RecordBookingPaymentRequest struct {
	DealID          uuid.UUID       `json:"deal_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	PaidAt          time.Time       `json:"paid_at"`
	ReferenceNumber string          `json:"reference_number"`
	UTR             string          `json:"utr"`
	Remark          string          `json:"remark"`
}

// RecordBookingPayment records a booking payment and credits the client's ledger
func (s *BookingPaymentService) RecordBookingPayment(ctx context.Context, req RecordBookingPaymentRequest) (*settlement.BookingPayment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "booking_payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDealID, req.DealID.String(),
		telemetry.SpanAttrClientID, req.ClientID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	booking, err := settlement.NewBookingPayment(
		req.DealID,
		req.ClientID,
		valueobject.NewMoneyINR(req.Amount),
		req.Method,
		req.PaidAt,
		req.ReferenceNumber,
		req.UTR,
		req.Remark,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.bookingRepo.Save(ctx, booking); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save booking payment: %w", err)
	}

	if s.ledgerService != nil {
		_, err := s.ledgerService.AppendEntry(ctx, AppendEntryRequest{
			LedgerType:      settlement.LedgerTypeCustomer,
			ScopeID:         booking.ClientID,
			TransactionType: settlement.LedgerTxnBookingPayment,
			TransactionDate: booking.PaidAt,
			Credit:          booking.Amount,
			Description:     fmt.Sprintf("Booking payment %s received", booking.PaymentNumber),
			SourceID:        &booking.ID,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.publishDomainEvents(ctx, booking)

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentNumber, booking.PaymentNumber)

	return booking, nil
}

// GetBookingPayment retrieves a booking payment by ID
func (s *BookingPaymentService) GetBookingPayment(ctx context.Context, id uuid.UUID) (*settlement.BookingPayment, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking payment: %w", err)
	}
	if booking == nil {
		return nil, shared.NewDomainError("BOOKING_PAYMENT_NOT_FOUND", "Booking payment not found")
	}
	return booking, nil
}

// ListBookingPaymentsByDeal lists the booking payments belonging to a deal
func (s *BookingPaymentService) ListBookingPaymentsByDeal(ctx context.Context, dealID uuid.UUID) ([]settlement.BookingPayment, error) {
	bookings, err := s.bookingRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking payments: %w", err)
	}
	return bookings, nil
}

// ListUnreconciled lists booking payments no bank transaction has matched yet
func (s *BookingPaymentService) ListUnreconciled(ctx context.Context) ([]settlement.BookingPayment, error) {
	bookings, err := s.bookingRepo.FindUnreconciled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled booking payments: %w", err)
	}
	return bookings, nil
}

func (s *BookingPaymentService) publishDomainEvents(ctx context.Context, booking *settlement.BookingPayment) {
	if s.eventPublisher == nil {
		return
	}
	events := booking.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	booking.ClearDomainEvents()
}

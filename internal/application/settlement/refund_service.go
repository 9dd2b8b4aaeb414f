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

// RefundService manages the refund approval workflow. Processing a refund
// posts a debit to the client's ledger for the net amount.
type RefundService struct {
	refundRepo     settlement.RefundRepository
	ledgerService  *LedgerService
	eventPublisher shared.EventPublisher
}

// NewRefundService creates a new RefundService
func NewRefundService(
	refundRepo settlement.RefundRepository,
	ledgerService *LedgerService,
	eventPublisher shared.EventPublisher,
) *RefundService {
	return &RefundService{
		refundRepo:     refundRepo,
		ledgerService:  ledgerService,
		eventPublisher: eventPublisher,
	}
}

// RequestRefundRequest represents a request to open a refund
type RequestRefundRequest struct {
	DealID              uuid.UUID                     `json:"deal_id"`
	ClientID            uuid.UUID                     `json:"client_id"`
	SourceType          *settlement.RefundSourceType  `json:"source_type,omitempty"`
	SourceID            *uuid.UUID                    `json:"source_id,omitempty"`
	Amount              decimal.Decimal               `json:"amount"`
	CancellationCharges decimal.Decimal               `json:"cancellation_charges"`
	Reason              string                        `json:"reason"`
}

// RequestRefund opens a refund in Pending status
func (s *RefundService) RequestRefund(ctx context.Context, req RequestRefundRequest) (*settlement.Refund, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "request")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDealID, req.DealID.String(),
		telemetry.SpanAttrClientID, req.ClientID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	refund, err := settlement.NewRefund(
		req.DealID,
		req.ClientID,
		req.SourceType,
		req.SourceID,
		valueobject.NewMoneyINR(req.Amount),
		valueobject.NewMoneyINR(req.CancellationCharges),
		req.Reason,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.refundRepo.Save(ctx, refund); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	s.publishDomainEvents(ctx, refund)

	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refund.ID.String())

	return refund, nil
}

// ApproveRefund approves a pending refund
func (s *RefundService) ApproveRefund(ctx context.Context, refundID, approvedBy uuid.UUID) (*settlement.Refund, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "approve")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refundID.String())

	refund, err := s.findRefund(ctx, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := refund.GetVersion()
	if err := refund.Approve(approvedBy); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.refundRepo.SaveWithLock(ctx, refund, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	s.publishDomainEvents(ctx, refund)

	return refund, nil
}

// ProcessRefund pays out an approved refund and debits the client's ledger
// with the net amount
func (s *RefundService) ProcessRefund(ctx context.Context, refundID uuid.UUID) (*settlement.Refund, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "process")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refundID.String())

	refund, err := s.findRefund(ctx, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := refund.GetVersion()
	if err := refund.Process(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.refundRepo.SaveWithLock(ctx, refund, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	if s.ledgerService != nil && refund.NetRefundAmount.GreaterThan(decimal.Zero) {
		_, err := s.ledgerService.AppendEntry(ctx, AppendEntryRequest{
			LedgerType:      settlement.LedgerTypeCustomer,
			ScopeID:         refund.ClientID,
			TransactionType: settlement.LedgerTxnRefund,
			TransactionDate: time.Now(),
			Debit:           refund.NetRefundAmount,
			Description:     fmt.Sprintf("Refund %s processed", refund.RefundNumber),
			SourceID:        &refund.ID,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.publishDomainEvents(ctx, refund)

	return refund, nil
}

// RejectRefund rejects a pending refund with a reason
func (s *RefundService) RejectRefund(ctx context.Context, refundID uuid.UUID, reason string) (*settlement.Refund, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "reject")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrRefundID, refundID.String())

	refund, err := s.findRefund(ctx, refundID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := refund.GetVersion()
	if err := refund.Reject(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.refundRepo.SaveWithLock(ctx, refund, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	s.publishDomainEvents(ctx, refund)

	return refund, nil
}

// GetRefund retrieves a refund by ID
func (s *RefundService) GetRefund(ctx context.Context, refundID uuid.UUID) (*settlement.Refund, error) {
	return s.findRefund(ctx, refundID)
}

// ListRefunds lists refunds with filtering and pagination
func (s *RefundService) ListRefunds(ctx context.Context, filter settlement.RefundFilter) (*shared.Paginated[settlement.Refund], error) {
	refunds, err := s.refundRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	total, err := s.refundRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count refunds: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(refunds, total, page, pageSize)
	return &result, nil
}

func (s *RefundService) findRefund(ctx context.Context, refundID uuid.UUID) (*settlement.Refund, error) {
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	if refund == nil {
		return nil, shared.NewDomainError("REFUND_NOT_FOUND", "Refund not found")
	}
	return refund, nil
}

func (s *RefundService) publishDomainEvents(ctx context.Context, refund *settlement.Refund) {
	if s.eventPublisher == nil {
		return
	}
	events := refund.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	refund.ClearDomainEvents()
}

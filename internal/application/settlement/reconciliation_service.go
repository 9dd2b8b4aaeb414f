package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// ReconciliationService matches imported bank transactions against
// recorded payments and booking payments
type ReconciliationService struct {
	bankTxnRepo    settlement.BankTransactionRepository
	paymentRepo    billing.PaymentRepository
	bookingRepo    settlement.BookingPaymentRepository
	eventPublisher shared.EventPublisher
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	bankTxnRepo settlement.BankTransactionRepository,
	paymentRepo billing.PaymentRepository,
	bookingRepo settlement.BookingPaymentRepository,
	eventPublisher shared.EventPublisher,
) *ReconciliationService {
	return &ReconciliationService{
		bankTxnRepo:    bankTxnRepo,
		paymentRepo:    paymentRepo,
		bookingRepo:    bookingRepo,
		eventPublisher: eventPublisher,
	}
}

// IngestBankTransactionRequest represents one imported bank statement line
type IngestBankTransactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	ReferenceNumber string          `json:"reference_number"`
	UTR             string          `json:"utr"`
	BankName        string          `json:"bank_name"`
}

// IngestBankTransaction registers one bank statement line for matching
func (s *ReconciliationService) IngestBankTransaction(ctx context.Context, req IngestBankTransactionRequest) (*settlement.BankTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "ingest")
	defer span.End()

	txn, err := settlement.NewBankTransaction(
		valueobject.NewMoneyINR(req.Amount),
		req.TransactionDate,
		req.ReferenceNumber,
		req.UTR,
		req.BankName,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.bankTxnRepo.Save(ctx, txn); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save bank transaction: %w", err)
	}

	s.publishDomainEvents(ctx, txn)

	return txn, nil
}

// MatchOutcome describes what happened to one transaction during a pass
type MatchOutcome string

const (
	MatchOutcomeMatched   MatchOutcome = "MATCHED"
	MatchOutcomeAmbiguous MatchOutcome = "AMBIGUOUS"
	MatchOutcomeUnmatched MatchOutcome = "UNMATCHED"
)

// AutoMatchResult summarizes one automatic matching pass
type AutoMatchResult struct {
	Scanned   int `json:"scanned"`
	Matched   int `json:"matched"`
	Ambiguous int `json:"ambiguous"`
	Unmatched int `json:"unmatched"`
	Failed    int `json:"failed"`
}

// AutoMatch runs the automatic matching pass over pending bank
// transactions. A transaction matches when exactly one payment or booking
// payment carries the same reference or UTR with the same amount;
// ambiguous transactions stay pending for manual review.
func (s *ReconciliationService) AutoMatch(ctx context.Context, limit int) (*AutoMatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "auto_match")
	defer span.End()

	if limit <= 0 {
		limit = 200
	}

	pending, err := s.bankTxnRepo.FindPending(ctx, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to find pending transactions: %w", err)
	}

	result := &AutoMatchResult{Scanned: len(pending)}
	for i := range pending {
		txn := &pending[i]
		outcome, err := s.matchOne(ctx, txn)
		if err != nil {
			result.Failed++
			continue
		}
		switch outcome {
		case MatchOutcomeMatched:
			result.Matched++
		case MatchOutcomeAmbiguous:
			result.Ambiguous++
		case MatchOutcomeUnmatched:
			result.Unmatched++
		}
	}

	telemetry.SetAttributes(span,
		"scanned", result.Scanned,
		"matched", result.Matched,
		"ambiguous", result.Ambiguous,
		"unmatched", result.Unmatched,
	)

	return result, nil
}

type matchCandidate struct {
	recordType settlement.MatchedRecordType
	recordID   uuid.UUID
}

func (s *ReconciliationService) matchOne(ctx context.Context, txn *settlement.BankTransaction) (MatchOutcome, error) {
	candidates, err := s.findCandidates(ctx, txn)
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		version := txn.GetVersion()
		if !txn.MarkUnmatched() {
			return MatchOutcomeUnmatched, nil
		}
		if err := s.bankTxnRepo.SaveWithLock(ctx, txn, version); err != nil {
			return "", fmt.Errorf("failed to save bank transaction: %w", err)
		}
		return MatchOutcomeUnmatched, nil
	}

	if len(candidates) > 1 {
		// Left pending; an operator resolves it manually
		return MatchOutcomeAmbiguous, nil
	}

	version := txn.GetVersion()
	candidate := candidates[0]
	switch candidate.recordType {
	case settlement.MatchedRecordPayment:
		err = txn.MatchToPayment(candidate.recordID, nil)
	case settlement.MatchedRecordBooking:
		err = txn.MatchToBooking(candidate.recordID, nil)
	}
	if err != nil {
		return "", err
	}

	if err := s.bankTxnRepo.SaveWithLock(ctx, txn, version); err != nil {
		return "", fmt.Errorf("failed to save bank transaction: %w", err)
	}

	s.publishDomainEvents(ctx, txn)

	return MatchOutcomeMatched, nil
}

// findCandidates collects payments and booking payments whose reference or
// UTR equals the transaction's, with the same amount
func (s *ReconciliationService) findCandidates(ctx context.Context, txn *settlement.BankTransaction) ([]matchCandidate, error) {
	refs := make([]string, 0, 2)
	if txn.ReferenceNumber != "" {
		refs = append(refs, txn.ReferenceNumber)
	}
	if txn.UTR != "" && txn.UTR != txn.ReferenceNumber {
		refs = append(refs, txn.UTR)
	}

	seen := make(map[uuid.UUID]bool)
	candidates := make([]matchCandidate, 0, 2)
	for _, ref := range refs {
		payments, err := s.paymentRepo.FindUnmatchedByExternalRef(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to find payments: %w", err)
		}
		for _, p := range payments {
			if seen[p.ID] || !p.Amount.Equal(txn.Amount) {
				continue
			}
			seen[p.ID] = true
			candidates = append(candidates, matchCandidate{settlement.MatchedRecordPayment, p.ID})
		}

		bookings, err := s.bookingRepo.FindUnmatchedByReference(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to find booking payments: %w", err)
		}
		for _, b := range bookings {
			if seen[b.ID] || !b.Amount.Equal(txn.Amount) {
				continue
			}
			seen[b.ID] = true
			candidates = append(candidates, matchCandidate{settlement.MatchedRecordBooking, b.ID})
		}
	}
	return candidates, nil
}

// MatchManuallyRequest represents an operator's explicit match decision
type MatchManuallyRequest struct {
	TransactionID uuid.UUID                    `json:"transaction_id"`
	RecordType    settlement.MatchedRecordType `json:"record_type"`
	RecordID      uuid.UUID                    `json:"record_id"`
	MatchedBy     uuid.UUID                    `json:"matched_by"`
}

// MatchManually links a bank transaction to a payment or booking payment
// by operator decision. The target record must exist; an already matched
// transaction is rejected.
func (s *ReconciliationService) MatchManually(ctx context.Context, req MatchManuallyRequest) (*settlement.BankTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "match_manually")
	defer span.End()

	telemetry.SetAttributes(span,
		"transaction_id", req.TransactionID.String(),
		"record_type", string(req.RecordType),
		"record_id", req.RecordID.String(),
	)

	txn, err := s.bankTxnRepo.FindByID(ctx, req.TransactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get bank transaction: %w", err)
	}
	if txn == nil {
		err := shared.NewDomainError("TRANSACTION_NOT_FOUND", "Bank transaction not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	version := txn.GetVersion()
	switch req.RecordType {
	case settlement.MatchedRecordPayment:
		payment, err := s.paymentRepo.FindByID(ctx, req.RecordID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to get payment: %w", err)
		}
		if payment == nil {
			err := shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
			telemetry.RecordError(span, err)
			return nil, err
		}
		err = txn.MatchToPayment(payment.ID, &req.MatchedBy)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	case settlement.MatchedRecordBooking:
		booking, err := s.bookingRepo.FindByID(ctx, req.RecordID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to get booking payment: %w", err)
		}
		if booking == nil {
			err := shared.NewDomainError("BOOKING_PAYMENT_NOT_FOUND", "Booking payment not found")
			telemetry.RecordError(span, err)
			return nil, err
		}
		err = txn.MatchToBooking(booking.ID, &req.MatchedBy)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	default:
		err := shared.NewDomainError("INVALID_RECORD_TYPE", "Matched record type is not valid")
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.bankTxnRepo.SaveWithLock(ctx, txn, version); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save bank transaction: %w", err)
	}

	s.publishDomainEvents(ctx, txn)

	return txn, nil
}

// GetBankTransaction retrieves a bank transaction by ID
func (s *ReconciliationService) GetBankTransaction(ctx context.Context, id uuid.UUID) (*settlement.BankTransaction, error) {
	txn, err := s.bankTxnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank transaction: %w", err)
	}
	if txn == nil {
		return nil, shared.NewDomainError("TRANSACTION_NOT_FOUND", "Bank transaction not found")
	}
	return txn, nil
}

// ListBankTransactions lists bank transactions with filtering and pagination
func (s *ReconciliationService) ListBankTransactions(ctx context.Context, filter settlement.BankTransactionFilter) (*shared.Paginated[settlement.BankTransaction], error) {
	txns, err := s.bankTxnRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	total, err := s.bankTxnRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count bank transactions: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(txns, total, page, pageSize)
	return &result, nil
}

func (s *ReconciliationService) publishDomainEvents(ctx context.Context, txn *settlement.BankTransaction) {
	if s.eventPublisher == nil {
		return
	}
	events := txn.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	txn.ClearDomainEvents()
}

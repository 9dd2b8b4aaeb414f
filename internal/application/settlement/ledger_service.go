package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// ledgerAppendRetries bounds the optimistic retry loop when two writers
// race to extend the same scope's balance chain
const ledgerAppendRetries = 3

// LedgerService manages the append-only account ledgers
type LedgerService struct {
	ledgerRepo settlement.LedgerRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo settlement.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// AppendEntryRequest represents a request to append one ledger line
type AppendEntryRequest struct {
	LedgerType      settlement.LedgerType            `json:"ledger_type"`
	ScopeID         uuid.UUID                        `json:"scope_id"`
	TransactionType settlement.LedgerTransactionType `json:"transaction_type"`
	TransactionDate time.Time                        `json:"transaction_date"`
	Debit           decimal.Decimal                  `json:"debit"`
	Credit          decimal.Decimal                  `json:"credit"`
	Description     string                           `json:"description"`
	SourceID        *uuid.UUID                       `json:"source_id,omitempty"`
}

// AppendEntry appends one entry to a scope's balance chain. The running
// balance is recomputed from the latest persisted entry; a concurrent
// append to the same scope is retried from the fresh balance.
func (s *LedgerService) AppendEntry(ctx context.Context, req AppendEntryRequest) (*settlement.LedgerEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "append")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrLedgerType, string(req.LedgerType),
		telemetry.SpanAttrScopeID, req.ScopeID.String(),
		"transaction_type", string(req.TransactionType),
	)

	var lastErr error
	for attempt := 0; attempt < ledgerAppendRetries; attempt++ {
		entry, err := AppendEntryWith(ctx, s.ledgerRepo, req)
		if err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			telemetry.RecordError(span, err)
			return nil, err
		}

		telemetry.SetAttribute(span, "balance", entry.Balance.String())
		return entry, nil
	}

	telemetry.RecordError(span, lastErr)
	return nil, fmt.Errorf("ledger append lost %d concurrent races: %w", ledgerAppendRetries, lastErr)
}

// AppendEntryWith appends one entry through the supplied repository, single
// attempt. Services that post ledger lines inside their own transaction use
// it with a transaction-scoped repository; a chain conflict surfaces as an
// error and rolls the caller's transaction back with everything else.
func AppendEntryWith(ctx context.Context, repo settlement.LedgerRepository, req AppendEntryRequest) (*settlement.LedgerEntry, error) {
	previous, err := repo.LastBalance(ctx, req.LedgerType, req.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope balance: %w", err)
	}

	entry, err := settlement.NewLedgerEntry(
		req.LedgerType,
		req.ScopeID,
		req.TransactionType,
		req.TransactionDate,
		valueobject.NewMoneyINR(req.Debit),
		valueobject.NewMoneyINR(req.Credit),
		previous,
		req.Description,
		req.SourceID,
	)
	if err != nil {
		return nil, err
	}

	if err := repo.Append(ctx, entry); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return entry, nil
}

// ScopeStatement is the ledger view for one scope
type ScopeStatement struct {
	LedgerType settlement.LedgerType    `json:"ledger_type"`
	ScopeID    uuid.UUID                `json:"scope_id"`
	Balance    decimal.Decimal          `json:"balance"`
	Entries    []settlement.LedgerEntry `json:"entries"`
}

// GetScopeStatement returns a scope's entries with the current balance
func (s *LedgerService) GetScopeStatement(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID, filter settlement.LedgerFilter) (*ScopeStatement, error) {
	if !ledgerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_LEDGER_TYPE", "Ledger type is not valid")
	}
	if scopeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Scope ID cannot be empty")
	}

	entries, err := s.ledgerRepo.FindByScope(ctx, ledgerType, scopeID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	balance, err := s.ledgerRepo.LastBalance(ctx, ledgerType, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope balance: %w", err)
	}

	return &ScopeStatement{
		LedgerType: ledgerType,
		ScopeID:    scopeID,
		Balance:    balance,
		Entries:    entries,
	}, nil
}

// VerifyScope replays a scope's balance chain oldest-first and reports the
// first divergent entry, if any
func (s *LedgerService) VerifyScope(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID) (bool, int, error) {
	filter := settlement.LedgerFilter{}
	filter.OrderBy = "sequence"
	filter.OrderDir = "asc"
	filter.PageSize = -1 // full chain

	entries, err := s.ledgerRepo.FindByScope(ctx, ledgerType, scopeID, filter)
	if err != nil {
		return false, -1, fmt.Errorf("failed to read ledger: %w", err)
	}

	consistent, divergentIndex := settlement.ReplayBalances(entries)
	return consistent, divergentIndex, nil
}

// ListEntries lists ledger entries with filtering and pagination
func (s *LedgerService) ListEntries(ctx context.Context, filter settlement.LedgerFilter) (*shared.Paginated[settlement.LedgerEntry], error) {
	entries, err := s.ledgerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	total, err := s.ledgerRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(entries, total, page, pageSize)
	return &result, nil
}

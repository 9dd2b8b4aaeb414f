package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/domain/settlement"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/infrastructure/telemetry"
)

// CommissionService manages commission calculation, splits, and payout
type CommissionService struct {
	commissionRepo commission.CommissionRepository
	agentDirectory commission.AgentDirectory
	strategy       commission.AssignmentStrategy
	ledgerService  *settlementapp.LedgerService
	eventPublisher shared.EventPublisher
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(
	commissionRepo commission.CommissionRepository,
	agentDirectory commission.AgentDirectory,
	strategy commission.AssignmentStrategy,
	ledgerService *settlementapp.LedgerService,
	eventPublisher shared.EventPublisher,
) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		agentDirectory: agentDirectory,
		strategy:       strategy,
		ledgerService:  ledgerService,
		eventPublisher: eventPublisher,
	}
}

// CalculateCommissionRequest represents a request to calculate a commission
type CalculateCommissionRequest struct {
	DealID      uuid.UUID                 `json:"deal_id"`
	ProjectID   *uuid.UUID                `json:"project_id,omitempty"`
	AgentID     uuid.UUID                 `json:"agent_id"`
	AgentName   string                    `json:"agent_name"`
	Role        commission.AgentRole      `json:"role"`
	Type        commission.CommissionType `json:"type"`
	DealValue   decimal.Decimal           `json:"deal_value"`
	Percentage  *decimal.Decimal          `json:"percentage,omitempty"`
	FixedAmount *decimal.Decimal          `json:"fixed_amount,omitempty"`
}

// CalculateCommission computes and freezes a commission for an agent.
// A percentage commission with no explicit percentage falls back to the
// default rate.
func (s *CommissionService) CalculateCommission(ctx context.Context, req CalculateCommissionRequest) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "calculate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDealID, req.DealID.String(),
		"agent_id", req.AgentID.String(),
		"commission_type", string(req.Type),
	)

	percentage := req.Percentage
	if req.Type == commission.CommissionTypePercentage && percentage == nil {
		def := commission.DefaultCommissionPercentage
		percentage = &def
	}

	comm, err := commission.NewCommission(
		req.DealID,
		req.ProjectID,
		req.AgentID,
		req.AgentName,
		req.Role,
		req.Type,
		valueobject.NewMoneyINR(req.DealValue),
		percentage,
		req.FixedAmount,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.commissionRepo.Save(ctx, comm); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}

	s.publishDomainEvents(ctx, comm)

	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, comm.CalculatedAmount.String())

	return comm, nil
}

// DealClosedRequest carries the facts of a closed deal that drive the
// automatic commission
type DealClosedRequest struct {
	DealID    uuid.UUID       `json:"deal_id"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	DealValue decimal.Decimal `json:"deal_value"`
	AgentID   *uuid.UUID      `json:"agent_id,omitempty"`
	AgentName string          `json:"agent_name,omitempty"`
}

// OnDealClosed creates the commission for a freshly closed deal. When the
// deal carries no agent, one is assigned from the active roster; the rate
// falls back to the default percentage.
func (s *CommissionService) OnDealClosed(ctx context.Context, req DealClosedRequest) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "on_deal_closed")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrDealID, req.DealID.String())

	agentID := req.AgentID
	agentName := req.AgentName
	if agentID == nil {
		selected, err := s.AssignAgent(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		agentID = &selected.AgentID
		agentName = selected.AgentName
	}

	return s.CalculateCommission(ctx, CalculateCommissionRequest{
		DealID:    req.DealID,
		ProjectID: req.ProjectID,
		AgentID:   *agentID,
		AgentName: agentName,
		Role:      commission.AgentRolePrimary,
		Type:      commission.CommissionTypePercentage,
		DealValue: req.DealValue,
	})
}

// AssignAgent picks an agent from the active roster using the configured
// assignment strategy
func (s *CommissionService) AssignAgent(ctx context.Context) (*commission.AgentCandidate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "assign_agent")
	defer span.End()

	if s.agentDirectory == nil || s.strategy == nil {
		err := shared.NewDomainError("NOT_CONFIGURED", "Agent assignment is not configured")
		telemetry.RecordError(span, err)
		return nil, err
	}

	candidates, err := s.agentDirectory.ActiveAgents(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list active agents: %w", err)
	}

	selected, err := s.strategy.SelectAgent(ctx, candidates)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"strategy", s.strategy.Name(),
		"agent_id", selected.AgentID.String(),
	)

	return selected, nil
}

// CreateSplits allocates a commission across multiple agents
func (s *CommissionService) CreateSplits(ctx context.Context, commissionID uuid.UUID, inputs []commission.SplitInput) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "create_splits")
	defer span.End()

	telemetry.SetAttribute(span, "commission_id", commissionID.String())

	comm, err := s.findCommission(ctx, commissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := comm.GetVersion()
	if err := comm.CreateSplits(inputs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, comm, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}

	s.publishDomainEvents(ctx, comm)

	return comm, nil
}

// ApproveCommission approves a pending commission
func (s *CommissionService) ApproveCommission(ctx context.Context, commissionID, approvedBy uuid.UUID) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "approve")
	defer span.End()

	telemetry.SetAttribute(span, "commission_id", commissionID.String())

	comm, err := s.findCommission(ctx, commissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := comm.GetVersion()
	if err := comm.Approve(approvedBy); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, comm, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}

	s.publishDomainEvents(ctx, comm)

	return comm, nil
}

// MarkCommissionPaid records the payout of an approved commission and
// debits the ledger of the commission's project
func (s *CommissionService) MarkCommissionPaid(ctx context.Context, commissionID uuid.UUID, paidDate time.Time) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "mark_paid")
	defer span.End()

	telemetry.SetAttribute(span, "commission_id", commissionID.String())

	comm, err := s.findCommission(ctx, commissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := comm.GetVersion()
	if err := comm.MarkPaid(paidDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, comm, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}

	// Payouts without a known project have no project ledger to debit.
	if s.ledgerService != nil && comm.ProjectID != nil {
		_, err := s.ledgerService.AppendEntry(ctx, settlementapp.AppendEntryRequest{
			LedgerType:      settlement.LedgerTypeProject,
			ScopeID:         *comm.ProjectID,
			TransactionType: settlement.LedgerTxnCommissionPayout,
			TransactionDate: paidDate,
			Debit:           comm.CalculatedAmount,
			Description:     fmt.Sprintf("Commission payout to %s", comm.AgentName),
			SourceID:        &comm.ID,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.publishDomainEvents(ctx, comm)

	return comm, nil
}

// CancelCommission cancels a commission that has not been paid out
func (s *CommissionService) CancelCommission(ctx context.Context, commissionID uuid.UUID, reason string) (*commission.Commission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "cancel")
	defer span.End()

	telemetry.SetAttribute(span, "commission_id", commissionID.String())

	comm, err := s.findCommission(ctx, commissionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedVersion := comm.GetVersion()
	if err := comm.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.commissionRepo.SaveWithLock(ctx, comm, expectedVersion); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save commission: %w", err)
	}

	s.publishDomainEvents(ctx, comm)

	return comm, nil
}

// GetCommission retrieves a commission by ID
func (s *CommissionService) GetCommission(ctx context.Context, commissionID uuid.UUID) (*commission.Commission, error) {
	return s.findCommission(ctx, commissionID)
}

// GetCommissionsByDeal retrieves the commissions belonging to a deal
func (s *CommissionService) GetCommissionsByDeal(ctx context.Context, dealID uuid.UUID) ([]commission.Commission, error) {
	comms, err := s.commissionRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	return comms, nil
}

// ListCommissions lists commissions with filtering and pagination
func (s *CommissionService) ListCommissions(ctx context.Context, filter commission.CommissionFilter) (*shared.Paginated[commission.Commission], error) {
	comms, err := s.commissionRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	total, err := s.commissionRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count commissions: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	result := shared.NewPaginated(comms, total, page, pageSize)
	return &result, nil
}

func (s *CommissionService) findCommission(ctx context.Context, commissionID uuid.UUID) (*commission.Commission, error) {
	comm, err := s.commissionRepo.FindByID(ctx, commissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	if comm == nil {
		return nil, shared.NewDomainError("COMMISSION_NOT_FOUND", "Commission not found")
	}
	return comm, nil
}

func (s *CommissionService) publishDomainEvents(ctx context.Context, comm *commission.Commission) {
	if s.eventPublisher == nil {
		return
	}
	events := comm.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	comm.ClearDomainEvents()
}

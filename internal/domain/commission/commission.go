package commission

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

// CommissionType determines how the commission amount is computed
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "PERCENTAGE" // Percentage of deal value
	CommissionTypeFixed      CommissionType = "FIXED"      // Flat amount
)

// IsValid checks if the commission type is valid
func (t CommissionType) IsValid() bool {
	return t == CommissionTypePercentage || t == CommissionTypeFixed
}

// CommissionStatus represents the approval state of a commission
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "PENDING"
	CommissionStatusApproved  CommissionStatus = "APPROVED"
	CommissionStatusPaid      CommissionStatus = "PAID"
	CommissionStatusCancelled CommissionStatus = "CANCELLED"
)

// IsValid checks if the status is a valid CommissionStatus
func (s CommissionStatus) IsValid() bool {
	switch s {
	case CommissionStatusPending, CommissionStatusApproved, CommissionStatusPaid, CommissionStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of CommissionStatus
func (s CommissionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the commission is in a terminal state
func (s CommissionStatus) IsTerminal() bool {
	return s == CommissionStatusPaid || s == CommissionStatusCancelled
}

// AgentRole describes an agent's part in closing the deal
type AgentRole string

const (
	AgentRolePrimary  AgentRole = "PRIMARY"
	AgentRoleCoAgent  AgentRole = "CO_AGENT"
	AgentRoleReferrer AgentRole = "REFERRER"
)

// IsValid checks if the agent role is valid
func (r AgentRole) IsValid() bool {
	return r == AgentRolePrimary || r == AgentRoleCoAgent || r == AgentRoleReferrer
}

// DefaultCommissionPercentage applies when a deal closes with no
// agent-specific configuration
var DefaultCommissionPercentage = decimal.NewFromInt(2)

// CommissionSplit allocates a percentage share of a commission to a
// participating agent. It is a value object within the Commission
// aggregate, stored as JSONB.
type CommissionSplit struct {
	ID              uuid.UUID       `json:"id"`
	AgentID         uuid.UUID       `json:"agent_id"`
	AgentName       string          `json:"agent_name"`
	Role            AgentRole       `json:"role"`
	SplitPercentage decimal.Decimal `json:"split_percentage"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GetAllocatedAmountMoney returns the allocation as Money
func (s *CommissionSplit) GetAllocatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(s.AllocatedAmount)
}

// CommissionSplits is a slice of CommissionSplit that implements GORM Scanner/Valuer for JSONB storage
type CommissionSplits []CommissionSplit

// Value implements driver.Valuer interface for GORM to store as JSONB
func (cs CommissionSplits) Value() (driver.Value, error) {
	if cs == nil {
		return "[]", nil
	}
	return json.Marshal(cs)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (cs *CommissionSplits) Scan(value interface{}) error {
	if value == nil {
		*cs = CommissionSplits{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CommissionSplits: unsupported type")
	}

	if len(bytes) == 0 {
		*cs = CommissionSplits{}
		return nil
	}

	return json.Unmarshal(bytes, cs)
}

// SplitInput defines one requested split share
type SplitInput struct {
	AgentID    uuid.UUID
	AgentName  string
	Role       AgentRole
	Percentage decimal.Decimal
}

// Commission is the amount owed to an agent for closing a deal.
// CalculatedAmount is computed once at creation and frozen; once splits
// exist the commission itself becomes immutable apart from status moves.
type Commission struct {
	shared.BaseAggregateRoot
	DealID           uuid.UUID        `json:"deal_id"`
	ProjectID        *uuid.UUID       `json:"project_id,omitempty"` // Project whose ledger carries the payout
	AgentID          uuid.UUID        `json:"agent_id"`
	AgentName        string           `json:"agent_name"`
	Role             AgentRole        `json:"role"`
	Type             CommissionType   `json:"type"`
	DealValue        decimal.Decimal  `json:"deal_value"`
	Percentage       *decimal.Decimal `json:"percentage,omitempty"`   // Set for percentage type
	FixedAmount      *decimal.Decimal `json:"fixed_amount,omitempty"` // Set for fixed type
	CalculatedAmount decimal.Decimal  `json:"calculated_amount"`
	Status           CommissionStatus `json:"status"`
	Splits           CommissionSplits `json:"splits"`
	ApprovedBy       *uuid.UUID       `json:"approved_by"`
	ApprovedAt       *time.Time       `json:"approved_at"`
	PaidDate         *time.Time       `json:"paid_date"`
	CancelledAt      *time.Time       `json:"cancelled_at"`
	CancelReason     string           `json:"cancel_reason"`
}

// NewCommission computes and freezes the commission amount for an agent.
// For percentage type the percentage parameter is required; for fixed type
// the fixedAmount parameter is required.
func NewCommission(
	dealID uuid.UUID,
	projectID *uuid.UUID,
	agentID uuid.UUID,
	agentName string,
	role AgentRole,
	commissionType CommissionType,
	dealValue valueobject.Money,
	percentage *decimal.Decimal,
	fixedAmount *decimal.Decimal,
) (*Commission, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if agentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AGENT", "Agent ID cannot be empty")
	}
	if agentName == "" {
		return nil, shared.NewDomainError("INVALID_AGENT_NAME", "Agent name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Agent role is not valid")
	}
	if !commissionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE", "Commission type is not valid")
	}
	if dealValue.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deal value must be positive")
	}

	var calculated decimal.Decimal
	switch commissionType {
	case CommissionTypePercentage:
		if percentage == nil {
			return nil, shared.NewDomainError("MISSING_PARAMETER", "Percentage is required for percentage commissions")
		}
		if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Percentage must be between 0 and 100")
		}
		calculated = dealValue.Amount().Mul(*percentage).Div(decimal.NewFromInt(100)).Round(2)
	case CommissionTypeFixed:
		if fixedAmount == nil {
			return nil, shared.NewDomainError("MISSING_PARAMETER", "Fixed amount is required for fixed commissions")
		}
		if fixedAmount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Fixed amount must be positive")
		}
		calculated = fixedAmount.Round(2)
	}

	c := &Commission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DealID:            dealID,
		ProjectID:         projectID,
		AgentID:           agentID,
		AgentName:         agentName,
		Role:              role,
		Type:              commissionType,
		DealValue:         dealValue.Amount(),
		Percentage:        percentage,
		FixedAmount:       fixedAmount,
		CalculatedAmount:  calculated,
		Status:            CommissionStatusPending,
		Splits:            CommissionSplits{},
	}

	c.AddDomainEvent(NewCommissionCalculatedEvent(c))

	return c, nil
}

// CreateSplits allocates the commission to multiple agents. The set of
// percentages must sum to exactly 100; each allocated amount is computed
// from the frozen CalculatedAmount and never re-derived.
func (c *Commission) CreateSplits(inputs []SplitInput) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot create splits for commission in %s status", c.Status))
	}
	if len(c.Splits) > 0 {
		return shared.NewDomainError("ALREADY_EXISTS", "Splits have already been created for this commission")
	}
	if len(inputs) == 0 {
		return shared.NewDomainError("INVALID_SPLIT", "At least one split is required")
	}

	total := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		if in.AgentID == uuid.Nil {
			return shared.NewDomainError("INVALID_AGENT", "Split agent ID cannot be empty")
		}
		if seen[in.AgentID] {
			return shared.NewDomainError("INVALID_SPLIT", "The same agent cannot appear in two splits")
		}
		seen[in.AgentID] = true
		if !in.Role.IsValid() {
			return shared.NewDomainError("INVALID_ROLE", "Split agent role is not valid")
		}
		if in.Percentage.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_SPLIT", "Split percentage must be positive")
		}
		total = total.Add(in.Percentage)
	}
	if !total.Equal(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_SPLIT", fmt.Sprintf("Split percentages must sum to exactly 100, got %s", total.String()))
	}

	now := time.Now()
	hundred := decimal.NewFromInt(100)
	splits := make(CommissionSplits, 0, len(inputs))
	allocated := decimal.Zero
	for i, in := range inputs {
		// The last split takes whatever the rounded earlier splits left over,
		// so the allocations always sum to the frozen CalculatedAmount.
		var amount decimal.Decimal
		if i == len(inputs)-1 {
			amount = c.CalculatedAmount.Sub(allocated)
		} else {
			amount = c.CalculatedAmount.Mul(in.Percentage).Div(hundred).Round(2)
			allocated = allocated.Add(amount)
		}
		splits = append(splits, CommissionSplit{
			ID:              uuid.New(),
			AgentID:         in.AgentID,
			AgentName:       in.AgentName,
			Role:            in.Role,
			SplitPercentage: in.Percentage,
			AllocatedAmount: amount,
			CreatedAt:       now,
		})
	}

	c.Splits = splits
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCommissionSplitsCreatedEvent(c))

	return nil
}

// Approve moves the commission from Pending to Approved
func (c *Commission) Approve(approvedBy uuid.UUID) error {
	if c.Status != CommissionStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve commission in %s status", c.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Approver ID cannot be empty")
	}

	now := time.Now()
	c.Status = CommissionStatusApproved
	c.ApprovedBy = &approvedBy
	c.ApprovedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCommissionApprovedEvent(c))

	return nil
}

// MarkPaid moves the commission from Approved to Paid; a paid date is required
func (c *Commission) MarkPaid(paidDate time.Time) error {
	if c.Status != CommissionStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark commission paid in %s status", c.Status))
	}
	if paidDate.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Paid date is required")
	}

	c.Status = CommissionStatusPaid
	c.PaidDate = &paidDate
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCommissionPaidEvent(c))

	return nil
}

// Cancel cancels the commission; reachable from Pending or Approved only
func (c *Commission) Cancel(reason string) error {
	if c.Status != CommissionStatusPending && c.Status != CommissionStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel commission in %s status", c.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	c.Status = CommissionStatusCancelled
	c.CancelledAt = &now
	c.CancelReason = reason
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCommissionCancelledEvent(c))

	return nil
}

// GetCalculatedAmountMoney returns the frozen commission amount as Money
func (c *Commission) GetCalculatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(c.CalculatedAmount)
}

// SplitTotalPercentage returns the sum of all split percentages
func (c *Commission) SplitTotalPercentage() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Splits {
		total = total.Add(c.Splits[i].SplitPercentage)
	}
	return total
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// CommissionModel is the persistence model for the Commission aggregate root.
type CommissionModel struct {
	AggregateModel
	DealID           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ProjectID        *uuid.UUID                  `gorm:"type:uuid;index"`
	AgentID          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	AgentName        string                      `gorm:"type:varchar(200);not null"`
	Role             commission.AgentRole        `gorm:"type:varchar(20);not null"`
	Type             commission.CommissionType   `gorm:"type:varchar(20);not null"`
	DealValue        decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Percentage       *decimal.Decimal            `gorm:"type:decimal(8,4)"`
	FixedAmount      *decimal.Decimal            `gorm:"type:decimal(18,4)"`
	CalculatedAmount decimal.Decimal             `gorm:"type:decimal(18,4);not null"`
	Status           commission.CommissionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Splits           commission.CommissionSplits `gorm:"type:jsonb;default:'[]'"`
	ApprovedBy       *uuid.UUID                  `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	PaidDate         *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CommissionModel) TableName() string {
	return "commissions"
}

// ToDomain converts the persistence model to a domain Commission entity.
func (m *CommissionModel) ToDomain() *commission.Commission {
	return &commission.Commission{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DealID:           m.DealID,
		ProjectID:        m.ProjectID,
		AgentID:          m.AgentID,
		AgentName:        m.AgentName,
		Role:             m.Role,
		Type:             m.Type,
		DealValue:        m.DealValue,
		Percentage:       m.Percentage,
		FixedAmount:      m.FixedAmount,
		CalculatedAmount: m.CalculatedAmount,
		Status:           m.Status,
		Splits:           m.Splits,
		ApprovedBy:       m.ApprovedBy,
		ApprovedAt:       m.ApprovedAt,
		PaidDate:         m.PaidDate,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
	}
}

// AgentModel is the persistence model for the agent roster. The roster is
// synced from the CRM; only the fields assignment needs are stored here.
type AgentModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (AgentModel) TableName() string {
	return "agents"
}

// FromDomain populates the persistence model from a domain Commission entity.
func (m *CommissionModel) FromDomain(c *commission.Commission) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.DealID = c.DealID
	m.ProjectID = c.ProjectID
	m.AgentID = c.AgentID
	m.AgentName = c.AgentName
	m.Role = c.Role
	m.Type = c.Type
	m.DealValue = c.DealValue
	m.Percentage = c.Percentage
	m.FixedAmount = c.FixedAmount
	m.CalculatedAmount = c.CalculatedAmount
	m.Status = c.Status
	m.Splits = c.Splits
	m.ApprovedBy = c.ApprovedBy
	m.ApprovedAt = c.ApprovedAt
	m.PaidDate = c.PaidDate
	m.CancelledAt = c.CancelledAt
	m.CancelReason = c.CancelReason
}

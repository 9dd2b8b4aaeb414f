package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/zenithcrm/backend/internal/application/commission"
	"github.com/zenithcrm/backend/internal/domain/commission"
)

// CommissionHandler handles commission API endpoints
type CommissionHandler struct {
	BaseHandler
	commissionService *commissionapp.CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissionService *commissionapp.CommissionService) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
	}
}

// CalculateCommissionRequest represents a request to calculate a commission
type CalculateCommissionRequest struct {
	DealID      string   `json:"deal_id" binding:"required,uuid"`
	ProjectID   string   `json:"project_id" binding:"omitempty,uuid"`
	AgentID     string   `json:"agent_id" binding:"required,uuid"`
	AgentName   string   `json:"agent_name" binding:"required,min=1,max=200"`
	Role        string   `json:"role" binding:"required,oneof=PRIMARY CO_AGENT REFERRER"`
	Type        string   `json:"type" binding:"required,oneof=PERCENTAGE FIXED"`
	DealValue   float64  `json:"deal_value" binding:"required,gt=0"`
	Percentage  *float64 `json:"percentage" binding:"omitempty,gt=0,lte=100"`
	FixedAmount *float64 `json:"fixed_amount" binding:"omitempty,gt=0"`
}

// SplitRequest represents one share of a commission split
type SplitRequest struct {
	AgentID    string  `json:"agent_id" binding:"required,uuid"`
	AgentName  string  `json:"agent_name" binding:"required,min=1,max=200"`
	Role       string  `json:"role" binding:"required,oneof=PRIMARY CO_AGENT REFERRER"`
	Percentage float64 `json:"percentage" binding:"required,gt=0,lte=100"`
}

// CreateSplitsRequest represents a request to split a commission
type CreateSplitsRequest struct {
	Splits []SplitRequest `json:"splits" binding:"required,min=1,dive"`
}

// MarkPaidRequest represents a request to mark a commission as paid out
type MarkPaidRequest struct {
	PaidDate *time.Time `json:"paid_date"`
}

// CancelCommissionRequest represents a request to cancel a commission
type CancelCommissionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Calculate computes and freezes a commission for an agent
func (h *CommissionHandler) Calculate(c *gin.Context) {
	var req CalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	appReq := commissionapp.CalculateCommissionRequest{
		DealID:    dealID,
		AgentID:   agentID,
		AgentName: req.AgentName,
		Role:      commission.AgentRole(req.Role),
		Type:      commission.CommissionType(req.Type),
		DealValue: toDecimal(req.DealValue),
	}
	if req.ProjectID != "" {
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			h.BadRequest(c, "Invalid project ID format")
			return
		}
		appReq.ProjectID = &projectID
	}
	if req.Percentage != nil {
		appReq.Percentage = toDecimalPtr(*req.Percentage)
	}
	if req.FixedAmount != nil {
		appReq.FixedAmount = toDecimalPtr(*req.FixedAmount)
	}

	comm, err := h.commissionService.CalculateCommission(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, comm)
}

// DealClosedRequest notifies the engine that a deal closed so the
// commission can be created
type DealClosedRequest struct {
	DealID    string  `json:"deal_id" binding:"required,uuid"`
	ProjectID string  `json:"project_id" binding:"omitempty,uuid"`
	DealValue float64 `json:"deal_value" binding:"required,gt=0"`
	AgentID   string  `json:"agent_id" binding:"omitempty,uuid"`
	AgentName string  `json:"agent_name" binding:"omitempty,min=1,max=200"`
}

// DealClosed creates the commission for a closed deal, assigning an agent
// from the roster when the deal carries none
func (h *CommissionHandler) DealClosed(c *gin.Context) {
	var req DealClosedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	appReq := commissionapp.DealClosedRequest{
		DealID:    dealID,
		DealValue: toDecimal(req.DealValue),
		AgentName: req.AgentName,
	}
	if req.ProjectID != "" {
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			h.BadRequest(c, "Invalid project ID format")
			return
		}
		appReq.ProjectID = &projectID
	}
	if req.AgentID != "" {
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			h.BadRequest(c, "Invalid agent ID format")
			return
		}
		appReq.AgentID = &agentID
	}

	comm, err := h.commissionService.OnDealClosed(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, comm)
}

// AssignAgent picks the next agent in the round-robin rotation
func (h *CommissionHandler) AssignAgent(c *gin.Context) {
	candidate, err := h.commissionService.AssignAgent(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, candidate)
}

// CreateSplits divides a commission across multiple agents
func (h *CommissionHandler) CreateSplits(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req CreateSplitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inputs := make([]commission.SplitInput, 0, len(req.Splits))
	for _, s := range req.Splits {
		agentID, err := uuid.Parse(s.AgentID)
		if err != nil {
			h.BadRequest(c, "Invalid agent ID format in split")
			return
		}
		inputs = append(inputs, commission.SplitInput{
			AgentID:    agentID,
			AgentName:  s.AgentName,
			Role:       commission.AgentRole(s.Role),
			Percentage: toDecimal(s.Percentage),
		})
	}

	comm, err := h.commissionService.CreateSplits(c.Request.Context(), commissionID, inputs)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, comm)
}

// Approve approves a pending commission
func (h *CommissionHandler) Approve(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	approvedBy, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	comm, err := h.commissionService.ApproveCommission(c.Request.Context(), commissionID, approvedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, comm)
}

// MarkPaid records the payout of an approved commission and debits the
// project ledger
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req MarkPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	paidDate := time.Now().UTC()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}

	comm, err := h.commissionService.MarkCommissionPaid(c.Request.Context(), commissionID, paidDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, comm)
}

// Cancel cancels a commission that has not been paid out
func (h *CommissionHandler) Cancel(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	var req CancelCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	comm, err := h.commissionService.CancelCommission(c.Request.Context(), commissionID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, comm)
}

// GetByID retrieves a commission by its ID
func (h *CommissionHandler) GetByID(c *gin.Context) {
	commissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid commission ID format")
		return
	}

	comm, err := h.commissionService.GetCommission(c.Request.Context(), commissionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, comm)
}

// ListByDeal retrieves all commissions attached to a deal
func (h *CommissionHandler) ListByDeal(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	commissions, err := h.commissionService.GetCommissionsByDeal(c.Request.Context(), dealID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, commissions)
}

type listCommissionQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	DealID   string `form:"deal_id" binding:"omitempty,uuid"`
	AgentID  string `form:"agent_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING APPROVED PAID CANCELLED"`
	Type     string `form:"type" binding:"omitempty,oneof=PERCENTAGE FIXED"`
}

// List retrieves a paginated list of commissions with optional filtering
func (h *CommissionHandler) List(c *gin.Context) {
	var q listCommissionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := commission.CommissionFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.Search = q.Search
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.DealID != "" {
		id := uuid.MustParse(q.DealID)
		filter.DealID = &id
	}
	if q.AgentID != "" {
		id := uuid.MustParse(q.AgentID)
		filter.AgentID = &id
	}
	if q.Status != "" {
		st := commission.CommissionStatus(q.Status)
		filter.Status = &st
	}
	if q.Type != "" {
		ct := commission.CommissionType(q.Type)
		filter.Type = &ct
	}

	result, err := h.commissionService.ListCommissions(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/settlement"
)

// RefundHandler handles refund workflow API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *settlementapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *settlementapp.RefundService) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

// RequestRefundRequest represents a request to open a refund
type RequestRefundRequest struct {
	DealID              string  `json:"deal_id" binding:"required,uuid"`
	ClientID            string  `json:"client_id" binding:"required,uuid"`
	SourceType          *string `json:"source_type" binding:"omitempty,oneof=PAYMENT BOOKING_PAYMENT"`
	SourceID            *string `json:"source_id" binding:"omitempty,uuid"`
	Amount              float64 `json:"amount" binding:"required,gt=0"`
	CancellationCharges float64 `json:"cancellation_charges" binding:"gte=0"`
	Reason              string  `json:"reason" binding:"required,min=1,max=1000"`
}

// RejectRefundRequest represents a request to reject a pending refund
type RejectRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Request opens a refund in pending status
func (h *RefundHandler) Request(c *gin.Context) {
	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	appReq := settlementapp.RequestRefundRequest{
		DealID:              dealID,
		ClientID:            clientID,
		Amount:              toDecimal(req.Amount),
		CancellationCharges: toDecimal(req.CancellationCharges),
		Reason:              req.Reason,
	}
	if req.SourceType != nil {
		st := settlement.RefundSourceType(*req.SourceType)
		appReq.SourceType = &st
	}
	if req.SourceID != nil {
		sourceID, err := uuid.Parse(*req.SourceID)
		if err != nil {
			h.BadRequest(c, "Invalid source ID format")
			return
		}
		appReq.SourceID = &sourceID
	}

	refund, err := h.refundService.RequestRefund(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, refund)
}

// Approve approves a pending refund
func (h *RefundHandler) Approve(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	approvedBy, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	refund, err := h.refundService.ApproveRefund(c.Request.Context(), refundID, approvedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

// Process pays out an approved refund and debits the client's ledger
func (h *RefundHandler) Process(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	refund, err := h.refundService.ProcessRefund(c.Request.Context(), refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

// Reject rejects a pending refund
func (h *RefundHandler) Reject(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	var req RejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	refund, err := h.refundService.RejectRefund(c.Request.Context(), refundID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

// GetByID retrieves a refund by its ID
func (h *RefundHandler) GetByID(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	refund, err := h.refundService.GetRefund(c.Request.Context(), refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

type listRefundQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	DealID   string `form:"deal_id" binding:"omitempty,uuid"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING APPROVED PROCESSED REJECTED"`
}

// List retrieves a paginated list of refunds with optional filtering
func (h *RefundHandler) List(c *gin.Context) {
	var q listRefundQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := settlement.RefundFilter{}
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
	if q.ClientID != "" {
		id := uuid.MustParse(q.ClientID)
		filter.ClientID = &id
	}
	if q.Status != "" {
		st := settlement.RefundStatus(q.Status)
		filter.Status = &st
	}

	result, err := h.refundService.ListRefunds(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/domain/billing"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// GenerateInvoiceRequest represents a request to generate an invoice
type GenerateInvoiceRequest struct {
	DealID         string          `json:"deal_id" binding:"required,uuid"`
	ClientID       string          `json:"client_id" binding:"required,uuid"`
	ClientName     string          `json:"client_name" binding:"required,min=1,max=200"`
	InvoiceType    string          `json:"invoice_type" binding:"omitempty,oneof=TAX PROFORMA BOOKING"`
	UnitID         *string         `json:"unit_id" binding:"omitempty,uuid"`
	ProjectID      *string         `json:"project_id" binding:"omitempty,uuid"`
	TriggerPoint   string          `json:"trigger_point" binding:"required,oneof=BOOKING_CONFIRMATION MILESTONE_REACHED DEAL_CLOSED RECURRING MANUAL"`
	BaseAmount     float64         `json:"base_amount" binding:"required,gt=0"`
	TaxAmount      float64         `json:"tax_amount" binding:"gte=0"`
	TaxConfig      *TaxConfigInput `json:"tax_config" binding:"omitempty"`
	DueDate        time.Time       `json:"due_date" binding:"required"`
	ScheduleID     *string         `json:"schedule_id" binding:"omitempty,uuid"`
	InstallmentSeq *int            `json:"installment_seq" binding:"omitempty,gt=0"`
	Remark         string          `json:"remark" binding:"max=1000"`
	AutoIssue      bool            `json:"auto_issue"`
}

// TaxConfigInput derives the tax amount from the base instead of taking it verbatim
type TaxConfigInput struct {
	Rate      float64 `json:"rate" binding:"required,gte=0,lte=100"`
	Inclusive bool    `json:"inclusive"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// MarkDeliveredRequest represents a request to record invoice delivery
type MarkDeliveredRequest struct {
	Channel     string     `json:"channel" binding:"required,oneof=EMAIL WHATSAPP"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// SweepRequest represents a request to run the overdue sweep on demand
type SweepRequest struct {
	AsOf      *time.Time `json:"as_of"`
	BatchSize int        `json:"batch_size" binding:"gte=0"`
}

// Generate creates an invoice, optionally tied to a schedule installment
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
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

	appReq := billingapp.GenerateInvoiceRequest{
		DealID:         dealID,
		ClientID:       clientID,
		ClientName:     req.ClientName,
		InvoiceType:    billing.InvoiceType(req.InvoiceType),
		TriggerPoint:   billing.TriggerPoint(req.TriggerPoint),
		BaseAmount:     toDecimal(req.BaseAmount),
		TaxAmount:      toDecimal(req.TaxAmount),
		DueDate:        req.DueDate,
		InstallmentSeq: req.InstallmentSeq,
		Remark:         req.Remark,
		AutoIssue:      req.AutoIssue,
	}
	if req.UnitID != nil {
		unitID, err := uuid.Parse(*req.UnitID)
		if err != nil {
			h.BadRequest(c, "Invalid unit ID format")
			return
		}
		appReq.UnitID = &unitID
	}
	if req.ProjectID != nil {
		projectID, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			h.BadRequest(c, "Invalid project ID format")
			return
		}
		appReq.ProjectID = &projectID
	}
	if req.TaxConfig != nil {
		appReq.TaxConfig = &billing.TaxConfig{
			Rate:      toDecimal(req.TaxConfig.Rate),
			Inclusive: req.TaxConfig.Inclusive,
		}
	}
	if req.ScheduleID != nil {
		scheduleID, err := uuid.Parse(*req.ScheduleID)
		if err != nil {
			h.BadRequest(c, "Invalid schedule ID format")
			return
		}
		appReq.ScheduleID = &scheduleID
	}

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}

// Issue transitions a draft invoice to sent
func (h *InvoiceHandler) Issue(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.IssueInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel cancels an invoice that has no recorded payments
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), invoiceID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// MarkDelivered records that the invoice was delivered over a channel
func (h *InvoiceHandler) MarkDelivered(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req MarkDeliveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	at := time.Now().UTC()
	if req.DeliveredAt != nil {
		at = *req.DeliveredAt
	}

	invoice, err := h.invoiceService.MarkDelivered(c.Request.Context(), invoiceID, billingapp.DeliveryChannel(req.Channel), at)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetByID retrieves an invoice by its ID
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetByNumber retrieves an invoice by its invoice number
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

type listInvoiceQuery struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	Search       string `form:"search"`
	DealID       string `form:"deal_id" binding:"omitempty,uuid"`
	ClientID     string `form:"client_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=DRAFT SENT UNPAID DUE PARTIALLY_PAID PAID OVERDUE CANCELLED"`
	TriggerPoint string `form:"trigger_point" binding:"omitempty,oneof=BOOKING_CONFIRMATION MILESTONE_REACHED DEAL_CLOSED RECURRING MANUAL"`
	DueFrom      string `form:"due_from"`
	DueTo        string `form:"due_to"`
	Overdue      *bool  `form:"overdue"`
}

// List retrieves a paginated list of invoices with optional filtering
func (h *InvoiceHandler) List(c *gin.Context) {
	var q listInvoiceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.InvoiceFilter{}
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
		st := billing.InvoiceStatus(q.Status)
		filter.Status = &st
	}
	if q.TriggerPoint != "" {
		tp := billing.TriggerPoint(q.TriggerPoint)
		filter.TriggerPoint = &tp
	}
	if q.DueFrom != "" {
		from, err := time.Parse("2006-01-02", q.DueFrom)
		if err != nil {
			h.BadRequest(c, "Invalid due_from date, expected YYYY-MM-DD")
			return
		}
		filter.DueFrom = &from
	}
	if q.DueTo != "" {
		to, err := time.Parse("2006-01-02", q.DueTo)
		if err != nil {
			h.BadRequest(c, "Invalid due_to date, expected YYYY-MM-DD")
			return
		}
		filter.DueTo = &to
	}
	filter.Overdue = q.Overdue

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Sweep runs the overdue status sweep immediately
func (h *InvoiceHandler) Sweep(c *gin.Context) {
	var req SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	result, err := h.invoiceService.SweepOverdue(c.Request.Context(), asOf, req.BatchSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

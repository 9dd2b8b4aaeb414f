package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/domain/billing"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentRecorderService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentRecorderService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	InvoiceID   string     `json:"invoice_id" binding:"required,uuid"`
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	Method      string     `json:"method" binding:"required,oneof=BANK_TRANSFER UPI CHEQUE CASH CARD ONLINE"`
	PaidAt      *time.Time `json:"paid_at"`
	ExternalRef string     `json:"external_ref" binding:"max=100"`
	Remark      string     `json:"remark" binding:"max=1000"`
}

// Record records a payment against an invoice. The response carries the
// derived invoice status and the remaining amount after application.
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), billingapp.RecordPaymentRequest{
		InvoiceID:   invoiceID,
		Amount:      toDecimal(req.Amount),
		Method:      billing.PaymentMethod(req.Method),
		PaidAt:      paidAt,
		ExternalRef: req.ExternalRef,
		Remark:      req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID retrieves a payment by its ID
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// ListByInvoice retrieves all payments recorded against an invoice
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	payments, err := h.paymentService.ListPaymentsByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

type listPaymentQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Search    string `form:"search"`
	InvoiceID string `form:"invoice_id" binding:"omitempty,uuid"`
	DealID    string `form:"deal_id" binding:"omitempty,uuid"`
	Method    string `form:"method" binding:"omitempty,oneof=BANK_TRANSFER UPI CHEQUE CASH CARD ONLINE"`
	From      string `form:"from"`
	To        string `form:"to"`
	Unmatched *bool  `form:"unmatched"`
}

// List retrieves a paginated list of payments with optional filtering
func (h *PaymentHandler) List(c *gin.Context) {
	var q listPaymentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.PaymentFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.Search = q.Search
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.InvoiceID != "" {
		id := uuid.MustParse(q.InvoiceID)
		filter.InvoiceID = &id
	}
	if q.DealID != "" {
		id := uuid.MustParse(q.DealID)
		filter.DealID = &id
	}
	if q.Method != "" {
		m := billing.PaymentMethod(q.Method)
		filter.Method = &m
	}
	if q.From != "" {
		from, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.To = &to
	}
	filter.Unmatched = q.Unmatched

	result, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
)

// BookingPaymentHandler handles booking payment API endpoints
type BookingPaymentHandler struct {
	BaseHandler
	bookingService *settlementapp.BookingPaymentService
}

// NewBookingPaymentHandler creates a new BookingPaymentHandler
func NewBookingPaymentHandler(bookingService *settlementapp.BookingPaymentService) *BookingPaymentHandler {
	return &BookingPaymentHandler{
		bookingService: bookingService,
	}
}

// RecordBookingPaymentRequest represents a request to record a booking payment
type RecordBookingPaymentRequest struct {
	DealID          string     `json:"deal_id" binding:"required,uuid"`
	ClientID        string     `json:"client_id" binding:"required,uuid"`
	Amount          float64    `json:"amount" binding:"required,gt=0"`
	Method          string     `json:"method" binding:"required,max=50"`
	PaidAt          *time.Time `json:"paid_at"`
	ReferenceNumber string     `json:"reference_number" binding:"max=100"`
	UTR             string     `json:"utr" binding:"max=100"`
	Remark          string     `json:"remark" binding:"max=1000"`
}

// Record records a booking payment and credits the client's ledger
func (h *BookingPaymentHandler) Record(c *gin.Context) {
	var req RecordBookingPaymentRequest
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

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	booking, err := h.bookingService.RecordBookingPayment(c.Request.Context(), settlementapp.RecordBookingPaymentRequest{
		DealID:          dealID,
		ClientID:        clientID,
		Amount:          toDecimal(req.Amount),
		Method:          req.Method,
		PaidAt:          paidAt,
		ReferenceNumber: req.ReferenceNumber,
		UTR:             req.UTR,
		Remark:          req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, booking)
}

// GetByID retrieves a booking payment by its ID
func (h *BookingPaymentHandler) GetByID(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking payment ID format")
		return
	}

	booking, err := h.bookingService.GetBookingPayment(c.Request.Context(), bookingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, booking)
}

// ListByDeal retrieves all booking payments attached to a deal
func (h *BookingPaymentHandler) ListByDeal(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	bookings, err := h.bookingService.ListBookingPaymentsByDeal(c.Request.Context(), dealID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, bookings)
}

// ListUnreconciled retrieves booking payments not yet linked to a bank
// transaction
func (h *BookingPaymentHandler) ListUnreconciled(c *gin.Context) {
	bookings, err := h.bookingService.ListUnreconciled(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, bookings)
}

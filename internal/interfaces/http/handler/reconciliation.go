package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/settlement"
)

// ReconciliationHandler handles bank reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *settlementapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *settlementapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// IngestBankTransactionRequest represents one bank statement line
type IngestBankTransactionRequest struct {
	Amount          float64   `json:"amount" binding:"required,gt=0"`
	TransactionDate time.Time `json:"transaction_date" binding:"required"`
	ReferenceNumber string    `json:"reference_number" binding:"max=100"`
	UTR             string    `json:"utr" binding:"max=100"`
	BankName        string    `json:"bank_name" binding:"max=200"`
}

// AutoMatchRequest represents a request to run the matching pass on demand
type AutoMatchRequest struct {
	Limit int `json:"limit" binding:"gte=0"`
}

// MatchManuallyRequest represents an operator's manual match decision
type MatchManuallyRequest struct {
	RecordType string `json:"record_type" binding:"required,oneof=PAYMENT BOOKING_PAYMENT"`
	RecordID   string `json:"record_id" binding:"required,uuid"`
}

// Ingest registers a bank statement line for matching
func (h *ReconciliationHandler) Ingest(c *gin.Context) {
	var req IngestBankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txn, err := h.reconciliationService.IngestBankTransaction(c.Request.Context(), settlementapp.IngestBankTransactionRequest{
		Amount:          toDecimal(req.Amount),
		TransactionDate: req.TransactionDate,
		ReferenceNumber: req.ReferenceNumber,
		UTR:             req.UTR,
		BankName:        req.BankName,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, txn)
}

// AutoMatch runs the automatic matching pass over pending transactions
func (h *ReconciliationHandler) AutoMatch(c *gin.Context) {
	var req AutoMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.reconciliationService.AutoMatch(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MatchManually links a bank transaction to a payment or booking payment by
// operator decision
func (h *ReconciliationHandler) MatchManually(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	matchedBy, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "X-User-ID header is required")
		return
	}

	var req MatchManuallyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		h.BadRequest(c, "Invalid record ID format")
		return
	}

	txn, err := h.reconciliationService.MatchManually(c.Request.Context(), settlementapp.MatchManuallyRequest{
		TransactionID: transactionID,
		RecordType:    settlement.MatchedRecordType(req.RecordType),
		RecordID:      recordID,
		MatchedBy:     matchedBy,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, txn)
}

// GetByID retrieves a bank transaction by its ID
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	txn, err := h.reconciliationService.GetBankTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, txn)
}

type listBankTransactionQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING MATCHED UNMATCHED"`
	BankName string `form:"bank_name"`
	From     string `form:"from"`
	To       string `form:"to"`
}

// List retrieves a paginated list of bank transactions with optional filtering
func (h *ReconciliationHandler) List(c *gin.Context) {
	var q listBankTransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := settlement.BankTransactionFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.Search = q.Search
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.Status != "" {
		st := settlement.ReconciliationStatus(q.Status)
		filter.Status = &st
	}
	if q.BankName != "" {
		filter.BankName = &q.BankName
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

	result, err := h.reconciliationService.ListBankTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

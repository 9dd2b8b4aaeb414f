package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/zenithcrm/backend/internal/application/settlement"
	"github.com/zenithcrm/backend/internal/domain/settlement"
)

// LedgerHandler handles account ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *settlementapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *settlementapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// AppendAdjustmentRequest represents a manual ledger adjustment
type AppendAdjustmentRequest struct {
	LedgerType      string     `json:"ledger_type" binding:"required,oneof=CUSTOMER PROJECT UNIT"`
	ScopeID         string     `json:"scope_id" binding:"required,uuid"`
	TransactionDate *time.Time `json:"transaction_date"`
	Debit           float64    `json:"debit" binding:"gte=0"`
	Credit          float64    `json:"credit" binding:"gte=0"`
	Description     string     `json:"description" binding:"required,min=1,max=500"`
}

// AppendAdjustment appends a manual adjustment entry to a scope's chain.
// Domain-driven entries (payments, refunds, payouts) are written by their
// own services; this endpoint covers operator corrections only.
func (h *LedgerHandler) AppendAdjustment(c *gin.Context) {
	var req AppendAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	scopeID, err := uuid.Parse(req.ScopeID)
	if err != nil {
		h.BadRequest(c, "Invalid scope ID format")
		return
	}

	transactionDate := time.Now().UTC()
	if req.TransactionDate != nil {
		transactionDate = *req.TransactionDate
	}

	entry, err := h.ledgerService.AppendEntry(c.Request.Context(), settlementapp.AppendEntryRequest{
		LedgerType:      settlement.LedgerType(req.LedgerType),
		ScopeID:         scopeID,
		TransactionType: settlement.LedgerTxnAdjustment,
		TransactionDate: transactionDate,
		Debit:           toDecimal(req.Debit),
		Credit:          toDecimal(req.Credit),
		Description:     req.Description,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, entry)
}

// GetStatement returns a scope's entries with the current balance
func (h *LedgerHandler) GetStatement(c *gin.Context) {
	ledgerType := settlement.LedgerType(c.Param("type"))
	if !ledgerType.IsValid() {
		h.BadRequest(c, "Invalid ledger type")
		return
	}

	scopeID, err := uuid.Parse(c.Param("scopeId"))
	if err != nil {
		h.BadRequest(c, "Invalid scope ID format")
		return
	}

	var q listLedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	statement, err := h.ledgerService.GetScopeStatement(c.Request.Context(), ledgerType, scopeID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, statement)
}

// VerifyScopeResponse reports whether a scope's balance chain is intact.
// DivergentIndex is the position of the first inconsistent entry, or -1
// when the chain replays cleanly.
type VerifyScopeResponse struct {
	LedgerType     string `json:"ledger_type"`
	ScopeID        string `json:"scope_id"`
	Valid          bool   `json:"valid"`
	DivergentIndex int    `json:"divergent_index"`
}

// VerifyScope replays a scope's chain and reports whether every running
// balance is consistent
func (h *LedgerHandler) VerifyScope(c *gin.Context) {
	ledgerType := settlement.LedgerType(c.Param("type"))
	if !ledgerType.IsValid() {
		h.BadRequest(c, "Invalid ledger type")
		return
	}

	scopeID, err := uuid.Parse(c.Param("scopeId"))
	if err != nil {
		h.BadRequest(c, "Invalid scope ID format")
		return
	}

	valid, divergentIndex, err := h.ledgerService.VerifyScope(c.Request.Context(), ledgerType, scopeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, VerifyScopeResponse{
		LedgerType:     string(ledgerType),
		ScopeID:        scopeID.String(),
		Valid:          valid,
		DivergentIndex: divergentIndex,
	})
}

type listLedgerQuery struct {
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
	LedgerType      string `form:"ledger_type" binding:"omitempty,oneof=CUSTOMER PROJECT UNIT"`
	ScopeID         string `form:"scope_id" binding:"omitempty,uuid"`
	TransactionType string `form:"transaction_type" binding:"omitempty,oneof=BOOKING_PAYMENT INVOICE_PAYMENT REFUND COMMISSION_PAYOUT ADJUSTMENT"`
	From            string `form:"from"`
	To              string `form:"to"`
}

func (q listLedgerQuery) toFilter() (settlement.LedgerFilter, error) {
	filter := settlement.LedgerFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.LedgerType != "" {
		lt := settlement.LedgerType(q.LedgerType)
		filter.LedgerType = &lt
	}
	if q.ScopeID != "" {
		id := uuid.MustParse(q.ScopeID)
		filter.ScopeID = &id
	}
	if q.TransactionType != "" {
		tt := settlement.LedgerTransactionType(q.TransactionType)
		filter.TransactionType = &tt
	}
	if q.From != "" {
		from, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}

// ListEntries retrieves a paginated list of ledger entries with optional
// filtering
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var q listLedgerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := q.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

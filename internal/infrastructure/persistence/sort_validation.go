package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ScheduleSortFields contains allowed sort fields for payment schedules
var ScheduleSortFields = map[string]bool{
	"id":                   true,
	"created_at":           true,
	"updated_at":           true,
	"deal_id":              true,
	"plan_type":            true,
	"status":               true,
	"total_contract_value": true,
	"start_date":           true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"deal_id":        true,
	"client_id":      true,
	"status":         true,
	"base_amount":    true,
	"total_amount":   true,
	"paid_amount":    true,
	"due_date":       true,
	"issued_at":      true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"payment_number": true,
	"invoice_id":     true,
	"deal_id":        true,
	"amount":         true,
	"method":         true,
	"paid_at":        true,
}

// CommissionSortFields contains allowed sort fields for commissions
var CommissionSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"deal_id":           true,
	"agent_id":          true,
	"agent_name":        true,
	"type":              true,
	"status":            true,
	"deal_value":        true,
	"calculated_amount": true,
	"paid_date":         true,
}

// RefundSortFields contains allowed sort fields for refunds
var RefundSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"refund_number":     true,
	"deal_id":           true,
	"client_id":         true,
	"status":            true,
	"amount":            true,
	"net_refund_amount": true,
	"processed_at":      true,
}

// BankTransactionSortFields contains allowed sort fields for bank transactions
var BankTransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"amount":           true,
	"transaction_date": true,
	"reference_number": true,
	"utr":              true,
	"bank_name":        true,
	"status":           true,
	"matched_at":       true,
}

// LedgerEntrySortFields contains allowed sort fields for ledger entries
var LedgerEntrySortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"sequence":         true,
	"ledger_type":      true,
	"scope_id":         true,
	"transaction_type": true,
	"transaction_date": true,
	"balance":          true,
}

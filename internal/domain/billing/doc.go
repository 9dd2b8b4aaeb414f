// Package billing provides domain models for the invoicing side of the sale lifecycle.
//
// This package implements the billing bounded context, which is responsible for:
//   - Generating installment payment schedules from a deal's payment plan
//   - Issuing and tracking invoices through their status lifecycle
//   - Recording payments and applying them against invoice balances
//
// Key Aggregates:
//   - PaymentSchedule: Ordered installments derived from a payment plan
//   - Invoice: A demand for payment with tax, status, and applied amounts
//   - Payment: Immutable record of money received against an invoice
//
// The billing domain integrates with:
//   - Settlement domain: Payments feed the customer ledger and reconciliation
//   - Commission domain: Deal value drives commission calculation
package billing

package ledger

import (
	"github.com/hisabkitab/backend/internal/models"
	"github.com/shopspring/decimal"
)

// ComputeBalance folds a customer's entries into a signed net position:
// CREDIT adds, DEBIT subtracts. Addition over decimals is commutative, so
// input order does not matter. Positive means the customer has paid in
// advance; negative means the customer owes the business.
func ComputeBalance(entries []models.LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Signed())
	}
	return balance
}

// ComputeDashboardTotals partitions per-customer balances into receivables
// and payables. A negative balance contributes its absolute value to
// TotalToCollect; a balance >= 0 (zero included) contributes to TotalToPay.
// Both accumulators start at zero and stay non-negative.
func ComputeDashboardTotals(balances []decimal.Decimal) models.DashboardStats {
	stats := models.DashboardStats{
		TotalToCollect: decimal.Zero,
		TotalToPay:     decimal.Zero,
	}
	for _, b := range balances {
		if b.IsNegative() {
			stats.TotalToCollect = stats.TotalToCollect.Add(b.Abs())
		} else {
			stats.TotalToPay = stats.TotalToPay.Add(b)
		}
	}
	return stats
}

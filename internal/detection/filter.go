// Package detection decides which stream records are swaps on the watched pool
// and which program originated them.
package detection

import "solana-pool-monitor/internal/domain"

// Matches reports whether a record qualifies for a SwapEvent: the criterion
// account appears in its account list and it carries no execution error.
func Matches(r *domain.TransactionRecord, c domain.SubscriptionCriterion) bool {
	if r == nil || r.Failed() {
		return false
	}
	return r.HasAccount(c.Account)
}

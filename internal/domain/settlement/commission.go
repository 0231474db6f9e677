// Package settlement holds the pure commission and deposit arithmetic.
// Everything here is integer cents; commission rounding is always up so
// platform revenue is never short-changed by truncation drift. The server
// recomputes from stored booking data on every call and never trusts a
// client-submitted total or commission figure.
package settlement

// ceilDiv computes ceil(a/b) for non-negative a and positive b without
// touching floating point.
func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// CalculateCommission returns ceil(subtotal * percent / 100).
func CalculateCommission(subtotalCents int64, commissionPercent int32) int64 {
	if subtotalCents <= 0 || commissionPercent <= 0 {
		return 0
	}
	return ceilDiv(subtotalCents*int64(commissionPercent), 100)
}

// CalculateRefundCommission reverses commission proportionally to the
// refunded share, rounded up, capped at the original commission. A refund
// amount at or above the original total reverses the full commission even
// if a caller passes an over-large figure.
func CalculateRefundCommission(originalCommissionCents, refundAmountCents, originalTotalCents int64) int64 {
	if refundAmountCents <= 0 || originalCommissionCents <= 0 {
		return 0
	}
	if originalTotalCents <= 0 || refundAmountCents >= originalTotalCents {
		return originalCommissionCents
	}
	reversed := ceilDiv(originalCommissionCents*refundAmountCents, originalTotalCents)
	if reversed > originalCommissionCents {
		return originalCommissionCents
	}
	return reversed
}

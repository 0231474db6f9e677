package settlement

// DepositSplit is the deposit/balance breakdown of a booking subtotal.
// DepositCommission + BalanceCommission always equals TotalCommission:
// the deposit share is rounded half-up and the balance share absorbs the
// remainder rather than being rounded independently.
type DepositSplit struct {
	IsDeposit          bool
	SubtotalCents      int64
	AmountToCharge     int64
	TotalCommission    int64
	DepositCommission  int64
	BalanceCommission  int64
	DepositPercentUsed int32
}

// SplitDeposit computes the amount due now and the proportional commission
// split. A nil/zero deposit percent means the full amount is due up front.
// The deposit amount itself rounds down (the customer is never overcharged
// at the deposit stage); its commission share rounds half-up.
func SplitDeposit(subtotalCents int64, depositPercent *int32, commissionPercent int32) DepositSplit {
	total := CalculateCommission(subtotalCents, commissionPercent)

	if depositPercent == nil || *depositPercent <= 0 || *depositPercent >= 100 {
		return DepositSplit{
			IsDeposit:       false,
			SubtotalCents:   subtotalCents,
			AmountToCharge:  subtotalCents,
			TotalCommission: total,
			// No split: the single charge carries the whole commission.
			DepositCommission: total,
			BalanceCommission: 0,
		}
	}

	dp := int64(*depositPercent)
	depositCommission := (total*dp + 50) / 100

	return DepositSplit{
		IsDeposit:          true,
		SubtotalCents:      subtotalCents,
		AmountToCharge:     subtotalCents * dp / 100,
		TotalCommission:    total,
		DepositCommission:  depositCommission,
		BalanceCommission:  total - depositCommission,
		DepositPercentUsed: *depositPercent,
	}
}

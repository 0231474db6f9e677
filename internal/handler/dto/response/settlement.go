package response

import (
	"bookingcore/internal/domain/pricing"
	"bookingcore/internal/domain/settlement"
	"bookingcore/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type DepositSplitResponse struct {
	IsDeposit         bool  `json:"isDeposit"`
	SubtotalCents     int64 `json:"subtotalCents"`
	AmountToCharge    int64 `json:"amountToCharge"`
	TotalCommission   int64 `json:"totalCommission"`
	DepositCommission int64 `json:"depositCommission"`
	BalanceCommission int64 `json:"balanceCommission"`
}

type BalancePlanResponse struct {
	BookingID              uuid.UUID         `json:"bookingId"`
	BalanceAmountCents     int64             `json:"balanceAmountCents"`
	BalanceCommissionCents int64             `json:"balanceCommissionCents"`
	Metadata               map[string]string `json:"metadata"`
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type RefundResponse struct {
	RefundID                string           `json:"refundId"`
	RefundedCents           int64            `json:"refundedCents"`
	RefundedCommissionCents int64            `json:"refundedCommissionCents"`
	Booking                 *BookingResponse `json:"booking"`
}

type QuoteResponse struct {
	BasePriceCents        int64                        `json:"basePriceCents"`
	ScalingTotalCents     int64                        `json:"scalingTotalCents"`
	TotalBeforeCommission int64                        `json:"totalBeforeCommission"`
	ComponentBreakdown    []pricing.ComponentBreakdown `json:"componentBreakdown"`
}

func FromDepositSplit(s *settlement.DepositSplit) *DepositSplitResponse {
	var resp DepositSplitResponse
	_ = copier.Copy(&resp, s)
	return &resp
}

func FromBalancePlan(p *commands.BalancePaymentPlan) *BalancePlanResponse {
	var resp BalancePlanResponse
	_ = copier.Copy(&resp, p)
	return &resp
}

func FromCheckoutSession(s *commands.CheckoutSession) *CheckoutSessionResponse {
	return &CheckoutSessionResponse{
		SessionID:   s.SessionID,
		CheckoutURL: s.CheckoutURL,
	}
}

func FromRefundResult(r *commands.RefundBookingResult) *RefundResponse {
	return &RefundResponse{
		RefundID:                r.RefundID,
		RefundedCents:           r.RefundedCents,
		RefundedCommissionCents: r.RefundedCommissionCents,
		Booking:                 FromBookingEntity(r.Booking),
	}
}

func FromQuote(q *pricing.Quote) *QuoteResponse {
	var resp QuoteResponse
	_ = copier.Copy(&resp, q)
	return &resp
}

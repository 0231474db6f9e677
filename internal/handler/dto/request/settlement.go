package request

import (
	"github.com/google/uuid"
)

type CalculateDepositRequest struct {
	BasePriceCents int64       `json:"base_price_cents" binding:"required,min=0"`
	AddOnIDs       []uuid.UUID `json:"add_on_ids,omitempty"`
}

type CompleteDepositRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	PaymentRef  string `json:"payment_ref,omitempty"`
}

type CompleteBalanceRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,min=1"`
}

type StartBalanceCheckoutRequest struct {
	ConnectedAccountID string `json:"connected_account_id,omitempty"`
}

type RefundBookingRequest struct {
	AmountCents *int64 `json:"amount_cents,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

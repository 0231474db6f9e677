package commands

import (
	"context"

	"github.com/google/uuid"
)

// Booking lifecycle event names, published after the owning transaction
// commits.
const (
	EventBookingCreated          = "BOOKING_CREATED"
	EventBookingRescheduled      = "BOOKING_RESCHEDULED"
	EventBookingCanceled         = "BOOKING_CANCELED"
	EventBalancePaymentCompleted = "BALANCE_PAYMENT_COMPLETED"
	EventBookingRefunded         = "BOOKING_REFUNDED"
)

// EventEmitter publishes lifecycle events. Emission failures are logged,
// never surfaced: the booking state is already committed.
type EventEmitter interface {
	Emit(ctx context.Context, name string, payload map[string]any)
}

type CheckoutParams struct {
	TenantID       uuid.UUID
	BookingID      uuid.UUID
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	// ApplicationFeeCents is the platform's commission share, collected by
	// the provider at charge time on connected-account checkouts.
	ApplicationFeeCents int64
	ConnectedAccountID  string
}

type CheckoutSession struct {
	SessionID   string
	CheckoutURL string
}

type RefundParams struct {
	PaymentRef     string
	AmountCents    int64
	IdempotencyKey string
}

type RefundResult struct {
	RefundID      string
	RefundedCents int64
}

// PaymentProvider abstracts the payment gateway. Implementations must pass
// the idempotency key through so a retried call cannot double-charge or
// double-refund.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	CreateConnectCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	Refund(ctx context.Context, p RefundParams) (*RefundResult, error)
}

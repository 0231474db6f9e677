package commands

import (
	"context"
	"fmt"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/domain/settlement"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
)

type CalculateDepositInput struct {
	TenantID       uuid.UUID
	BasePriceCents int64
	AddOnIDs       []uuid.UUID
}

// BalancePaymentPlan carries what the checkout session needs: the amount,
// the platform's share, and provider metadata identifying the booking.
type BalancePaymentPlan struct {
	BookingID              uuid.UUID
	BalanceAmountCents     int64
	BalanceCommissionCents int64
	Metadata               map[string]string
}

type RefundBookingInput struct {
	TenantID  uuid.UUID
	BookingID uuid.UUID
	// AmountCents nil means refund everything paid so far.
	AmountCents *int64
	Reason      string
}

type RefundBookingResult struct {
	Booking                 *booking.Booking
	RefundID                string
	RefundedCents           int64
	RefundedCommissionCents int64
}

type SettlementUsecase struct {
	uow      shared.UnitOfWork
	provider PaymentProvider
	emitter  EventEmitter
	clk      clock.Clock
}

func NewSettlementUsecase(uow shared.UnitOfWork, provider PaymentProvider, emitter EventEmitter, clk clock.Clock) *SettlementUsecase {
	return &SettlementUsecase{uow: uow, provider: provider, emitter: emitter, clk: clk}
}

// CalculateDeposit recomputes everything from stored tenant and add-on data.
// Client-submitted totals are never trusted.
func (u *SettlementUsecase) CalculateDeposit(ctx context.Context, in CalculateDepositInput) (*settlement.DepositSplit, error) {
	if in.BasePriceCents < 0 {
		return nil, errs.Mark(errs.New("base price cannot be negative"), errs.ErrDomainValidation)
	}

	reads := u.uow.CommandReads()
	tenant, err := reads.TenantByID(ctx, in.TenantID)
	if err != nil {
		return nil, translateReadErr(err, errs.ErrTenantNotFound)
	}

	subtotal := in.BasePriceCents
	if len(in.AddOnIDs) > 0 {
		addOns, err := reads.AddOnsByIDs(ctx, in.TenantID, in.AddOnIDs)
		if err != nil {
			return nil, translateReadErr(err, errs.ErrDomainValidation)
		}
		for _, a := range addOns {
			subtotal += a.PriceCents
		}
	}

	split := settlement.SplitDeposit(subtotal, tenant.DepositPercent, tenant.CommissionPercent)
	return &split, nil
}

// PrepareBalancePayment validates that a balance is actually collectible and
// returns the plan for the checkout session. The idempotency guard runs here
// too: an already-settled balance fails preparation instead of producing a
// second charge attempt.
func (u *SettlementUsecase) PrepareBalancePayment(ctx context.Context, tenantID, bookingID uuid.UUID) (*BalancePaymentPlan, error) {
	var plan *BalancePaymentPlan

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, tenantID, bookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}
		if b.DepositPaidAmount() == nil {
			return errs.Mark(errs.New("no deposit has been paid for this booking"), errs.ErrDepositNotPaid)
		}
		if b.BalancePaidAmount() != nil || b.BalancePaidAt() != nil {
			return errs.Mark(errs.New("balance is already settled"), errs.ErrBalanceAlreadyPaid)
		}
		balance := b.OutstandingBalanceCents()
		if balance <= 0 {
			return errs.Mark(errs.New("deposit covered the full amount"), errs.ErrNothingToCollect)
		}

		customer, err := tx.Reads().CustomerByID(ctx, tenantID, b.CustomerID())
		if err != nil {
			return translateReadErr(err, errs.ErrCustomerNotFound)
		}

		plan = &BalancePaymentPlan{
			BookingID:              bookingID,
			BalanceAmountCents:     balance,
			BalanceCommissionCents: balanceCommission(b),
			Metadata: map[string]string{
				"tenant_id":          tenantID.String(),
				"booking_id":         bookingID.String(),
				"customer_email":     customer.Email,
				"event_date":         b.EventDate().String(),
				"is_balance_payment": "true",
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// StartBalanceCheckout prepares the balance and opens a provider checkout
// session. The commission share rides along as the application fee, and the
// idempotency key pins retries of this call to one session.
func (u *SettlementUsecase) StartBalanceCheckout(ctx context.Context, tenantID, bookingID uuid.UUID, connectedAccountID string) (*CheckoutSession, error) {
	plan, err := u.PrepareBalancePayment(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}

	params := CheckoutParams{
		TenantID:            tenantID,
		BookingID:           bookingID,
		AmountCents:         plan.BalanceAmountCents,
		Description:         fmt.Sprintf("Balance payment for booking on %s", plan.Metadata["event_date"]),
		IdempotencyKey:      fmt.Sprintf("balance-%s", bookingID),
		ApplicationFeeCents: plan.BalanceCommissionCents,
		ConnectedAccountID:  connectedAccountID,
	}

	var session *CheckoutSession
	if connectedAccountID != "" {
		session, err = u.provider.CreateConnectCheckoutSession(ctx, params)
	} else {
		session, err = u.provider.CreateCheckoutSession(ctx, params)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteDepositPayment records a charged deposit and moves the booking to
// DEPOSIT_PAID.
func (u *SettlementUsecase) CompleteDepositPayment(ctx context.Context, tenantID, bookingID uuid.UUID, amountCents int64, paymentRef string) (*booking.Booking, error) {
	now := u.clk.Now()
	var updated *booking.Booking

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.AcquireLock(ctx, tenantID, "booking", bookingID.String()); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, tenantID, bookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}
		if err := b.MarkDepositPaid(amountCents, now); err != nil {
			return translateDomainErr(err)
		}
		if paymentRef != "" {
			b.SetPaymentRef(paymentRef, now)
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if txErr != nil {
		return nil, translateBookingTxErr(txErr)
	}
	return updated, nil
}

// CompleteBalancePayment applies the balance idempotently. A duplicated
// webhook finds balancePaidAt set, gets the unchanged booking back, and no
// event fires a second time.
func (u *SettlementUsecase) CompleteBalancePayment(ctx context.Context, tenantID, bookingID uuid.UUID, amountCents int64) (*booking.Booking, error) {
	now := u.clk.Now()
	var (
		updated *booking.Booking
		applied bool
	)

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.AcquireLock(ctx, tenantID, "booking", bookingID.String()); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, tenantID, bookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}

		applied, err = b.ApplyBalancePayment(amountCents, now)
		if err != nil {
			return translateDomainErr(err)
		}
		if applied {
			if err := tx.Bookings().Save(ctx, b); err != nil {
				return err
			}
		}
		updated = b
		return nil
	})
	if txErr != nil {
		return nil, translateBookingTxErr(txErr)
	}

	if applied {
		u.emitter.Emit(ctx, EventBalancePaymentCompleted, map[string]any{
			"booking_id":   bookingID,
			"tenant_id":    tenantID,
			"amount_cents": amountCents,
		})
	}
	return updated, nil
}

// RefundBooking recomputes the commission reversal from stored data, calls
// the provider, and records the outcome. The provider call runs outside any
// transaction; the PROCESSING state committed first marks the in-flight
// refund.
func (u *SettlementUsecase) RefundBooking(ctx context.Context, in RefundBookingInput) (*RefundBookingResult, error) {
	now := u.clk.Now()

	var (
		paymentRef    string
		refundAmount  int64
		refundedComms int64
	)

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.AcquireLock(ctx, in.TenantID, "booking", in.BookingID.String()); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, in.TenantID, in.BookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}
		if b.PaymentRef() == nil {
			return errs.Mark(errs.New("booking has no captured payment"), errs.ErrRefundNotAllowed)
		}

		paid := paidCents(b)
		if paid <= 0 {
			return errs.Mark(errs.New("nothing has been paid on this booking"), errs.ErrRefundNotAllowed)
		}
		refundAmount = paid
		if in.AmountCents != nil {
			if *in.AmountCents <= 0 || *in.AmountCents > paid {
				return errs.Mark(errs.New("refund amount must be positive and within the paid total"), errs.ErrDomainValidation)
			}
			refundAmount = *in.AmountCents
		}
		refundedComms = settlement.CalculateRefundCommission(b.CommissionAmount().Cents(), refundAmount, b.Total().Cents())
		paymentRef = *b.PaymentRef()

		if err := b.BeginRefund(now); err != nil {
			return translateDomainErr(err)
		}
		return tx.Bookings().Save(ctx, b)
	})
	if txErr != nil {
		return nil, translateBookingTxErr(txErr)
	}

	providerRes, providerErr := u.provider.Refund(ctx, RefundParams{
		PaymentRef:     paymentRef,
		AmountCents:    refundAmount,
		IdempotencyKey: fmt.Sprintf("refund-%s", in.BookingID),
	})

	result := &RefundBookingResult{RefundedCommissionCents: refundedComms}
	finNow := u.clk.Now()

	finErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.AcquireLock(ctx, in.TenantID, "booking", in.BookingID.String()); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, in.TenantID, in.BookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}

		if providerErr != nil {
			if err := b.FinishRefund(0, false, finNow); err != nil {
				return translateDomainErr(err)
			}
		} else {
			result.RefundID = providerRes.RefundID
			result.RefundedCents = providerRes.RefundedCents
			if err := b.FinishRefund(providerRes.RefundedCents, true, finNow); err != nil {
				return translateDomainErr(err)
			}
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		result.Booking = b
		return nil
	})
	if finErr != nil {
		return nil, translateBookingTxErr(finErr)
	}
	if providerErr != nil {
		return nil, errs.Mark(providerErr, errs.ErrPaymentProviderFailed)
	}

	u.emitter.Emit(ctx, EventBookingRefunded, map[string]any{
		"booking_id":                in.BookingID,
		"tenant_id":                 in.TenantID,
		"refund_id":                 result.RefundID,
		"refunded_cents":            result.RefundedCents,
		"refunded_commission_cents": result.RefundedCommissionCents,
		"reason":                    in.Reason,
	})
	return result, nil
}

func paidCents(b *booking.Booking) int64 {
	var paid int64
	if d := b.DepositPaidAmount(); d != nil {
		paid += *d
	}
	if p := b.BalancePaidAmount(); p != nil {
		paid += *p
	}
	return paid
}

// balanceCommission is the commission share attached to the balance charge:
// the total commission minus the deposit's half-up proportional share. The
// two always sum exactly to the stored commission amount.
func balanceCommission(b *booking.Booking) int64 {
	total := b.Total().Cents()
	commission := b.CommissionAmount().Cents()
	if total <= 0 {
		return 0
	}
	var depositPaid int64
	if d := b.DepositPaidAmount(); d != nil {
		depositPaid = *d
	}
	depositShare := (commission*depositPaid + total/2) / total
	return commission - depositShare
}

//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/shared"
	"bookingcore/tests/common/fake"
	usecasemock "bookingcore/tests/mock/usecase"

	cr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementFixture struct {
	ctrl     *gomock.Controller
	bookings *usecasemock.MockBookingRepository
	reads    *usecasemock.MockCommandReads
	provider *usecasemock.MockPaymentProvider
	emitter  *usecasemock.MockEventEmitter
	tx       *fake.Tx
	clk      *clock.MockClock
	uc       *commands.SettlementUsecase
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &settlementFixture{
		ctrl:     ctrl,
		bookings: usecasemock.NewMockBookingRepository(ctrl),
		reads:    usecasemock.NewMockCommandReads(ctrl),
		provider: usecasemock.NewMockPaymentProvider(ctrl),
		emitter:  usecasemock.NewMockEventEmitter(ctrl),
		clk:      clock.NewMockClock(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)),
	}
	f.tx = &fake.Tx{BookingsRepo: f.bookings, ReadsStore: f.reads}
	uow := &fake.UnitOfWork{Tx: f.tx, Reads: f.reads}
	f.uc = commands.NewSettlementUsecase(uow, f.provider, f.emitter, f.clk)
	return f
}

func settledBooking(t *testing.T, totalCents, depositCents int64) *booking.Booking {
	t.Helper()

	date, err := booking.ParseEventDate("2026-09-15")
	require.NoError(t, err)

	b, err := booking.NewBooking(booking.NewBookingParams{
		TenantID:          uuid.New(),
		CustomerID:        uuid.New(),
		Type:              booking.TypeDate,
		EventDate:         date,
		TotalCents:        totalCents,
		CommissionPercent: 10,
		Now:               time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	if depositCents > 0 {
		require.NoError(t, b.MarkDepositPaid(depositCents, time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)))
	}
	return b
}

func TestSettlementUsecase_CompleteBalancePayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	bookingID := uuid.New()

	t.Run("duplicate completion emits exactly one event", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil).Times(2)
		f.bookings.EXPECT().Save(ctx, b).Return(nil).Times(1)
		f.emitter.EXPECT().Emit(ctx, commands.EventBalancePaymentCompleted, gomock.Any()).Times(1)

		first, err := f.uc.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPaid, first.Status())
		require.NotNil(t, first.BalancePaidAt())
		firstPaidAt := *first.BalancePaidAt()

		f.clk.Add(5 * time.Minute)
		second, err := f.uc.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)
		assert.Equal(t, firstPaidAt, *second.BalancePaidAt())
	})

	t.Run("locks the booking before reading it", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)
		f.bookings.EXPECT().Save(ctx, b).Return(nil)
		f.emitter.EXPECT().Emit(ctx, commands.EventBalancePaymentCompleted, gomock.Any())

		_, err := f.uc.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)

		require.Len(t, f.tx.AcquiredLocks, 1)
		assert.Equal(t, []string{tenantID.String(), "booking", bookingID.String()}, f.tx.AcquiredLocks[0])
	})

	t.Run("overpayment is rejected and nothing fires", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err := f.uc.CompleteBalancePayment(ctx, tenantID, bookingID, 70001)
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})
}

func TestSettlementUsecase_PrepareBalancePayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	bookingID := uuid.New()

	t.Run("returns the plan with provider metadata", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)
		f.reads.EXPECT().CustomerByID(ctx, tenantID, b.CustomerID()).Return(&shared.CustomerSnapshot{
			ID:    b.CustomerID(),
			Email: "jordan@example.com",
			Name:  "Jordan",
		}, nil)

		plan, err := f.uc.PrepareBalancePayment(ctx, tenantID, bookingID)
		require.NoError(t, err)
		assert.Equal(t, int64(70000), plan.BalanceAmountCents)
		// commission 10000, deposit share (10000*30000+50000)/100000 = 3000
		assert.Equal(t, int64(7000), plan.BalanceCommissionCents)
		assert.Equal(t, "jordan@example.com", plan.Metadata["customer_email"])
		assert.Equal(t, "2026-09-15", plan.Metadata["event_date"])
		assert.Equal(t, "true", plan.Metadata["is_balance_payment"])
	})

	t.Run("rejects when no deposit was paid", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 0)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err := f.uc.PrepareBalancePayment(ctx, tenantID, bookingID)
		assert.ErrorIs(t, err, errs.ErrDepositNotPaid)
	})

	t.Run("rejects when the balance is already settled", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)
		_, err := b.ApplyBalancePayment(70000, time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err = f.uc.PrepareBalancePayment(ctx, tenantID, bookingID)
		assert.ErrorIs(t, err, errs.ErrBalanceAlreadyPaid)
	})

	t.Run("rejects when the deposit covered everything", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 100000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err := f.uc.PrepareBalancePayment(ctx, tenantID, bookingID)
		assert.ErrorIs(t, err, errs.ErrNothingToCollect)
	})

	t.Run("missing booking maps to not found", func(t *testing.T) {
		f := newSettlementFixture(t)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).
			Return(nil, cr.New("no rows"))

		_, err := f.uc.PrepareBalancePayment(ctx, tenantID, bookingID)
		assert.Error(t, err)
	})
}

func TestSettlementUsecase_StartBalanceCheckout(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	bookingID := uuid.New()

	expectPrepare := func(f *settlementFixture, b *booking.Booking) {
		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)
		f.reads.EXPECT().CustomerByID(ctx, tenantID, b.CustomerID()).Return(&shared.CustomerSnapshot{
			ID:    b.CustomerID(),
			Email: "jordan@example.com",
		}, nil)
	}

	t.Run("pins retries to one session via the idempotency key", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)
		expectPrepare(f, b)

		f.provider.EXPECT().CreateCheckoutSession(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.CheckoutParams) (*commands.CheckoutSession, error) {
				assert.Equal(t, "balance-"+bookingID.String(), p.IdempotencyKey)
				assert.Equal(t, int64(70000), p.AmountCents)
				assert.Equal(t, int64(7000), p.ApplicationFeeCents)
				return &commands.CheckoutSession{SessionID: "link_1", CheckoutURL: "https://pay.example/link_1"}, nil
			})

		session, err := f.uc.StartBalanceCheckout(ctx, tenantID, bookingID, "")
		require.NoError(t, err)
		assert.Equal(t, "link_1", session.SessionID)
	})

	t.Run("connected account routes through the connect session", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)
		expectPrepare(f, b)

		f.provider.EXPECT().CreateConnectCheckoutSession(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.CheckoutParams) (*commands.CheckoutSession, error) {
				assert.Equal(t, "acct_123", p.ConnectedAccountID)
				return &commands.CheckoutSession{SessionID: "link_2", CheckoutURL: "https://pay.example/link_2"}, nil
			})

		session, err := f.uc.StartBalanceCheckout(ctx, tenantID, bookingID, "acct_123")
		require.NoError(t, err)
		assert.Equal(t, "link_2", session.SessionID)
	})
}

func TestSettlementUsecase_RefundBooking(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	bookingID := uuid.New()

	refundableBooking := func(t *testing.T) *booking.Booking {
		b := settledBooking(t, 100000, 30000)
		_, err := b.ApplyBalancePayment(70000, time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		b.SetPaymentRef("chrg_abc", time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC))
		return b
	}

	t.Run("full refund reverses the full commission", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := refundableBooking(t)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil).Times(2)
		f.bookings.EXPECT().Save(ctx, b).Return(nil).Times(2)
		f.provider.EXPECT().Refund(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, p commands.RefundParams) (*commands.RefundResult, error) {
				assert.Equal(t, "chrg_abc", p.PaymentRef)
				assert.Equal(t, int64(100000), p.AmountCents)
				assert.Equal(t, "refund-"+bookingID.String(), p.IdempotencyKey)
				return &commands.RefundResult{RefundID: "rfnd_1", RefundedCents: 100000}, nil
			})
		f.emitter.EXPECT().Emit(ctx, commands.EventBookingRefunded, gomock.Any()).Times(1)

		res, err := f.uc.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
			Reason:    "event cancelled",
		})
		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", res.RefundID)
		assert.Equal(t, int64(100000), res.RefundedCents)
		assert.Equal(t, int64(10000), res.RefundedCommissionCents)
		assert.Equal(t, booking.StatusRefunded, res.Booking.Status())
	})

	t.Run("partial refund reverses a proportional commission share", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := refundableBooking(t)
		amount := int64(40000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil).Times(2)
		f.bookings.EXPECT().Save(ctx, b).Return(nil).Times(2)
		f.provider.EXPECT().Refund(ctx, gomock.Any()).
			Return(&commands.RefundResult{RefundID: "rfnd_2", RefundedCents: amount}, nil)
		f.emitter.EXPECT().Emit(ctx, commands.EventBookingRefunded, gomock.Any())

		res, err := f.uc.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:    tenantID,
			BookingID:   bookingID,
			AmountCents: &amount,
		})
		require.NoError(t, err)
		// ceil(10000 * 40000 / 100000) = 4000
		assert.Equal(t, int64(4000), res.RefundedCommissionCents)
		assert.Equal(t, booking.RefundPartial, res.Booking.RefundStatus())
		assert.NotEqual(t, booking.StatusRefunded, res.Booking.Status())
	})

	t.Run("provider failure records FAILED and emits nothing", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := refundableBooking(t)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil).Times(2)
		f.bookings.EXPECT().Save(ctx, b).Return(nil).Times(2)
		f.provider.EXPECT().Refund(ctx, gomock.Any()).
			Return(nil, cr.New("gateway unavailable"))

		_, err := f.uc.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
		})
		assert.ErrorIs(t, err, errs.ErrPaymentProviderFailed)
		assert.Equal(t, booking.RefundFailed, b.RefundStatus())
	})

	t.Run("refund without a captured payment is rejected", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := settledBooking(t, 100000, 30000)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err := f.uc.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
		})
		assert.ErrorIs(t, err, errs.ErrRefundNotAllowed)
	})

	t.Run("refund above the paid total is rejected", func(t *testing.T) {
		f := newSettlementFixture(t)
		b := refundableBooking(t)
		amount := int64(100001)

		f.bookings.EXPECT().FindByID(ctx, tenantID, bookingID).Return(b, nil)

		_, err := f.uc.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:    tenantID,
			BookingID:   bookingID,
			AmountCents: &amount,
		})
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})
}

func TestSettlementUsecase_CalculateDeposit(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("recomputes the split from stored tenant data", func(t *testing.T) {
		f := newSettlementFixture(t)
		pct := int32(30)
		addOnID := uuid.New()

		f.reads.EXPECT().TenantByID(ctx, tenantID).Return(&shared.TenantSnapshot{
			ID:                tenantID,
			DepositPercent:    &pct,
			CommissionPercent: 10,
		}, nil)
		f.reads.EXPECT().AddOnsByIDs(ctx, tenantID, []uuid.UUID{addOnID}).
			Return([]shared.AddOnSnapshot{{ID: addOnID, PriceCents: 20000}}, nil)

		split, err := f.uc.CalculateDeposit(ctx, commands.CalculateDepositInput{
			TenantID:       tenantID,
			BasePriceCents: 80000,
			AddOnIDs:       []uuid.UUID{addOnID},
		})
		require.NoError(t, err)
		assert.True(t, split.IsDeposit)
		assert.Equal(t, int64(30000), split.AmountToCharge)
		assert.Equal(t, int64(10000), split.TotalCommission)
		assert.Equal(t, int64(3000), split.DepositCommission)
		assert.Equal(t, int64(7000), split.BalanceCommission)
	})

	t.Run("negative base price is rejected before any read", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.uc.CalculateDeposit(ctx, commands.CalculateDepositInput{
			TenantID:       tenantID,
			BasePriceCents: -1,
		})
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})
}

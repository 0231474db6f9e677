//go:build unit

package booking_test

import (
	"testing"
	"time"

	"bookingcore/internal/domain/booking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T, totalCents int64, commissionPercent int32) *booking.Booking {
	t.Helper()

	date, err := booking.ParseEventDate("2026-09-15")
	require.NoError(t, err)

	b, err := booking.NewBooking(booking.NewBookingParams{
		TenantID:          uuid.New(),
		CustomerID:        uuid.New(),
		Type:              booking.TypeDate,
		EventDate:         date,
		TotalCents:        totalCents,
		CommissionPercent: commissionPercent,
		Now:               time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	t.Run("commission is derived, never caller-supplied", func(t *testing.T) {
		b := newTestBooking(t, 100000, 12)

		assert.Equal(t, int64(12000), b.CommissionAmount().Cents())
		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Equal(t, booking.RefundNone, b.RefundStatus())
	})

	t.Run("commission rounds up on non-exact splits", func(t *testing.T) {
		b := newTestBooking(t, 100001, 12)
		assert.Equal(t, int64(12001), b.CommissionAmount().Cents())
	})

	t.Run("timeslot booking requires an interval", func(t *testing.T) {
		date, _ := booking.ParseEventDate("2026-09-15")
		_, err := booking.NewBooking(booking.NewBookingParams{
			TenantID:   uuid.New(),
			CustomerID: uuid.New(),
			Type:       booking.TypeTimeslot,
			EventDate:  date,
			TotalCents: 5000,
			Now:        time.Now(),
		})
		assert.ErrorIs(t, err, booking.ErrMissingInterval)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		date, _ := booking.ParseEventDate("2026-09-15")
		_, err := booking.NewBooking(booking.NewBookingParams{
			TenantID:   uuid.New(),
			CustomerID: uuid.New(),
			Type:       booking.Type("WEEKLY"),
			EventDate:  date,
			TotalCents: 5000,
			Now:        time.Now(),
		})
		assert.ErrorIs(t, err, booking.ErrInvalidBookingType)
	})
}

func TestBooking_ApplyBalancePayment(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("first application settles the balance", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.MarkDepositPaid(30000, now))

		applied, err := b.ApplyBalancePayment(70000, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, booking.StatusPaid, b.Status())
		require.NotNil(t, b.BalancePaidAt())
		assert.Equal(t, now, *b.BalancePaidAt())
	})

	t.Run("second application is a no-op", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.MarkDepositPaid(30000, now))

		applied, err := b.ApplyBalancePayment(70000, now)
		require.NoError(t, err)
		require.True(t, applied)
		firstPaidAt := *b.BalancePaidAt()

		later := now.Add(5 * time.Minute)
		applied, err = b.ApplyBalancePayment(70000, later)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, firstPaidAt, *b.BalancePaidAt())
		assert.Equal(t, int64(70000), *b.BalancePaidAmount())
	})

	t.Run("payments can never exceed the total", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.MarkDepositPaid(30000, now))

		_, err := b.ApplyBalancePayment(70001, now)
		assert.ErrorIs(t, err, booking.ErrPaymentExceedsTotal)
	})

	t.Run("cancelled booking cannot settle", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.Cancel(now))

		_, err := b.ApplyBalancePayment(100000, now)
		assert.ErrorIs(t, err, booking.ErrAlreadyCancelled)
	})
}

func TestBooking_Lifecycle(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("cancel is not repeatable", func(t *testing.T) {
		b := newTestBooking(t, 50000, 10)
		require.NoError(t, b.Cancel(now))
		assert.ErrorIs(t, b.Cancel(now), booking.ErrAlreadyCancelled)
	})

	t.Run("reschedule keeps financial fields untouched", func(t *testing.T) {
		b := newTestBooking(t, 100000, 12)
		require.NoError(t, b.MarkDepositPaid(30000, now))

		newDate, _ := booking.ParseEventDate("2026-10-01")
		require.NoError(t, b.Reschedule(newDate, now))

		assert.True(t, b.EventDate().Equal(newDate))
		assert.Equal(t, int64(100000), b.Total().Cents())
		assert.Equal(t, int64(12000), b.CommissionAmount().Cents())
		assert.Equal(t, int64(30000), *b.DepositPaidAmount())
	})

	t.Run("reschedule after cancel is rejected", func(t *testing.T) {
		b := newTestBooking(t, 50000, 10)
		require.NoError(t, b.Cancel(now))

		newDate, _ := booking.ParseEventDate("2026-10-01")
		assert.ErrorIs(t, b.Reschedule(newDate, now), booking.ErrAlreadyCancelled)
	})

	t.Run("deposit exceeding total is rejected", func(t *testing.T) {
		b := newTestBooking(t, 50000, 10)
		assert.ErrorIs(t, b.MarkDepositPaid(50001, now), booking.ErrPaymentExceedsTotal)
	})

	t.Run("outstanding balance reflects the deposit", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		assert.Equal(t, int64(100000), b.OutstandingBalanceCents())

		require.NoError(t, b.MarkDepositPaid(30000, now))
		assert.Equal(t, int64(70000), b.OutstandingBalanceCents())
	})
}

func TestBooking_Refund(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("full refund releases the slot", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.BeginRefund(now))
		assert.Equal(t, booking.RefundProcessing, b.RefundStatus())

		require.NoError(t, b.FinishRefund(100000, true, now))
		assert.Equal(t, booking.RefundCompleted, b.RefundStatus())
		assert.Equal(t, booking.StatusRefunded, b.Status())
		assert.False(t, b.Status().OccupiesSlot())
	})

	t.Run("partial refund keeps the booking active", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.BeginRefund(now))
		require.NoError(t, b.FinishRefund(40000, true, now))

		assert.Equal(t, booking.RefundPartial, b.RefundStatus())
		assert.NotEqual(t, booking.StatusRefunded, b.Status())
	})

	t.Run("failed refund can be retried", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.BeginRefund(now))
		require.NoError(t, b.FinishRefund(0, false, now))
		assert.Equal(t, booking.RefundFailed, b.RefundStatus())

		require.NoError(t, b.BeginRefund(now))
		assert.Equal(t, booking.RefundProcessing, b.RefundStatus())
	})

	t.Run("finish without begin is rejected", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		assert.ErrorIs(t, b.FinishRefund(100000, true, now), booking.ErrInvalidTransition)
	})

	t.Run("double begin is rejected", func(t *testing.T) {
		b := newTestBooking(t, 100000, 10)
		require.NoError(t, b.BeginRefund(now))
		assert.ErrorIs(t, b.BeginRefund(now), booking.ErrInvalidTransition)
	})
}

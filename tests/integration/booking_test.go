//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/pkg/ptr"
	"bookingcore/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateCreateInput(tenantID, serviceID uuid.UUID, email, eventDate string) commands.CreateBookingInput {
	sid := serviceID
	return commands.CreateBookingInput{
		TenantID:      tenantID,
		CustomerEmail: email,
		CustomerName:  "Integration Tester",
		ServiceID:     &sid,
		BookingType:   "DATE",
		EventDate:     eventDate,
	}
}

func TestCreateBooking_DateExclusion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tenantID := createTenant(t, env.pool, nil, 10)
	serviceID := createService(t, env.pool, tenantID, 100000, nil)

	t.Run("concurrent creates for the same date admit exactly one", func(t *testing.T) {
		const attempts = 4
		results := make([]*commands.CreateBookingResult, attempts)
		errors := make([]error, attempts)

		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errors[i] = env.bookings.CreateBooking(ctx,
					dateCreateInput(tenantID, serviceID, "racer@example.com", "2026-11-01"))
			}(i)
		}
		wg.Wait()

		var created int
		for i := range attempts {
			require.NoError(t, errors[i])
			if results[i].Status == commands.CreateStatusCreated {
				created++
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, int64(1),
			countRows(t, env.pool, "SELECT COUNT(*) FROM bookings WHERE tenant_id = $1 AND event_date = $2", tenantID, "2026-11-01"))
	})

	t.Run("different tenants share the date freely", func(t *testing.T) {
		otherTenant := createTenant(t, env.pool, nil, 10)
		otherService := createService(t, env.pool, otherTenant, 100000, nil)

		res, err := env.bookings.CreateBooking(ctx,
			dateCreateInput(otherTenant, otherService, "other@example.com", "2026-11-01"))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusCreated, res.Status)
	})

	t.Run("failed create leaves no customer row behind", func(t *testing.T) {
		res, err := env.bookings.CreateBooking(ctx,
			dateCreateInput(tenantID, serviceID, "ghost@example.com", "2026-11-01"))
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusConflict, res.Status)

		assert.Equal(t, int64(0),
			countRows(t, env.pool, "SELECT COUNT(*) FROM customers WHERE tenant_id = $1 AND email = $2", tenantID, "ghost@example.com"))
	})

	t.Run("cancelled booking releases the date", func(t *testing.T) {
		first, err := env.bookings.CreateBooking(ctx,
			dateCreateInput(tenantID, serviceID, "racer@example.com", "2026-11-02"))
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, first.Status)

		_, err = env.bookings.CancelBooking(ctx, tenantID, first.BookingID)
		require.NoError(t, err)

		second, err := env.bookings.CreateBooking(ctx,
			dateCreateInput(tenantID, serviceID, "racer@example.com", "2026-11-02"))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusCreated, second.Status)
	})
}

func TestCreateBooking_TimeslotExclusion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tenantID := createTenant(t, env.pool, nil, 10)
	serviceID := createService(t, env.pool, tenantID, 20000, nil)

	slotInput := func(email string, startHour, endHour int) commands.CreateBookingInput {
		day := time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC)
		start := day.Add(time.Duration(startHour) * time.Hour)
		end := day.Add(time.Duration(endHour) * time.Hour)
		sid := serviceID
		return commands.CreateBookingInput{
			TenantID:      tenantID,
			CustomerEmail: email,
			CustomerName:  "Integration Tester",
			ServiceID:     &sid,
			BookingType:   "TIMESLOT",
			EventDate:     "2026-11-10",
			StartTime:     &start,
			EndTime:       &end,
		}
	}

	t.Run("overlapping slot is rejected", func(t *testing.T) {
		first, err := env.bookings.CreateBooking(ctx, slotInput("a@example.com", 10, 12))
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, first.Status)

		second, err := env.bookings.CreateBooking(ctx, slotInput("b@example.com", 11, 13))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusConflict, second.Status)
	})

	t.Run("back-to-back slots do not collide", func(t *testing.T) {
		res, err := env.bookings.CreateBooking(ctx, slotInput("c@example.com", 12, 14))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusCreated, res.Status)
	})

	t.Run("daily capacity is enforced", func(t *testing.T) {
		capped := createService(t, env.pool, tenantID, 20000, ptr.To[int32](1))
		sid := capped

		in := slotInput("d@example.com", 8, 9)
		in.ServiceID = &sid
		first, err := env.bookings.CreateBooking(ctx, in)
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, first.Status)

		in = slotInput("e@example.com", 15, 16)
		in.ServiceID = &sid
		second, err := env.bookings.CreateBooking(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusConflict, second.Status)
	})
}

func TestRescheduleBooking(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tenantID := createTenant(t, env.pool, nil, 10)
	serviceID := createService(t, env.pool, tenantID, 100000, nil)

	createDate := func(t *testing.T, email, eventDate string) uuid.UUID {
		res, err := env.bookings.CreateBooking(ctx, dateCreateInput(tenantID, serviceID, email, eventDate))
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, res.Status)
		return res.BookingID
	}

	slotTime := func(day string, hour int) *time.Time {
		d, err := time.Parse("2006-01-02", day)
		require.NoError(t, err)
		return ptr.To(d.Add(time.Duration(hour) * time.Hour))
	}

	createSlot := func(t *testing.T, svcID uuid.UUID, email, eventDate string, startHour, endHour int) uuid.UUID {
		res, err := env.bookings.CreateBooking(ctx, commands.CreateBookingInput{
			TenantID:      tenantID,
			CustomerEmail: email,
			CustomerName:  "Integration Tester",
			ServiceID:     &svcID,
			BookingType:   "TIMESLOT",
			EventDate:     eventDate,
			StartTime:     slotTime(eventDate, startHour),
			EndTime:       slotTime(eventDate, endHour),
		})
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, res.Status)
		return res.BookingID
	}

	t.Run("date move to an occupied date conflicts", func(t *testing.T) {
		movingID := createDate(t, "mover@example.com", "2026-10-01")
		createDate(t, "blocker@example.com", "2026-10-02")

		_, err := env.bookings.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: movingID,
			NewDate:   "2026-10-02",
		})
		assert.ErrorIs(t, err, errs.ErrBookingConflict)
		assert.Equal(t, int64(1),
			countRows(t, env.pool, "SELECT COUNT(*) FROM bookings WHERE id = $1 AND event_date = $2", movingID, "2026-10-01"))
	})

	t.Run("date move to a free date keeps financial fields intact", func(t *testing.T) {
		bookingID := createDate(t, "mover@example.com", "2026-10-05")

		_, err := env.settlement.CompleteDepositPayment(ctx, tenantID, bookingID, 30000, "chrg_move_1")
		require.NoError(t, err)

		moved, err := env.bookings.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
			NewDate:   "2026-10-06",
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-10-06", moved.EventDate().String())
		assert.Equal(t, booking.StatusDepositPaid, moved.Status())
		assert.Equal(t, int64(1),
			countRows(t, env.pool, "SELECT COUNT(*) FROM bookings WHERE id = $1 AND event_date = $2 AND deposit_paid_amount = 30000", bookingID, "2026-10-06"))

		// the old date is free again
		res, err := env.bookings.CreateBooking(ctx, dateCreateInput(tenantID, serviceID, "newcomer@example.com", "2026-10-05"))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusCreated, res.Status)
	})

	t.Run("same-day timeslot shift does not collide with itself", func(t *testing.T) {
		capped := createService(t, env.pool, tenantID, 20000, ptr.To[int32](1))
		bookingID := createSlot(t, capped, "shift@example.com", "2026-10-10", 10, 12)

		moved, err := env.bookings.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
			NewDate:   "2026-10-10",
			NewStart:  slotTime("2026-10-10", 11),
			NewEnd:    slotTime("2026-10-10", 13),
		})
		require.NoError(t, err)
		require.NotNil(t, moved.Interval())
		assert.True(t, moved.Interval().Start().Equal(*slotTime("2026-10-10", 11)))
	})

	t.Run("timeslot move into another booking's slot conflicts", func(t *testing.T) {
		svc := createService(t, env.pool, tenantID, 20000, nil)
		movingID := createSlot(t, svc, "mover@example.com", "2026-10-11", 8, 9)
		createSlot(t, svc, "blocker@example.com", "2026-10-11", 10, 12)

		_, err := env.bookings.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: movingID,
			NewDate:   "2026-10-11",
			NewStart:  slotTime("2026-10-11", 11),
			NewEnd:    slotTime("2026-10-11", 13),
		})
		assert.ErrorIs(t, err, errs.ErrBookingConflict)
	})

	t.Run("cancelled booking cannot be rescheduled", func(t *testing.T) {
		bookingID := createDate(t, "quitter@example.com", "2026-10-20")
		_, err := env.bookings.CancelBooking(ctx, tenantID, bookingID)
		require.NoError(t, err)

		_, err = env.bookings.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
			NewDate:   "2026-10-21",
		})
		assert.ErrorIs(t, err, errs.ErrBookingAlreadyCancelled)
	})
}

func TestSettlementFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	depositPct := int32(30)
	tenantID := createTenant(t, env.pool, &depositPct, 10)
	serviceID := createService(t, env.pool, tenantID, 100000, nil)

	createBooking := func(t *testing.T, email, eventDate string) uuid.UUID {
		res, err := env.bookings.CreateBooking(ctx, dateCreateInput(tenantID, serviceID, email, eventDate))
		require.NoError(t, err)
		require.Equal(t, commands.CreateStatusCreated, res.Status)
		return res.BookingID
	}

	t.Run("deposit then idempotent balance completion", func(t *testing.T) {
		bookingID := createBooking(t, "settle@example.com", "2026-12-01")

		b, err := env.settlement.CompleteDepositPayment(ctx, tenantID, bookingID, 30000, "chrg_dep_1")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusDepositPaid, b.Status())

		first, err := env.settlement.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusPaid, first.Status())
		require.NotNil(t, first.BalancePaidAt())
		firstPaidAt := *first.BalancePaidAt()

		second, err := env.settlement.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)
		assert.WithinDuration(t, firstPaidAt, *second.BalancePaidAt(), time.Millisecond)

		assert.Equal(t, int64(1),
			countRows(t, env.pool, "SELECT COUNT(*) FROM bookings WHERE id = $1 AND balance_paid_amount = 70000", bookingID))
	})

	t.Run("overpayment is rejected by the database too", func(t *testing.T) {
		bookingID := createBooking(t, "settle@example.com", "2026-12-02")

		_, err := env.settlement.CompleteDepositPayment(ctx, tenantID, bookingID, 30000, "chrg_dep_2")
		require.NoError(t, err)

		_, err = env.settlement.CompleteBalancePayment(ctx, tenantID, bookingID, 70001)
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})

	t.Run("full refund releases the slot and reverses the commission", func(t *testing.T) {
		bookingID := createBooking(t, "refund@example.com", "2026-12-03")

		_, err := env.settlement.CompleteDepositPayment(ctx, tenantID, bookingID, 30000, "chrg_ref_1")
		require.NoError(t, err)
		_, err = env.settlement.CompleteBalancePayment(ctx, tenantID, bookingID, 70000)
		require.NoError(t, err)

		res, err := env.settlement.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
			Reason:    "event cancelled",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100000), res.RefundedCents)
		assert.Equal(t, int64(10000), res.RefundedCommissionCents)
		assert.Equal(t, booking.StatusRefunded, res.Booking.Status())

		// the date is free again
		again, err := env.bookings.CreateBooking(ctx, dateCreateInput(tenantID, serviceID, "refund@example.com", "2026-12-03"))
		require.NoError(t, err)
		assert.Equal(t, commands.CreateStatusCreated, again.Status)
	})

	t.Run("refund without payment is rejected", func(t *testing.T) {
		bookingID := createBooking(t, "nopay@example.com", "2026-12-04")

		_, err := env.settlement.RefundBooking(ctx, commands.RefundBookingInput{
			TenantID:  tenantID,
			BookingID: bookingID,
		})
		assert.ErrorIs(t, err, errs.ErrRefundNotAllowed)
	})
}


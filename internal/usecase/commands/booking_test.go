//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/pkg/ptr"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/shared"
	"bookingcore/tests/common/fake"
	usecasemock "bookingcore/tests/mock/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type bookingFixture struct {
	ctrl     *gomock.Controller
	bookings *usecasemock.MockBookingRepository
	reads    *usecasemock.MockCommandReads
	emitter  *usecasemock.MockEventEmitter
	tx       *fake.Tx
	clk      *clock.MockClock
	uc       *commands.BookingUsecase
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &bookingFixture{
		ctrl:     ctrl,
		bookings: usecasemock.NewMockBookingRepository(ctrl),
		reads:    usecasemock.NewMockCommandReads(ctrl),
		emitter:  usecasemock.NewMockEventEmitter(ctrl),
		clk:      clock.NewMockClock(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)),
	}
	f.tx = &fake.Tx{BookingsRepo: f.bookings, ReadsStore: f.reads}
	uow := &fake.UnitOfWork{Tx: f.tx, Reads: f.reads}
	f.uc = commands.NewBookingUsecase(uow, f.emitter, f.clk)
	return f
}

func timeslotBooking(t *testing.T, tenantID, serviceID uuid.UUID, date string, start, end time.Time) *booking.Booking {
	t.Helper()

	d, err := booking.ParseEventDate(date)
	require.NoError(t, err)
	r, err := booking.NewTimeRange(start, end)
	require.NoError(t, err)

	b, err := booking.NewBooking(booking.NewBookingParams{
		TenantID:          tenantID,
		CustomerID:        uuid.New(),
		ServiceID:         &serviceID,
		Type:              booking.TypeTimeslot,
		EventDate:         d,
		Interval:          &r,
		TotalCents:        50000,
		CommissionPercent: 10,
		Now:               time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func dateBooking(t *testing.T, tenantID uuid.UUID, date string) *booking.Booking {
	t.Helper()

	d, err := booking.ParseEventDate(date)
	require.NoError(t, err)

	b, err := booking.NewBooking(booking.NewBookingParams{
		TenantID:          tenantID,
		CustomerID:        uuid.New(),
		Type:              booking.TypeDate,
		EventDate:         d,
		TotalCents:        50000,
		CommissionPercent: 10,
		Now:               time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestBookingUsecase_RescheduleBooking(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	serviceID := uuid.New()

	t.Run("same-day timeslot shift excludes the booking's own row", func(t *testing.T) {
		f := newBookingFixture(t)
		b := timeslotBooking(t, tenantID, serviceID, "2026-09-15",
			time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC))

		f.bookings.EXPECT().FindByID(ctx, tenantID, b.ID()).Return(b, nil)
		f.bookings.EXPECT().
			HasOverlappingTimeslot(ctx, tenantID, serviceID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ uuid.UUID, _ booking.TimeRange, excludeID uuid.UUID) (bool, error) {
				assert.Equal(t, b.ID(), excludeID)
				return false, nil
			})
		f.reads.EXPECT().ServiceByID(ctx, tenantID, serviceID).Return(&shared.ServiceSnapshot{
			ID:        serviceID,
			MaxPerDay: ptr.To[int32](1),
		}, nil)
		f.bookings.EXPECT().
			CountActiveForServiceOnDate(ctx, tenantID, serviceID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ uuid.UUID, _ booking.EventDate, excludeID uuid.UUID) (int64, error) {
				assert.Equal(t, b.ID(), excludeID)
				return 0, nil
			})
		f.bookings.EXPECT().Save(ctx, b).Return(nil)
		f.emitter.EXPECT().Emit(ctx, commands.EventBookingRescheduled, gomock.Any())

		moved, err := f.uc.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: b.ID(),
			NewDate:   "2026-09-15",
			NewStart:  ptr.To(time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC)),
			NewEnd:    ptr.To(time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
		require.NotNil(t, moved.Interval())
		assert.Equal(t, time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC), moved.Interval().Start())
		assert.Equal(t, int64(50000), moved.Total().Cents())
	})

	t.Run("locks the slot before the overlap check", func(t *testing.T) {
		f := newBookingFixture(t)
		b := timeslotBooking(t, tenantID, serviceID, "2026-09-15",
			time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC))

		f.bookings.EXPECT().FindByID(ctx, tenantID, b.ID()).Return(b, nil)
		f.bookings.EXPECT().
			HasOverlappingTimeslot(ctx, tenantID, serviceID, gomock.Any(), b.ID()).
			Return(false, nil)
		f.reads.EXPECT().ServiceByID(ctx, tenantID, serviceID).Return(&shared.ServiceSnapshot{ID: serviceID}, nil)
		f.bookings.EXPECT().Save(ctx, b).Return(nil)
		f.emitter.EXPECT().Emit(ctx, commands.EventBookingRescheduled, gomock.Any())

		_, err := f.uc.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: b.ID(),
			NewDate:   "2026-09-16",
		})
		require.NoError(t, err)

		require.Len(t, f.tx.AcquiredLocks, 1)
		assert.Equal(t, []string{tenantID.String(), "slot", serviceID.String(), "2026-09-16"}, f.tx.AcquiredLocks[0])
	})

	t.Run("date move to an occupied date conflicts", func(t *testing.T) {
		f := newBookingFixture(t)
		b := dateBooking(t, tenantID, "2026-09-15")

		f.bookings.EXPECT().FindByID(ctx, tenantID, b.ID()).Return(b, nil)
		newDate, err := booking.ParseEventDate("2026-09-20")
		require.NoError(t, err)
		f.bookings.EXPECT().DateOccupied(ctx, tenantID, newDate).Return(true, nil)

		_, err = f.uc.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: b.ID(),
			NewDate:   "2026-09-20",
		})
		assert.ErrorIs(t, err, errs.ErrBookingConflict)
	})

	t.Run("date move onto its own date skips the occupancy check", func(t *testing.T) {
		f := newBookingFixture(t)
		b := dateBooking(t, tenantID, "2026-09-15")

		f.bookings.EXPECT().FindByID(ctx, tenantID, b.ID()).Return(b, nil)
		f.bookings.EXPECT().Save(ctx, b).Return(nil)
		f.emitter.EXPECT().Emit(ctx, commands.EventBookingRescheduled, gomock.Any())

		moved, err := f.uc.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: b.ID(),
			NewDate:   "2026-09-15",
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-09-15", moved.EventDate().String())
	})

	t.Run("cancelled booking cannot be rescheduled", func(t *testing.T) {
		f := newBookingFixture(t)
		b := dateBooking(t, tenantID, "2026-09-15")
		require.NoError(t, b.Cancel(time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)))

		f.bookings.EXPECT().FindByID(ctx, tenantID, b.ID()).Return(b, nil)
		f.bookings.EXPECT().DateOccupied(ctx, tenantID, gomock.Any()).Return(false, nil)

		_, err := f.uc.RescheduleBooking(ctx, commands.RescheduleBookingInput{
			TenantID:  tenantID,
			BookingID: b.ID(),
			NewDate:   "2026-09-20",
		})
		assert.ErrorIs(t, err, errs.ErrBookingAlreadyCancelled)
	})
}

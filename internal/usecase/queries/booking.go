package queries

import (
	"context"
	"time"

	"bookingcore/internal/infra"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/errs"

	"github.com/google/uuid"
)

// BookingQueryService is the lock-free read side. Every listing clamps its
// page size and date span before touching the store, so a caller can never
// trigger an unbounded scan.
type BookingQueryService struct {
	store BookingReadStore
	clk   clock.Clock
}

func NewBookingQueryService(store BookingReadStore, clk clock.Clock) *BookingQueryService {
	return &BookingQueryService{store: store, clk: clk}
}

func (s *BookingQueryService) GetBooking(ctx context.Context, tenantID, id uuid.UUID) (*BookingView, error) {
	view, err := s.store.FindByID(ctx, tenantID, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return nil, err
	}
	return view, nil
}

func (s *BookingQueryService) ListBookings(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*AppointmentListItem, error) {
	return s.store.FindAll(ctx, tenantID, clampLimit(limit), maxInt32(offset, 0))
}

func (s *BookingQueryService) ListAppointments(ctx context.Context, tenantID uuid.UUID, filter AppointmentFilter) ([]*AppointmentListItem, error) {
	filter.Limit = clampLimit(filter.Limit)
	filter.Offset = maxInt32(filter.Offset, 0)

	from, to := s.clampSpan(filter.From, filter.To)
	filter.From = &from
	filter.To = &to

	return s.store.FindAppointments(ctx, tenantID, filter)
}

func (s *BookingQueryService) IsDateAvailable(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	booked, err := s.store.IsDateBooked(ctx, tenantID, date)
	if err != nil {
		return false, err
	}
	return !booked, nil
}

func (s *BookingQueryService) UnavailableDates(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]string, error) {
	from, to = normalizeWindow(from, to, s.clk.Now())
	return s.store.UnavailableDates(ctx, tenantID, from, to)
}

func (s *BookingQueryService) TimeslotBookings(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) ([]*TimeslotView, error) {
	return s.store.FindTimeslotBookings(ctx, tenantID, serviceID, date)
}

func (s *BookingQueryService) TimeslotBookingsInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*TimeslotView, error) {
	from, to = normalizeWindow(from, to, s.clk.Now())
	return s.store.FindTimeslotBookingsInRange(ctx, tenantID, from, to)
}

func (s *BookingQueryService) CountTimeslotBookings(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) (int64, error) {
	return s.store.CountTimeslotBookingsForServiceOnDate(ctx, tenantID, serviceID, date)
}

func (s *BookingQueryService) BookingsNeedingReminders(ctx context.Context) ([]*ReminderView, error) {
	return s.store.FindBookingsNeedingReminders(ctx, s.clk.Now())
}

func (s *BookingQueryService) clampSpan(from, to *time.Time) (time.Time, time.Time) {
	now := s.clk.Now().UTC()
	f := now
	if from != nil {
		f = *from
	}
	t := f.AddDate(0, 0, MaxAppointmentSpanDays)
	if to != nil && to.Before(t) {
		t = *to
	}
	if t.Before(f) {
		t = f
	}
	return f, t
}

func normalizeWindow(from, to time.Time, now time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = now.UTC()
	}
	if to.IsZero() || to.Before(from) {
		to = from.AddDate(0, 0, MaxAppointmentSpanDays)
	}
	if to.Sub(from) > time.Duration(MaxAppointmentSpanDays)*24*time.Hour {
		to = from.AddDate(0, 0, MaxAppointmentSpanDays)
	}
	return from, to
}

func clampLimit(limit int32) int32 {
	if limit <= 0 {
		return DefaultAppointmentLimit
	}
	if limit > MaxAppointmentLimit {
		return MaxAppointmentLimit
	}
	return limit
}

func maxInt32(v, floor int32) int32 {
	if v < floor {
		return floor
	}
	return v
}

package commands

import (
	"context"
	"errors"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/domain/pricing"
	"bookingcore/internal/infra"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
)

// CreateStatus is the tagged outcome of a create attempt. Conflict and lock
// timeout are ordinary results of the protocol, so the caller decides retry
// policy on the tag instead of unwrapping error chains.
type CreateStatus string

const (
	CreateStatusCreated     CreateStatus = "CREATED"
	CreateStatusConflict    CreateStatus = "CONFLICT"
	CreateStatusLockTimeout CreateStatus = "LOCK_TIMEOUT"
)

type CreateBookingInput struct {
	TenantID      uuid.UUID
	CustomerEmail string
	CustomerName  string
	CustomerPhone *string

	ServiceID *uuid.UUID
	PackageID *uuid.UUID

	BookingType    string
	EventDate      string
	StartTime      *time.Time
	EndTime        *time.Time
	GuestCount     *int
	AddOnIDs       []uuid.UUID
	BalanceDueDate *string
}

type CreateBookingResult struct {
	Status     CreateStatus
	BookingID  uuid.UUID
	TotalCents int64
	Quote      *pricing.Quote
}

type RescheduleBookingInput struct {
	TenantID  uuid.UUID
	BookingID uuid.UUID
	NewDate   string
	// Optional replacement interval for TIMESLOT bookings. When omitted the
	// existing clock times carry over to the new date.
	NewStart *time.Time
	NewEnd   *time.Time
}

type BookingUsecase struct {
	uow     shared.UnitOfWork
	emitter EventEmitter
	clk     clock.Clock
}

func NewBookingUsecase(uow shared.UnitOfWork, emitter EventEmitter, clk clock.Clock) *BookingUsecase {
	return &BookingUsecase{uow: uow, emitter: emitter, clk: clk}
}

// CreateBooking runs the lock-then-check-then-insert protocol. The customer
// upsert rides in the same transaction, so a conflict rolls back every row
// of the attempt.
func (u *BookingUsecase) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	bookingType := booking.Type(in.BookingType)
	if !bookingType.IsValid() {
		return nil, errs.Mark(errs.New("booking type must be DATE or TIMESLOT"), errs.ErrDomainValidation)
	}
	eventDate, err := booking.ParseEventDate(in.EventDate)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	var interval *booking.TimeRange
	if bookingType == booking.TypeTimeslot {
		if in.StartTime == nil || in.EndTime == nil {
			return nil, errs.Mark(errs.New("timeslot booking requires start and end time"), errs.ErrDomainValidation)
		}
		r, err := booking.NewTimeRange(*in.StartTime, *in.EndTime)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		interval = &r
	}

	var balanceDueDate *booking.EventDate
	if in.BalanceDueDate != nil {
		d, err := booking.ParseEventDate(*in.BalanceDueDate)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		balanceDueDate = &d
	}

	now := u.clk.Now()
	result := &CreateBookingResult{Status: CreateStatusCreated}

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		tenant, err := tx.Reads().TenantByID(ctx, in.TenantID)
		if err != nil {
			return translateReadErr(err, errs.ErrTenantNotFound)
		}

		quote, addOns, err := u.priceBooking(ctx, tx, in)
		if err != nil {
			return err
		}
		result.Quote = quote
		result.TotalCents = quote.TotalBeforeCommission
		for _, a := range addOns {
			result.TotalCents += a.PriceCents
		}

		customerID, err := tx.Customers().UpsertByEmail(ctx, in.TenantID, in.CustomerEmail, in.CustomerName, in.CustomerPhone)
		if err != nil {
			return err
		}

		// Lock before reading any contended state.
		switch bookingType {
		case booking.TypeDate:
			if err := tx.AcquireLock(ctx, in.TenantID, "date", eventDate.String()); err != nil {
				return err
			}
			occupied, err := tx.Bookings().DateOccupied(ctx, in.TenantID, eventDate)
			if err != nil {
				return err
			}
			if occupied {
				return infra.WrapRepoErr("date already booked", nil, infra.KindConflict)
			}
		case booking.TypeTimeslot:
			if err := tx.AcquireLock(ctx, in.TenantID, "slot", in.ServiceID.String(), eventDate.String()); err != nil {
				return err
			}
			if err := u.checkTimeslotFree(ctx, tx, in.TenantID, *in.ServiceID, eventDate, *interval, uuid.Nil); err != nil {
				return err
			}
		}

		b, err := booking.NewBooking(booking.NewBookingParams{
			TenantID:          in.TenantID,
			CustomerID:        customerID,
			ServiceID:         in.ServiceID,
			PackageID:         in.PackageID,
			Type:              bookingType,
			EventDate:         eventDate,
			Interval:          interval,
			GuestCount:        in.GuestCount,
			TotalCents:        result.TotalCents,
			CommissionPercent: tenant.CommissionPercent,
			BalanceDueDate:    balanceDueDate,
			InitialStatus:     booking.StatusPending,
			Now:               now,
		})
		if err != nil {
			return errs.Mark(err, errs.ErrDomainValidation)
		}

		bookingAddOns := make([]shared.BookingAddOn, len(addOns))
		for i, a := range addOns {
			bookingAddOns[i] = shared.BookingAddOn{AddOnID: a.ID, PriceCents: a.PriceCents}
		}

		id, err := tx.Bookings().Create(ctx, b, bookingAddOns)
		if err != nil {
			return err
		}
		result.BookingID = id
		return nil
	})

	if txErr != nil {
		switch {
		case infra.IsKind(txErr, infra.KindConflict):
			result.Status = CreateStatusConflict
			return result, nil
		case infra.IsKind(txErr, infra.KindLockTimeout):
			result.Status = CreateStatusLockTimeout
			return result, nil
		default:
			return nil, txErr
		}
	}

	u.emitter.Emit(ctx, EventBookingCreated, map[string]any{
		"booking_id":   result.BookingID,
		"tenant_id":    in.TenantID,
		"booking_type": string(bookingType),
		"event_date":   eventDate.String(),
		"total_cents":  result.TotalCents,
	})
	return result, nil
}

func (u *BookingUsecase) priceBooking(ctx context.Context, tx shared.Tx, in CreateBookingInput) (*pricing.Quote, []shared.AddOnSnapshot, error) {
	var quote *pricing.Quote

	switch {
	case in.PackageID != nil:
		pkg, err := tx.Reads().PackageByID(ctx, in.TenantID, *in.PackageID)
		if err != nil {
			return nil, nil, translateReadErr(err, errs.ErrPackageNotFound)
		}
		guests := 1
		if in.GuestCount != nil {
			guests = *in.GuestCount
		}
		quote, err = pricing.CalculateScalingPrice(pricing.Tier{
			PriceCents: pkg.PriceCents,
			MaxGuests:  pkg.MaxGuests,
			Components: pkg.Scaling,
		}, guests)
		if err != nil {
			return nil, nil, errs.Mark(err, errs.ErrDomainValidation)
		}
	case in.ServiceID != nil:
		svc, err := tx.Reads().ServiceByID(ctx, in.TenantID, *in.ServiceID)
		if err != nil {
			return nil, nil, translateReadErr(err, errs.ErrServiceNotFound)
		}
		quote = &pricing.Quote{
			BasePriceCents:        svc.PriceCents,
			TotalBeforeCommission: svc.PriceCents,
			ComponentBreakdown:    []pricing.ComponentBreakdown{},
		}
	default:
		return nil, nil, errs.Mark(errs.New("booking requires a service or a package"), errs.ErrDomainValidation)
	}

	if booking.Type(in.BookingType) == booking.TypeTimeslot && in.ServiceID == nil {
		return nil, nil, errs.Mark(errs.New("timeslot booking requires a service"), errs.ErrDomainValidation)
	}

	addOns, err := tx.Reads().AddOnsByIDs(ctx, in.TenantID, in.AddOnIDs)
	if err != nil {
		return nil, nil, translateReadErr(err, errs.ErrDomainValidation)
	}
	return quote, addOns, nil
}

// excludeID carves the booking's own row out of both checks on reschedule;
// uuid.Nil on create.
func (u *BookingUsecase) checkTimeslotFree(ctx context.Context, tx shared.Tx, tenantID, serviceID uuid.UUID, date booking.EventDate, interval booking.TimeRange, excludeID uuid.UUID) error {
	overlaps, err := tx.Bookings().HasOverlappingTimeslot(ctx, tenantID, serviceID, interval, excludeID)
	if err != nil {
		return err
	}
	if overlaps {
		return infra.WrapRepoErr("timeslot already booked", nil, infra.KindConflict)
	}

	svc, err := tx.Reads().ServiceByID(ctx, tenantID, serviceID)
	if err != nil {
		return translateReadErr(err, errs.ErrServiceNotFound)
	}
	if svc.MaxPerDay != nil {
		count, err := tx.Bookings().CountActiveForServiceOnDate(ctx, tenantID, serviceID, date, excludeID)
		if err != nil {
			return err
		}
		if count >= int64(*svc.MaxPerDay) {
			return infra.WrapRepoErr("service is fully booked for this date", nil, infra.KindConflict)
		}
	}
	return nil
}

// RescheduleBooking re-runs the create-time lock-then-check protocol against
// the new date. Financial fields never change here.
func (u *BookingUsecase) RescheduleBooking(ctx context.Context, in RescheduleBookingInput) (*booking.Booking, error) {
	newDate, err := booking.ParseEventDate(in.NewDate)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	now := u.clk.Now()
	var rescheduled *booking.Booking

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, in.TenantID, in.BookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}

		switch b.BookingType() {
		case booking.TypeDate:
			if err := tx.AcquireLock(ctx, in.TenantID, "date", newDate.String()); err != nil {
				return err
			}
			if !b.EventDate().Equal(newDate) {
				occupied, err := tx.Bookings().DateOccupied(ctx, in.TenantID, newDate)
				if err != nil {
					return err
				}
				if occupied {
					return infra.WrapRepoErr("date already booked", nil, infra.KindConflict)
				}
			}
			if err := b.Reschedule(newDate, now); err != nil {
				return translateDomainErr(err)
			}
		case booking.TypeTimeslot:
			interval, err := u.resolveNewInterval(b, newDate, in.NewStart, in.NewEnd)
			if err != nil {
				return err
			}
			if err := tx.AcquireLock(ctx, in.TenantID, "slot", b.ServiceID().String(), newDate.String()); err != nil {
				return err
			}
			if err := u.checkTimeslotFree(ctx, tx, in.TenantID, *b.ServiceID(), newDate, interval, b.ID()); err != nil {
				return err
			}
			if err := b.Reschedule(newDate, now); err != nil {
				return translateDomainErr(err)
			}
			b.SetInterval(interval, now)
		}

		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		rescheduled = b
		return nil
	})
	if txErr != nil {
		return nil, translateBookingTxErr(txErr)
	}

	u.emitter.Emit(ctx, EventBookingRescheduled, map[string]any{
		"booking_id": in.BookingID,
		"tenant_id":  in.TenantID,
		"event_date": newDate.String(),
	})
	return rescheduled, nil
}

func (u *BookingUsecase) resolveNewInterval(b *booking.Booking, newDate booking.EventDate, start, end *time.Time) (booking.TimeRange, error) {
	if start != nil && end != nil {
		r, err := booking.NewTimeRange(*start, *end)
		if err != nil {
			return booking.TimeRange{}, errs.Mark(err, errs.ErrDomainValidation)
		}
		return r, nil
	}
	if b.Interval() == nil {
		return booking.TimeRange{}, errs.Mark(errs.New("booking has no interval to carry over"), errs.ErrDomainValidation)
	}
	shift := newDate.Time().Sub(booking.NewEventDate(b.Interval().Start()).Time())
	r, err := booking.NewTimeRange(b.Interval().Start().Add(shift), b.Interval().End().Add(shift))
	if err != nil {
		return booking.TimeRange{}, errs.Mark(err, errs.ErrDomainValidation)
	}
	return r, nil
}

// CancelBooking is a status transition, never a deletion. The lock keys on
// the booking id so cancellation serializes with in-flight settlement.
func (u *BookingUsecase) CancelBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*booking.Booking, error) {
	now := u.clk.Now()
	var canceled *booking.Booking

	txErr := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.AcquireLock(ctx, tenantID, "booking", bookingID.String()); err != nil {
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, tenantID, bookingID)
		if err != nil {
			return translateReadErr(err, errs.ErrBookingNotFound)
		}
		if err := b.Cancel(now); err != nil {
			return translateDomainErr(err)
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		canceled = b
		return nil
	})
	if txErr != nil {
		return nil, translateBookingTxErr(txErr)
	}

	u.emitter.Emit(ctx, EventBookingCanceled, map[string]any{
		"booking_id": bookingID,
		"tenant_id":  tenantID,
	})
	return canceled, nil
}

func translateReadErr(err error, notFound error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, notFound)
	}
	return err
}

func translateDomainErr(err error) error {
	switch {
	case errors.Is(err, booking.ErrAlreadyCancelled), errors.Is(err, booking.ErrTerminalStatus):
		return errs.Mark(err, errs.ErrBookingAlreadyCancelled)
	case errors.Is(err, booking.ErrPaymentExceedsTotal), errors.Is(err, booking.ErrInvalidTransition):
		return errs.Mark(err, errs.ErrDomainValidation)
	default:
		return err
	}
}

func translateBookingTxErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, errs.ErrBookingConflict)
	case infra.IsKind(err, infra.KindLockTimeout):
		return errs.Mark(err, errs.ErrBookingLockTimeout)
	default:
		return err
	}
}

package readstore

import (
	"context"
	"time"

	"bookingcore/internal/infra"
	"bookingcore/internal/infra/db"
	"bookingcore/internal/pkg/pgconv"
	"bookingcore/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingReadStore serves the lock-free query surface. Availability answers
// are advisory: a subsequent write re-validates under the advisory lock.
type BookingReadStore struct {
	dbtx db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{dbtx: dbtx}
}

const bookingViewSelect = `
	SELECT b.id, b.tenant_id, b.customer_id, c.email, c.name,
	       b.service_id, s.name, b.package_id,
	       b.booking_type, b.event_date, b.start_time, b.end_time, b.guest_count,
	       b.total_cents, b.commission_percent, b.commission_amount,
	       b.deposit_paid_amount, b.balance_due_date, b.balance_paid_amount, b.balance_paid_at,
	       b.status, b.refund_status, b.created_at, b.updated_at
	FROM bookings b
	JOIN customers c ON c.id = b.customer_id
	LEFT JOIN services s ON s.id = b.service_id`

func (r *BookingReadStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*queries.BookingView, error) {
	row := r.dbtx.QueryRow(ctx, bookingViewSelect+` WHERE b.tenant_id = $1 AND b.id = $2`, tenantID, id)

	view, err := scanBookingView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	return view, nil
}

func (r *BookingReadStore) FindAll(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*queries.AppointmentListItem, error) {
	if limit <= 0 {
		limit = queries.DefaultAppointmentLimit
	}
	if limit > queries.MaxAppointmentLimit {
		limit = queries.MaxAppointmentLimit
	}

	rows, err := r.dbtx.Query(ctx, appointmentSelect+`
		WHERE b.tenant_id = $1
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *BookingReadStore) IsDateBooked(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	var booked bool
	err := r.dbtx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1
			  AND booking_type = 'DATE'
			  AND event_date = $2
			  AND status NOT IN ('CANCELED', 'REFUNDED')
		)`,
		tenantID, pgconv.DateToPgtype(date),
	).Scan(&booked)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check date availability", err)
	}
	return booked, nil
}

// UnavailableDates returns occupied dates in one round trip for calendar
// rendering, instead of per-date IsDateBooked calls.
func (r *BookingReadStore) UnavailableDates(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]string, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT DISTINCT event_date FROM bookings
		WHERE tenant_id = $1
		  AND booking_type = 'DATE'
		  AND event_date BETWEEN $2 AND $3
		  AND status NOT IN ('CANCELED', 'REFUNDED')
		ORDER BY event_date`,
		tenantID, pgconv.DateToPgtype(from), pgconv.DateToPgtype(to))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list unavailable dates", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, infra.WrapRepoErr("failed to scan unavailable date", err)
		}
		dates = append(dates, d.Format(time.DateOnly))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate unavailable dates", err)
	}
	return dates, nil
}

func (r *BookingReadStore) FindTimeslotBookings(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) ([]*queries.TimeslotView, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, service_id, start_time, end_time, status
		FROM bookings
		WHERE tenant_id = $1
		  AND service_id = $2
		  AND booking_type = 'TIMESLOT'
		  AND event_date = $3
		  AND status IN ('PENDING', 'CONFIRMED', 'DEPOSIT_PAID', 'PAID')
		ORDER BY start_time`,
		tenantID, serviceID, pgconv.DateToPgtype(date))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list timeslot bookings", err)
	}
	defer rows.Close()

	return collectTimeslots(rows)
}

func (r *BookingReadStore) FindTimeslotBookingsInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*queries.TimeslotView, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, service_id, start_time, end_time, status
		FROM bookings
		WHERE tenant_id = $1
		  AND booking_type = 'TIMESLOT'
		  AND event_date BETWEEN $2 AND $3
		  AND status IN ('PENDING', 'CONFIRMED', 'DEPOSIT_PAID', 'PAID')
		ORDER BY start_time`,
		tenantID, pgconv.DateToPgtype(from), pgconv.DateToPgtype(to))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list timeslot bookings in range", err)
	}
	defer rows.Close()

	return collectTimeslots(rows)
}

func (r *BookingReadStore) CountTimeslotBookingsForServiceOnDate(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.dbtx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE tenant_id = $1
		  AND service_id = $2
		  AND booking_type = 'TIMESLOT'
		  AND event_date = $3
		  AND status IN ('PENDING', 'CONFIRMED', 'DEPOSIT_PAID', 'PAID')`,
		tenantID, serviceID, pgconv.DateToPgtype(date),
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count timeslot bookings", err)
	}
	return count, nil
}

const appointmentSelect = `
	SELECT b.id, c.email, c.name, b.service_id, s.name,
	       b.event_date, b.start_time, b.end_time, b.status, b.total_cents, b.created_at
	FROM bookings b
	JOIN customers c ON c.id = b.customer_id
	LEFT JOIN services s ON s.id = b.service_id`

func (r *BookingReadStore) FindAppointments(ctx context.Context, tenantID uuid.UUID, filter queries.AppointmentFilter) ([]*queries.AppointmentListItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = queries.DefaultAppointmentLimit
	}
	if limit > queries.MaxAppointmentLimit {
		limit = queries.MaxAppointmentLimit
	}

	// The span cap is enforced at the query layer too: without a window the
	// scan is bounded to the cap ending today.
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -queries.MaxAppointmentSpanDays)
	to := now
	if filter.From != nil {
		from = *filter.From
	}
	if filter.To != nil {
		to = *filter.To
	}
	if to.Sub(from) > time.Duration(queries.MaxAppointmentSpanDays)*24*time.Hour {
		to = from.AddDate(0, 0, queries.MaxAppointmentSpanDays)
	}

	sql := appointmentSelect + `
		WHERE b.tenant_id = $1 AND b.event_date BETWEEN $2 AND $3`
	args := []any{tenantID, pgconv.DateToPgtype(from), pgconv.DateToPgtype(to)}

	if filter.ServiceID != nil {
		args = append(args, *filter.ServiceID)
		sql += ` AND b.service_id = $4`
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		if filter.ServiceID != nil {
			sql += ` AND b.status = $5`
		} else {
			sql += ` AND b.status = $4`
		}
	}

	args = append(args, limit, filter.Offset)
	switch len(args) {
	case 5:
		sql += ` ORDER BY b.event_date, b.start_time LIMIT $4 OFFSET $5`
	case 6:
		sql += ` ORDER BY b.event_date, b.start_time LIMIT $5 OFFSET $6`
	default:
		sql += ` ORDER BY b.event_date, b.start_time LIMIT $6 OFFSET $7`
	}

	rows, err := r.dbtx.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list appointments", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *BookingReadStore) FindBookingsNeedingReminders(ctx context.Context, asOf time.Time) ([]*queries.ReminderView, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT b.id, b.tenant_id, c.email, b.event_date, b.balance_due_date,
		       b.total_cents - COALESCE(b.deposit_paid_amount, 0)
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		WHERE b.balance_due_date <= $1
		  AND b.balance_paid_at IS NULL
		  AND b.reminder_sent_at IS NULL
		  AND b.status NOT IN ('CANCELED', 'REFUNDED')
		ORDER BY b.balance_due_date
		LIMIT $2`,
		pgconv.DateToPgtype(asOf), queries.MaxAppointmentLimit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings needing reminders", err)
	}
	defer rows.Close()

	var result []*queries.ReminderView
	for rows.Next() {
		var (
			v         queries.ReminderView
			eventDate time.Time
			dueDate   time.Time
		)
		if err := rows.Scan(&v.BookingID, &v.TenantID, &v.CustomerEmail, &eventDate, &dueDate, &v.BalanceCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reminder row", err)
		}
		v.EventDate = eventDate.Format(time.DateOnly)
		v.BalanceDueDate = dueDate.Format(time.DateOnly)
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reminder rows", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type rowIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBookingView(row rowScanner) (*queries.BookingView, error) {
	var (
		v                                 queries.BookingView
		serviceID, packageID              pgtype.UUID
		serviceName                       pgtype.Text
		eventDate                         time.Time
		startTime, endTime, balancePaidAt pgtype.Timestamptz
		guestCount                        pgtype.Int4
		depositPaid, balancePaid          pgtype.Int8
		balanceDue                        pgtype.Date
	)

	if err := row.Scan(
		&v.ID, &v.TenantID, &v.CustomerID, &v.CustomerEmail, &v.CustomerName,
		&serviceID, &serviceName, &packageID,
		&v.BookingType, &eventDate, &startTime, &endTime, &guestCount,
		&v.TotalCents, &v.CommissionPercent, &v.CommissionAmount,
		&depositPaid, &balanceDue, &balancePaid, &balancePaidAt,
		&v.Status, &v.RefundStatus, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	v.ServiceID = pgconv.UUIDPtrFromPgtype(serviceID)
	v.ServiceName = pgconv.StringPtrFromPgtype(serviceName)
	v.PackageID = pgconv.UUIDPtrFromPgtype(packageID)
	v.EventDate = eventDate.Format(time.DateOnly)
	v.StartTime = pgconv.TimePtrFromPgtype(startTime)
	v.EndTime = pgconv.TimePtrFromPgtype(endTime)
	v.GuestCount = pgconv.Int32PtrFromPgtype(guestCount)
	v.DepositPaidAmount = pgconv.Int64PtrFromPgtype(depositPaid)
	v.BalancePaidAmount = pgconv.Int64PtrFromPgtype(balancePaid)
	v.BalancePaidAt = pgconv.TimePtrFromPgtype(balancePaidAt)
	if d := pgconv.DatePtrFromPgtype(balanceDue); d != nil {
		s := d.Format(time.DateOnly)
		v.BalanceDueDate = &s
	}

	return &v, nil
}

func collectAppointments(rows rowIterator) ([]*queries.AppointmentListItem, error) {
	var result []*queries.AppointmentListItem
	for rows.Next() {
		var (
			item               queries.AppointmentListItem
			serviceID          pgtype.UUID
			serviceName        pgtype.Text
			eventDate          time.Time
			startTime, endTime pgtype.Timestamptz
		)
		if err := rows.Scan(
			&item.ID, &item.CustomerEmail, &item.CustomerName,
			&serviceID, &serviceName, &eventDate, &startTime, &endTime,
			&item.Status, &item.TotalCents, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan appointment row", err)
		}
		item.ServiceID = pgconv.UUIDPtrFromPgtype(serviceID)
		item.ServiceName = pgconv.StringPtrFromPgtype(serviceName)
		item.EventDate = eventDate.Format(time.DateOnly)
		item.StartTime = pgconv.TimePtrFromPgtype(startTime)
		item.EndTime = pgconv.TimePtrFromPgtype(endTime)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate appointment rows", err)
	}
	return result, nil
}

func collectTimeslots(rows rowIterator) ([]*queries.TimeslotView, error) {
	var result []*queries.TimeslotView
	for rows.Next() {
		var v queries.TimeslotView
		if err := rows.Scan(&v.ID, &v.ServiceID, &v.StartTime, &v.EndTime, &v.Status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan timeslot row", err)
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate timeslot rows", err)
	}
	return result, nil
}

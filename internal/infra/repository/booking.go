package repository

import (
	"context"
	"errors"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/infra"
	"bookingcore/internal/infra/db"
	"bookingcore/internal/pkg/pgconv"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	pgErrCodeUniqueViolation = "23505"
	pgErrCodeFKViolation     = "23503"
)

// BookingRepository is the transactional write side of the booking store.
// Callers hold the relevant advisory lock before invoking any conflict
// check or write; the unique index on (tenant, date) is defense in depth,
// not the primary exclusion mechanism.
type BookingRepository struct {
	dbtx db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{dbtx: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking, addOns []shared.BookingAddOn) (uuid.UUID, error) {
	var startTime, endTime *time.Time
	if iv := b.Interval(); iv != nil {
		s, e := iv.Start(), iv.End()
		startTime, endTime = &s, &e
	}
	var balanceDue *time.Time
	if d := b.BalanceDueDate(); d != nil {
		t := d.Time()
		balanceDue = &t
	}
	var guestCount *int32
	if g := b.GuestCount(); g != nil {
		v := int32(*g)
		guestCount = &v
	}

	var id uuid.UUID
	err := r.dbtx.QueryRow(ctx, `
		INSERT INTO bookings (
			id, tenant_id, customer_id, service_id, package_id,
			booking_type, event_date, start_time, end_time, guest_count,
			total_cents, commission_percent, commission_amount,
			deposit_paid_amount, balance_due_date, status, refund_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		RETURNING id`,
		b.ID(), b.TenantID(), b.CustomerID(),
		pgconv.UUIDPtrToPgtype(b.ServiceID()), pgconv.UUIDPtrToPgtype(b.PackageID()),
		string(b.BookingType()), pgconv.DateToPgtype(b.EventDate().Time()),
		pgconv.TimePtrToPgtype(startTime), pgconv.TimePtrToPgtype(endTime),
		guestCount,
		b.Total().Cents(), b.CommissionPercent(), b.CommissionAmount().Cents(),
		pgconv.Int64PtrToPgtype(b.DepositPaidAmount()), pgconv.DatePtrToPgtype(balanceDue),
		string(b.Status()), string(b.RefundStatus()),
		b.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, classifyWriteErr("failed to create booking", err)
	}

	for _, a := range addOns {
		if _, err := r.dbtx.Exec(ctx, `
			INSERT INTO booking_addons (booking_id, addon_id, price_cents)
			VALUES ($1, $2, $3)`,
			id, a.AddOnID, a.PriceCents,
		); err != nil {
			return uuid.Nil, classifyWriteErr("failed to create booking add-on", err)
		}
	}

	return id, nil
}

const bookingColumns = `
	id, tenant_id, customer_id, service_id, package_id,
	booking_type, event_date, start_time, end_time, guest_count,
	total_cents, commission_percent, commission_amount,
	deposit_paid_amount, balance_due_date, balance_paid_amount, balance_paid_at,
	status, refund_status, payment_ref, created_at, updated_at`

func (r *BookingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*booking.Booking, error) {
	row := r.dbtx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)

	b, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

// Save persists every mutable field. Create-time fields (type, tenant,
// customer, totals) are immutable by design and not written here.
func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	var balanceDue *time.Time
	if d := b.BalanceDueDate(); d != nil {
		t := d.Time()
		balanceDue = &t
	}

	tag, err := r.dbtx.Exec(ctx, `
		UPDATE bookings SET
			event_date = $3,
			deposit_paid_amount = $4,
			balance_due_date = $5,
			balance_paid_amount = $6,
			balance_paid_at = $7,
			status = $8,
			refund_status = $9,
			payment_ref = $10,
			updated_at = $11
		WHERE tenant_id = $1 AND id = $2`,
		b.TenantID(), b.ID(),
		pgconv.DateToPgtype(b.EventDate().Time()),
		pgconv.Int64PtrToPgtype(b.DepositPaidAmount()),
		pgconv.DatePtrToPgtype(balanceDue),
		pgconv.Int64PtrToPgtype(b.BalancePaidAmount()),
		pgconv.TimePtrToPgtype(b.BalancePaidAt()),
		string(b.Status()), string(b.RefundStatus()),
		pgconv.StringPtrToPgtype(b.PaymentRef()),
		b.UpdatedAt(),
	)
	if err != nil {
		return classifyWriteErr("failed to save booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) DateOccupied(ctx context.Context, tenantID uuid.UUID, date booking.EventDate) (bool, error) {
	var occupied bool
	err := r.dbtx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1
			  AND booking_type = 'DATE'
			  AND event_date = $2
			  AND status NOT IN ('CANCELED', 'REFUNDED')
		)`,
		tenantID, pgconv.DateToPgtype(date.Time()),
	).Scan(&occupied)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check date occupancy", err)
	}
	return occupied, nil
}

// Half-open interval overlap: back-to-back slots are not a conflict. The
// exclude id (uuid.Nil for none) keeps a rescheduled booking from matching
// its own row.
func (r *BookingRepository) HasOverlappingTimeslot(ctx context.Context, tenantID, serviceID uuid.UUID, interval booking.TimeRange, excludeID uuid.UUID) (bool, error) {
	var overlaps bool
	err := r.dbtx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1
			  AND service_id = $2
			  AND id <> $5
			  AND booking_type = 'TIMESLOT'
			  AND status IN ('PENDING', 'CONFIRMED', 'DEPOSIT_PAID', 'PAID')
			  AND start_time < $4
			  AND end_time > $3
		)`,
		tenantID, serviceID, interval.Start(), interval.End(), excludeID,
	).Scan(&overlaps)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check timeslot overlap", err)
	}
	return overlaps, nil
}

func (r *BookingRepository) CountActiveForServiceOnDate(ctx context.Context, tenantID, serviceID uuid.UUID, date booking.EventDate, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := r.dbtx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE tenant_id = $1
		  AND service_id = $2
		  AND id <> $4
		  AND booking_type = 'TIMESLOT'
		  AND event_date = $3
		  AND status IN ('PENDING', 'CONFIRMED', 'DEPOSIT_PAID', 'PAID')`,
		tenantID, serviceID, pgconv.DateToPgtype(date.Time()), excludeID,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count service bookings", err)
	}
	return count, nil
}

func (r *BookingRepository) MarkReminderSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	tag, err := r.dbtx.Exec(ctx, `
		UPDATE bookings SET reminder_sent_at = $3, updated_at = $3
		WHERE tenant_id = $1 AND id = $2 AND reminder_sent_at IS NULL`,
		tenantID, id, at)
	if err != nil {
		return infra.WrapRepoErr("failed to mark reminder sent", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found or reminder already sent", nil, infra.KindNotFound)
	}
	return nil
}

// classifyWriteErr maps engine errors onto repository kinds. A unique-index
// hit on the booking date index is a conflict: it means a concurrent writer
// with a different lock key committed first.
func classifyWriteErr(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeUniqueViolation:
			return infra.WrapRepoErr(msg, err, infra.KindConflict)
		case pgErrCodeFKViolation:
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		}
	}
	return infra.WrapRepoErr(msg, err)
}

type bookingRow interface {
	Scan(dest ...any) error
}

func scanBooking(row bookingRow) (*booking.Booking, error) {
	var (
		id, tenantID, customerID             uuid.UUID
		serviceID, packageID                 pgtype.UUID
		bookingType, status, refundStatus    string
		eventDate                            time.Time
		startTime, endTime, balancePaidAt    pgtype.Timestamptz
		guestCount                           pgtype.Int4
		totalCents, commissionAmount         int64
		commissionPercent                    int32
		depositPaidAmount, balancePaidAmount pgtype.Int8
		balanceDueDate                       pgtype.Date
		paymentRef                           pgtype.Text
		createdAt, updatedAt                 time.Time
	)

	if err := row.Scan(
		&id, &tenantID, &customerID, &serviceID, &packageID,
		&bookingType, &eventDate, &startTime, &endTime, &guestCount,
		&totalCents, &commissionPercent, &commissionAmount,
		&depositPaidAmount, &balanceDueDate, &balancePaidAmount, &balancePaidAt,
		&status, &refundStatus, &paymentRef, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var interval *booking.TimeRange
	if startTime.Valid && endTime.Valid {
		iv, err := booking.NewTimeRange(startTime.Time, endTime.Time)
		if err != nil {
			return nil, err
		}
		interval = &iv
	}

	var guests *int
	if guestCount.Valid {
		g := int(guestCount.Int32)
		guests = &g
	}

	var due *booking.EventDate
	if balanceDueDate.Valid {
		d := booking.NewEventDate(balanceDueDate.Time)
		due = &d
	}

	return booking.ReconstructBooking(booking.ReconstructParams{
		ID:                id,
		TenantID:          tenantID,
		CustomerID:        customerID,
		ServiceID:         pgconv.UUIDPtrFromPgtype(serviceID),
		PackageID:         pgconv.UUIDPtrFromPgtype(packageID),
		Type:              booking.Type(bookingType),
		EventDate:         booking.NewEventDate(eventDate),
		Interval:          interval,
		GuestCount:        guests,
		TotalCents:        totalCents,
		CommissionPercent: commissionPercent,
		CommissionCents:   commissionAmount,
		DepositPaidAmount: pgconv.Int64PtrFromPgtype(depositPaidAmount),
		BalanceDueDate:    due,
		BalancePaidAmount: pgconv.Int64PtrFromPgtype(balancePaidAmount),
		BalancePaidAt:     pgconv.TimePtrFromPgtype(balancePaidAt),
		Status:            booking.Status(status),
		RefundStatus:      booking.RefundStatus(refundStatus),
		PaymentRef:        pgconv.StringPtrFromPgtype(paymentRef),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}), nil
}

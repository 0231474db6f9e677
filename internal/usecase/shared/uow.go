package shared

import (
	"context"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/domain/pricing"
	"bookingcore/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Serializable write transaction with bounded retry on
	// serialization failures. The advisory-lock protocol runs inside.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// CommandReads: Direct access to command reads outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Customers() CustomerRepository
	Reads() CommandReads
	DB() db.DBTX
	// AcquireLock takes the transaction-scoped advisory lock for
	// (tenant, resource parts), before any read of contended state.
	AcquireLock(ctx context.Context, tenantID uuid.UUID, parts ...string) error
}

type CommandReads interface {
	TenantByID(ctx context.Context, id uuid.UUID) (*TenantSnapshot, error)
	ServiceByID(ctx context.Context, tenantID, id uuid.UUID) (*ServiceSnapshot, error)
	PackageByID(ctx context.Context, tenantID, id uuid.UUID) (*PackageSnapshot, error)
	AddOnsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]AddOnSnapshot, error)
	CustomerByID(ctx context.Context, tenantID, id uuid.UUID) (*CustomerSnapshot, error)
}

// Minimal snapshots for command-side validation
type TenantSnapshot struct {
	ID                uuid.UUID
	Name              string
	DepositPercent    *int32
	CommissionPercent int32
}

type ServiceSnapshot struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int32
	BufferMinutes   int32
	PriceCents      int64
	MaxPerDay       *int32
}

type PackageSnapshot struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	MaxGuests  *int
	Scaling    []pricing.ScalingComponent
}

type CustomerSnapshot struct {
	ID    uuid.UUID
	Email string
	Name  string
	Phone *string
}

type AddOnSnapshot struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
}

type BookingAddOn struct {
	AddOnID    uuid.UUID
	PriceCents int64
}

// BookingRepository is the sole writer of booking rows. Conflict checks run
// through it inside the locked transaction; availability readstores are
// advisory only.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking, addOns []BookingAddOn) (uuid.UUID, error)
	// FindByID loads the aggregate for mutation inside the same transaction
	// that holds the advisory lock.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*booking.Booking, error)
	// Save persists every mutable field of the aggregate.
	Save(ctx context.Context, b *booking.Booking) error

	DateOccupied(ctx context.Context, tenantID uuid.UUID, date booking.EventDate) (bool, error)
	// The exclude id keeps a reschedule from colliding with the booking's
	// own row; uuid.Nil excludes nothing.
	HasOverlappingTimeslot(ctx context.Context, tenantID, serviceID uuid.UUID, interval booking.TimeRange, excludeID uuid.UUID) (bool, error)
	CountActiveForServiceOnDate(ctx context.Context, tenantID, serviceID uuid.UUID, date booking.EventDate, excludeID uuid.UUID) (int64, error)
	MarkReminderSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
}

type CustomerRepository interface {
	// UpsertByEmail is idempotent on (tenant, email).
	UpsertByEmail(ctx context.Context, tenantID uuid.UUID, email, name string, phone *string) (uuid.UUID, error)
}

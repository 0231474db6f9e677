package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	CustomerID        uuid.UUID  `json:"customer_id"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerName      string     `json:"customer_name"`
	ServiceID         *uuid.UUID `json:"service_id,omitempty"`
	ServiceName       *string    `json:"service_name,omitempty"`
	PackageID         *uuid.UUID `json:"package_id,omitempty"`
	BookingType       string     `json:"booking_type"`
	EventDate         string     `json:"event_date"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	GuestCount        *int32     `json:"guest_count,omitempty"`
	TotalCents        int64      `json:"total_cents"`
	CommissionPercent int32      `json:"commission_percent"`
	CommissionAmount  int64      `json:"commission_amount"`
	DepositPaidAmount *int64     `json:"deposit_paid_amount,omitempty"`
	BalanceDueDate    *string    `json:"balance_due_date,omitempty"`
	BalancePaidAmount *int64     `json:"balance_paid_amount,omitempty"`
	BalancePaidAt     *time.Time `json:"balance_paid_at,omitempty"`
	Status            string     `json:"status"`
	RefundStatus      string     `json:"refund_status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type AppointmentListItem struct {
	ID            uuid.UUID  `json:"id"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  string     `json:"customer_name"`
	ServiceID     *uuid.UUID `json:"service_id,omitempty"`
	ServiceName   *string    `json:"service_name,omitempty"`
	EventDate     string     `json:"event_date"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Status        string     `json:"status"`
	TotalCents    int64      `json:"total_cents"`
	CreatedAt     time.Time  `json:"created_at"`
}

type TimeslotView struct {
	ID        uuid.UUID `json:"id"`
	ServiceID uuid.UUID `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

type ReminderView struct {
	BookingID      uuid.UUID `json:"booking_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	CustomerEmail  string    `json:"customer_email"`
	EventDate      string    `json:"event_date"`
	BalanceDueDate string    `json:"balance_due_date"`
	BalanceCents   int64     `json:"balance_cents"`
}

// Appointment listing guards: default page 100, hard caps on rows and span
// so a single request can never trigger an unbounded scan.
const (
	DefaultAppointmentLimit = 100
	MaxAppointmentLimit     = 500
	MaxAppointmentSpanDays  = 90
)

type AppointmentFilter struct {
	From      *time.Time
	To        *time.Time
	ServiceID *uuid.UUID
	Status    *string
	Limit     int32
	Offset    int32
}

type BookingReadStore interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BookingView, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*AppointmentListItem, error)
	IsDateBooked(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error)
	UnavailableDates(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]string, error)
	FindTimeslotBookings(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) ([]*TimeslotView, error)
	FindTimeslotBookingsInRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*TimeslotView, error)
	CountTimeslotBookingsForServiceOnDate(ctx context.Context, tenantID, serviceID uuid.UUID, date time.Time) (int64, error)
	FindAppointments(ctx context.Context, tenantID uuid.UUID, filter AppointmentFilter) ([]*AppointmentListItem, error)
	FindBookingsNeedingReminders(ctx context.Context, asOf time.Time) ([]*ReminderView, error)
}

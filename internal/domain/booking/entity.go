package booking

import (
	"errors"
	"time"

	"bookingcore/internal/domain/settlement"

	"github.com/google/uuid"
)

var (
	ErrInvalidBookingType  = errors.New("invalid booking type")
	ErrMissingInterval     = errors.New("timeslot booking requires a time interval")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")
	ErrTerminalStatus      = errors.New("booking is in a terminal status")
	ErrPaymentExceedsTotal = errors.New("payments exceed booking total")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// Booking is the central aggregate. Commission fields are always derived
// from the total and the tenant's commission percent, never caller-supplied.
type Booking struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	customerID uuid.UUID
	serviceID  *uuid.UUID
	packageID  *uuid.UUID

	bookingType Type
	eventDate   EventDate
	interval    *TimeRange
	guestCount  *int

	total             Money
	commissionPercent int32
	commissionAmount  Money

	depositPaidAmount *int64
	balanceDueDate    *EventDate
	balancePaidAmount *int64
	balancePaidAt     *time.Time

	status       Status
	refundStatus RefundStatus
	paymentRef   *string

	createdAt time.Time
	updatedAt time.Time
}

type NewBookingParams struct {
	TenantID          uuid.UUID
	CustomerID        uuid.UUID
	ServiceID         *uuid.UUID
	PackageID         *uuid.UUID
	Type              Type
	EventDate         EventDate
	Interval          *TimeRange
	GuestCount        *int
	TotalCents        int64
	CommissionPercent int32
	BalanceDueDate    *EventDate
	InitialStatus     Status
	Now               time.Time
}

func NewBooking(p NewBookingParams) (*Booking, error) {
	if !p.Type.IsValid() {
		return nil, ErrInvalidBookingType
	}
	if p.Type == TypeTimeslot && p.Interval == nil {
		return nil, ErrMissingInterval
	}

	total, err := NewMoney(p.TotalCents)
	if err != nil {
		return nil, err
	}

	status := p.InitialStatus
	if status == "" {
		status = StatusPending
	}
	if !status.IsValid() {
		return nil, ErrInvalidTransition
	}

	commission := settlement.CalculateCommission(total.Cents(), p.CommissionPercent)

	return &Booking{
		id:                uuid.New(),
		tenantID:          p.TenantID,
		customerID:        p.CustomerID,
		serviceID:         p.ServiceID,
		packageID:         p.PackageID,
		bookingType:       p.Type,
		eventDate:         p.EventDate,
		interval:          p.Interval,
		guestCount:        p.GuestCount,
		total:             total,
		commissionPercent: p.CommissionPercent,
		commissionAmount:  MustMoney(commission),
		balanceDueDate:    p.BalanceDueDate,
		status:            status,
		refundStatus:      RefundNone,
		createdAt:         p.Now,
		updatedAt:         p.Now,
	}, nil
}

type ReconstructParams struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	CustomerID        uuid.UUID
	ServiceID         *uuid.UUID
	PackageID         *uuid.UUID
	Type              Type
	EventDate         EventDate
	Interval          *TimeRange
	GuestCount        *int
	TotalCents        int64
	CommissionPercent int32
	CommissionCents   int64
	DepositPaidAmount *int64
	BalanceDueDate    *EventDate
	BalancePaidAmount *int64
	BalancePaidAt     *time.Time
	Status            Status
	RefundStatus      RefundStatus
	PaymentRef        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconstructBooking rebuilds an aggregate from a stored row without
// re-running creation validation.
func ReconstructBooking(p ReconstructParams) *Booking {
	return &Booking{
		id:                p.ID,
		tenantID:          p.TenantID,
		customerID:        p.CustomerID,
		serviceID:         p.ServiceID,
		packageID:         p.PackageID,
		bookingType:       p.Type,
		eventDate:         p.EventDate,
		interval:          p.Interval,
		guestCount:        p.GuestCount,
		total:             Money{cents: p.TotalCents},
		commissionPercent: p.CommissionPercent,
		commissionAmount:  Money{cents: p.CommissionCents},
		depositPaidAmount: p.DepositPaidAmount,
		balanceDueDate:    p.BalanceDueDate,
		balancePaidAmount: p.BalancePaidAmount,
		balancePaidAt:     p.BalancePaidAt,
		status:            p.Status,
		refundStatus:      p.RefundStatus,
		paymentRef:        p.PaymentRef,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

// Reschedule moves the booking to a new date. Financial fields are untouched.
func (b *Booking) Reschedule(newDate EventDate, now time.Time) error {
	if b.status == StatusCanceled || b.status == StatusRefunded {
		return ErrAlreadyCancelled
	}
	if b.status.IsTerminal() {
		return ErrTerminalStatus
	}
	b.eventDate = newDate
	b.updatedAt = now
	return nil
}

// Cancel is a status transition, never a row deletion.
func (b *Booking) Cancel(now time.Time) error {
	if b.status == StatusCanceled {
		return ErrAlreadyCancelled
	}
	if b.status.IsTerminal() {
		return ErrTerminalStatus
	}
	b.status = StatusCanceled
	b.updatedAt = now
	return nil
}

// MarkDepositPaid records the deposit charge and moves PENDING to DEPOSIT_PAID.
func (b *Booking) MarkDepositPaid(amountCents int64, now time.Time) error {
	if b.status.IsTerminal() {
		return ErrTerminalStatus
	}
	if amountCents < 0 || amountCents+b.balancePaid() > b.total.Cents() {
		return ErrPaymentExceedsTotal
	}
	b.depositPaidAmount = &amountCents
	b.status = StatusDepositPaid
	b.updatedAt = now
	return nil
}

// ApplyBalancePayment settles the outstanding balance. It is idempotent: a
// second application with any amount is a no-op reporting applied=false, so
// a duplicated webhook can never double-apply a payment.
func (b *Booking) ApplyBalancePayment(amountCents int64, now time.Time) (applied bool, err error) {
	if b.balancePaidAt != nil {
		return false, nil
	}
	if b.status == StatusCanceled || b.status == StatusRefunded {
		return false, ErrAlreadyCancelled
	}
	if amountCents < 0 || b.depositPaid()+amountCents > b.total.Cents() {
		return false, ErrPaymentExceedsTotal
	}

	b.balancePaidAmount = &amountCents
	paidAt := now
	b.balancePaidAt = &paidAt
	b.status = StatusPaid
	b.updatedAt = now
	return true, nil
}

func (b *Booking) BeginRefund(now time.Time) error {
	switch b.refundStatus {
	case RefundNone, RefundFailed:
	default:
		return ErrInvalidTransition
	}
	b.refundStatus = RefundProcessing
	b.updatedAt = now
	return nil
}

// FinishRefund records the provider outcome. A full refund also moves the
// booking status to REFUNDED, releasing its slot.
func (b *Booking) FinishRefund(refundedCents int64, succeeded bool, now time.Time) error {
	if b.refundStatus != RefundProcessing {
		return ErrInvalidTransition
	}
	if !succeeded {
		b.refundStatus = RefundFailed
		b.updatedAt = now
		return nil
	}
	if refundedCents >= b.total.Cents() {
		b.refundStatus = RefundCompleted
		b.status = StatusRefunded
	} else {
		b.refundStatus = RefundPartial
	}
	b.updatedAt = now
	return nil
}

// SetInterval replaces the timeslot interval alongside a reschedule.
func (b *Booking) SetInterval(r TimeRange, now time.Time) {
	b.interval = &r
	b.updatedAt = now
}

func (b *Booking) SetPaymentRef(ref string, now time.Time) {
	b.paymentRef = &ref
	b.updatedAt = now
}

func (b *Booking) depositPaid() int64 {
	if b.depositPaidAmount == nil {
		return 0
	}
	return *b.depositPaidAmount
}

func (b *Booking) balancePaid() int64 {
	if b.balancePaidAmount == nil {
		return 0
	}
	return *b.balancePaidAmount
}

// OutstandingBalanceCents is what remains after the deposit.
func (b *Booking) OutstandingBalanceCents() int64 {
	return b.total.Cents() - b.depositPaid()
}

func (b *Booking) ID() uuid.UUID              { return b.id }
func (b *Booking) TenantID() uuid.UUID        { return b.tenantID }
func (b *Booking) CustomerID() uuid.UUID      { return b.customerID }
func (b *Booking) ServiceID() *uuid.UUID      { return b.serviceID }
func (b *Booking) PackageID() *uuid.UUID      { return b.packageID }
func (b *Booking) BookingType() Type          { return b.bookingType }
func (b *Booking) EventDate() EventDate       { return b.eventDate }
func (b *Booking) Interval() *TimeRange       { return b.interval }
func (b *Booking) GuestCount() *int           { return b.guestCount }
func (b *Booking) Total() Money               { return b.total }
func (b *Booking) CommissionPercent() int32   { return b.commissionPercent }
func (b *Booking) CommissionAmount() Money    { return b.commissionAmount }
func (b *Booking) DepositPaidAmount() *int64  { return b.depositPaidAmount }
func (b *Booking) BalanceDueDate() *EventDate { return b.balanceDueDate }
func (b *Booking) BalancePaidAmount() *int64  { return b.balancePaidAmount }
func (b *Booking) BalancePaidAt() *time.Time  { return b.balancePaidAt }
func (b *Booking) Status() Status             { return b.status }
func (b *Booking) RefundStatus() RefundStatus { return b.refundStatus }
func (b *Booking) PaymentRef() *string        { return b.paymentRef }
func (b *Booking) CreatedAt() time.Time       { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time       { return b.updatedAt }

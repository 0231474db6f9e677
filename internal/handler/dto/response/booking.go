package response

import (
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenantId"`
	CustomerID        uuid.UUID  `json:"customerId"`
	CustomerEmail     string     `json:"customerEmail"`
	CustomerName      string     `json:"customerName"`
	ServiceID         *uuid.UUID `json:"serviceId,omitempty"`
	ServiceName       *string    `json:"serviceName,omitempty"`
	PackageID         *uuid.UUID `json:"packageId,omitempty"`
	BookingType       string     `json:"bookingType"`
	EventDate         string     `json:"eventDate"`
	StartTime         *time.Time `json:"startTime,omitempty"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	GuestCount        *int32     `json:"guestCount,omitempty"`
	TotalCents        int64      `json:"totalCents"`
	CommissionPercent int32      `json:"commissionPercent"`
	CommissionAmount  int64      `json:"commissionAmount"`
	DepositPaidAmount *int64     `json:"depositPaidAmount,omitempty"`
	BalanceDueDate    *string    `json:"balanceDueDate,omitempty"`
	BalancePaidAmount *int64     `json:"balancePaidAmount,omitempty"`
	BalancePaidAt     *time.Time `json:"balancePaidAt,omitempty"`
	Status            string     `json:"status"`
	RefundStatus      string     `json:"refundStatus"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerEmail string     `json:"customerEmail"`
	CustomerName  string     `json:"customerName"`
	ServiceID     *uuid.UUID `json:"serviceId,omitempty"`
	ServiceName   *string    `json:"serviceName,omitempty"`
	EventDate     string     `json:"eventDate"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Status        string     `json:"status"`
	TotalCents    int64      `json:"totalCents"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type TimeslotResponse struct {
	ID        uuid.UUID `json:"id"`
	ServiceID uuid.UUID `json:"serviceId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

type CreateBookingResponse struct {
	Status     string     `json:"status"`
	BookingID  *uuid.UUID `json:"bookingId,omitempty"`
	TotalCents int64      `json:"totalCents,omitempty"`
}

// Booking state mutated through commands comes back as the domain aggregate;
// its getter surface maps by hand. Read-side views share field names with
// the responses, so those go through copier.

func FromBookingView(view *queries.BookingView) *BookingResponse {
	var resp BookingResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromAppointmentItem(item *queries.AppointmentListItem) *AppointmentResponse {
	var resp AppointmentResponse
	_ = copier.Copy(&resp, item)
	return &resp
}

func FromAppointmentItems(items []*queries.AppointmentListItem) []*AppointmentResponse {
	out := make([]*AppointmentResponse, len(items))
	for i, item := range items {
		out[i] = FromAppointmentItem(item)
	}
	return out
}

func FromTimeslotViews(views []*queries.TimeslotView) []*TimeslotResponse {
	out := make([]*TimeslotResponse, len(views))
	for i, v := range views {
		var resp TimeslotResponse
		_ = copier.Copy(&resp, v)
		out[i] = &resp
	}
	return out
}

func FromCreateResult(res *commands.CreateBookingResult) *CreateBookingResponse {
	resp := &CreateBookingResponse{
		Status:     string(res.Status),
		TotalCents: res.TotalCents,
	}
	if res.Status == commands.CreateStatusCreated {
		id := res.BookingID
		resp.BookingID = &id
	}
	return resp
}

func FromBookingEntity(b *booking.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                b.ID(),
		TenantID:          b.TenantID(),
		CustomerID:        b.CustomerID(),
		ServiceID:         b.ServiceID(),
		PackageID:         b.PackageID(),
		BookingType:       string(b.BookingType()),
		EventDate:         b.EventDate().String(),
		TotalCents:        b.Total().Cents(),
		CommissionPercent: b.CommissionPercent(),
		CommissionAmount:  b.CommissionAmount().Cents(),
		DepositPaidAmount: b.DepositPaidAmount(),
		BalancePaidAmount: b.BalancePaidAmount(),
		BalancePaidAt:     b.BalancePaidAt(),
		Status:            string(b.Status()),
		RefundStatus:      string(b.RefundStatus()),
		CreatedAt:         b.CreatedAt(),
		UpdatedAt:         b.UpdatedAt(),
	}
	if iv := b.Interval(); iv != nil {
		start, end := iv.Start(), iv.End()
		resp.StartTime = &start
		resp.EndTime = &end
	}
	if gc := b.GuestCount(); gc != nil {
		v := int32(*gc)
		resp.GuestCount = &v
	}
	if d := b.BalanceDueDate(); d != nil {
		s := d.String()
		resp.BalanceDueDate = &s
	}
	return resp
}

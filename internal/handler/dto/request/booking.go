package request

import (
	"strings"
	"time"

	"bookingcore/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	CustomerEmail string  `json:"customer_email" binding:"required,email"`
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerPhone *string `json:"customer_phone,omitempty"`

	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	PackageID *uuid.UUID `json:"package_id,omitempty"`

	BookingType    string      `json:"booking_type" binding:"required,oneof=DATE TIMESLOT"`
	EventDate      string      `json:"event_date" binding:"required"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	GuestCount     *int        `json:"guest_count,omitempty"`
	AddOnIDs       []uuid.UUID `json:"add_on_ids,omitempty"`
	BalanceDueDate *string     `json:"balance_due_date,omitempty"`
}

func (r CreateBookingRequest) ToInput(tenantID uuid.UUID) commands.CreateBookingInput {
	return commands.CreateBookingInput{
		TenantID:       tenantID,
		CustomerEmail:  strings.TrimSpace(strings.ToLower(r.CustomerEmail)),
		CustomerName:   strings.TrimSpace(r.CustomerName),
		CustomerPhone:  r.CustomerPhone,
		ServiceID:      r.ServiceID,
		PackageID:      r.PackageID,
		BookingType:    r.BookingType,
		EventDate:      r.EventDate,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		GuestCount:     r.GuestCount,
		AddOnIDs:       r.AddOnIDs,
		BalanceDueDate: r.BalanceDueDate,
	}
}

type RescheduleBookingRequest struct {
	NewDate  string     `json:"new_date" binding:"required"`
	NewStart *time.Time `json:"new_start,omitempty"`
	NewEnd   *time.Time `json:"new_end,omitempty"`
}

//go:build unit

package response_test

import (
	"testing"
	"time"

	"bookingcore/internal/domain/booking"
	"bookingcore/internal/handler/dto/response"
	"bookingcore/internal/pkg/ptr"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBookingView(t *testing.T) {
	serviceID := uuid.New()
	start := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	view := &queries.BookingView{
		ID:                uuid.New(),
		TenantID:          uuid.New(),
		CustomerID:        uuid.New(),
		CustomerEmail:     "jordan@example.com",
		CustomerName:      "Jordan",
		ServiceID:         &serviceID,
		ServiceName:       ptr.To("Studio Session"),
		BookingType:       "TIMESLOT",
		EventDate:         "2026-09-15",
		StartTime:         &start,
		EndTime:           &end,
		TotalCents:        100000,
		CommissionPercent: 10,
		CommissionAmount:  10000,
		DepositPaidAmount: ptr.To[int64](30000),
		Status:            "DEPOSIT_PAID",
		RefundStatus:      "NONE",
		CreatedAt:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
	}

	got := response.FromBookingView(view)

	expected := &response.BookingResponse{
		ID:                view.ID,
		TenantID:          view.TenantID,
		CustomerID:        view.CustomerID,
		CustomerEmail:     "jordan@example.com",
		CustomerName:      "Jordan",
		ServiceID:         &serviceID,
		ServiceName:       ptr.To("Studio Session"),
		BookingType:       "TIMESLOT",
		EventDate:         "2026-09-15",
		StartTime:         &start,
		EndTime:           &end,
		TotalCents:        100000,
		CommissionPercent: 10,
		CommissionAmount:  10000,
		DepositPaidAmount: ptr.To[int64](30000),
		Status:            "DEPOSIT_PAID",
		RefundStatus:      "NONE",
		CreatedAt:         view.CreatedAt,
		UpdatedAt:         view.UpdatedAt,
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBookingEntity(t *testing.T) {
	date, err := booking.ParseEventDate("2026-09-15")
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	start := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	interval, err := booking.NewTimeRange(start, start.Add(time.Hour))
	require.NoError(t, err)

	serviceID := uuid.New()
	b, err := booking.NewBooking(booking.NewBookingParams{
		TenantID:          uuid.New(),
		CustomerID:        uuid.New(),
		ServiceID:         &serviceID,
		Type:              booking.TypeTimeslot,
		EventDate:         date,
		Interval:          &interval,
		TotalCents:        100000,
		CommissionPercent: 10,
		Now:               now,
	})
	require.NoError(t, err)
	require.NoError(t, b.MarkDepositPaid(30000, now))

	got := response.FromBookingEntity(b)

	expected := &response.BookingResponse{
		BookingType:       "TIMESLOT",
		EventDate:         "2026-09-15",
		StartTime:         &start,
		TotalCents:        100000,
		CommissionPercent: 10,
		CommissionAmount:  10000,
		DepositPaidAmount: ptr.To[int64](30000),
		Status:            "DEPOSIT_PAID",
		RefundStatus:      "NONE",
	}

	opts := []cmp.Option{
		cmpopts.IgnoreFields(response.BookingResponse{},
			"ID", "TenantID", "CustomerID", "ServiceID", "EndTime", "CreatedAt", "UpdatedAt"),
	}
	if diff := cmp.Diff(expected, got, opts...); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, b.ID(), got.ID)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, start.Add(time.Hour), *got.EndTime)
}

func TestFromCreateResult(t *testing.T) {
	t.Run("created result carries the booking id", func(t *testing.T) {
		id := uuid.New()
		got := response.FromCreateResult(&commands.CreateBookingResult{
			Status:     commands.CreateStatusCreated,
			BookingID:  id,
			TotalCents: 100000,
		})

		assert.Equal(t, "CREATED", got.Status)
		require.NotNil(t, got.BookingID)
		assert.Equal(t, id, *got.BookingID)
	})

	t.Run("conflict result omits the booking id", func(t *testing.T) {
		got := response.FromCreateResult(&commands.CreateBookingResult{
			Status: commands.CreateStatusConflict,
		})

		assert.Equal(t, "CONFLICT", got.Status)
		assert.Nil(t, got.BookingID)
	})
}

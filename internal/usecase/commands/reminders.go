package commands

import (
	"context"

	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/usecase/queries"
	"bookingcore/internal/usecase/shared"
)

const EventBalanceReminderDue = "BALANCE_REMINDER_DUE"

// ReminderUsecase sweeps bookings whose balance is due and emits one
// reminder event per booking. The sent marker is written in the same pass,
// so a crashed sweep resumes without duplicating reminders already marked.
type ReminderUsecase struct {
	uow     shared.UnitOfWork
	reads   queries.BookingReadStore
	emitter EventEmitter
	clk     clock.Clock
}

func NewReminderUsecase(uow shared.UnitOfWork, reads queries.BookingReadStore, emitter EventEmitter, clk clock.Clock) *ReminderUsecase {
	return &ReminderUsecase{uow: uow, reads: reads, emitter: emitter, clk: clk}
}

// DispatchDueReminders returns the number of reminders emitted.
func (u *ReminderUsecase) DispatchDueReminders(ctx context.Context) (int, error) {
	now := u.clk.Now()
	due, err := u.reads.FindBookingsNeedingReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Bookings().MarkReminderSent(ctx, r.TenantID, r.BookingID, now)
		})
		if err != nil {
			// Keep sweeping: one failed booking must not starve the rest.
			continue
		}

		u.emitter.Emit(ctx, EventBalanceReminderDue, map[string]any{
			"booking_id":       r.BookingID,
			"tenant_id":        r.TenantID,
			"customer_email":   r.CustomerEmail,
			"event_date":       r.EventDate,
			"balance_due_date": r.BalanceDueDate,
			"balance_cents":    r.BalanceCents,
		})
		sent++
	}
	return sent, nil
}

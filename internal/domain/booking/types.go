package booking

// Type distinguishes whole-date reservations from interval reservations.
type Type string

const (
	// TypeDate occupies an entire calendar date for one resource.
	TypeDate Type = "DATE"
	// TypeTimeslot occupies a [start, end) interval against a service.
	TypeTimeslot Type = "TIMESLOT"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDate, TypeTimeslot:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusDepositPaid Status = "DEPOSIT_PAID"
	StatusPaid        Status = "PAID"
	StatusConfirmed   Status = "CONFIRMED"
	StatusCanceled    Status = "CANCELED"
	StatusRefunded    Status = "REFUNDED"
	StatusFulfilled   Status = "FULFILLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDepositPaid, StatusPaid, StatusConfirmed,
		StatusCanceled, StatusRefunded, StatusFulfilled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the booking can no longer be mutated.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCanceled, StatusRefunded, StatusFulfilled:
		return true
	default:
		return false
	}
}

// OccupiesSlot reports whether a booking in this status still holds its
// date or timeslot for conflict-detection purposes.
func (s Status) OccupiesSlot() bool {
	switch s {
	case StatusCanceled, StatusRefunded:
		return false
	default:
		return true
	}
}

type RefundStatus string

const (
	RefundNone       RefundStatus = "NONE"
	RefundPending    RefundStatus = "PENDING"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundCompleted  RefundStatus = "COMPLETED"
	RefundPartial    RefundStatus = "PARTIAL"
	RefundFailed     RefundStatus = "FAILED"
)

func (s RefundStatus) String() string {
	return string(s)
}

func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundNone, RefundPending, RefundProcessing, RefundCompleted,
		RefundPartial, RefundFailed:
		return true
	default:
		return false
	}
}

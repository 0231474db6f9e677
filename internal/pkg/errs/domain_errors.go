package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Booking errors
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingConflict         = errors.New("booking conflict")
	ErrBookingLockTimeout      = errors.New("booking lock timeout")
	ErrBookingAlreadyCancelled = errors.New("booking already cancelled")

	// Settlement errors
	ErrDepositNotPaid     = errors.New("deposit not paid")
	ErrBalanceAlreadyPaid = errors.New("balance already paid")
	ErrNothingToCollect   = errors.New("nothing left to collect")
	ErrRefundNotAllowed   = errors.New("refund not allowed")

	// Collaborator errors
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrPackageNotFound  = errors.New("package not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
	ErrPaymentProviderFailed   = errors.New("payment provider failed")
)

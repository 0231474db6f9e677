// Package fake provides in-memory stand-ins for the transaction boundary so
// usecase tests can exercise command flows without a database.
package fake

import (
	"context"

	"bookingcore/internal/infra/db"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
)

// UnitOfWork runs every closure against a single shared Tx. WithinErr, when
// set, is returned without invoking the closure, simulating a transaction
// that failed to begin or commit.
type UnitOfWork struct {
	Tx        *Tx
	Reads     shared.CommandReads
	WithinErr error
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if u.WithinErr != nil {
		return u.WithinErr
	}
	return fn(ctx, u.Tx)
}

func (u *UnitOfWork) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *UnitOfWork) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *UnitOfWork) CommandReads() shared.CommandReads {
	return u.Reads
}

// Tx records acquired advisory locks and hands out the injected repositories.
type Tx struct {
	BookingsRepo  shared.BookingRepository
	CustomersRepo shared.CustomerRepository
	ReadsStore    shared.CommandReads
	LockErr       error
	AcquiredLocks [][]string
}

func (t *Tx) Bookings() shared.BookingRepository { return t.BookingsRepo }

func (t *Tx) Customers() shared.CustomerRepository { return t.CustomersRepo }

func (t *Tx) Reads() shared.CommandReads { return t.ReadsStore }

func (t *Tx) DB() db.DBTX { return nil }

func (t *Tx) AcquireLock(_ context.Context, tenantID uuid.UUID, parts ...string) error {
	if t.LockErr != nil {
		return t.LockErr
	}
	lock := append([]string{tenantID.String()}, parts...)
	t.AcquiredLocks = append(t.AcquiredLocks, lock)
	return nil
}

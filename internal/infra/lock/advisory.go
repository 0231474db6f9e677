// Package lock derives stable advisory-lock keys from (tenant, resource)
// pairs and acquires transaction-scoped locks on them. The lock is taken
// before any read of contended state, so a second concurrent writer blocks
// (or times out) instead of reading stale availability.
package lock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"bookingcore/internal/infra"
	"bookingcore/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeLockNotAvailable = "55P03"

// keySeparator keeps ("ab","c") and ("a","bc") from hashing identically.
const keySeparator = "\x1f"

// Key hashes (tenantID, resource parts) into a 63-bit advisory-lock key.
// FNV-1a over the delimited string; the sign bit is masked so the key fits
// the signed bigint pg_advisory_xact_lock expects.
func Key(tenantID uuid.UUID, parts ...string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID.String()))
	for _, p := range parts {
		_, _ = h.Write([]byte(keySeparator))
		_, _ = h.Write([]byte(p))
	}
	return int64(h.Sum64() &^ (uint64(1) << 63))
}

// Coordinator acquires advisory locks inside an already-open transaction.
type Coordinator struct {
	timeout time.Duration
}

func NewCoordinator(timeout time.Duration) *Coordinator {
	return &Coordinator{timeout: timeout}
}

// Acquire blocks until the transaction-scoped lock for (tenant, resource)
// is held or the configured lock_timeout elapses. The lock releases itself
// at commit/rollback; there is no explicit unlock.
func (c *Coordinator) Acquire(ctx context.Context, tx db.DBTX, tenantID uuid.UUID, parts ...string) error {
	// SET LOCAL confines the timeout to this transaction. lock_timeout does
	// not accept bind parameters, so the duration is formatted into the
	// statement; it never contains user input.
	timeoutMs := c.timeout.Milliseconds()
	if timeoutMs <= 0 {
		timeoutMs = 1
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMs)); err != nil {
		return infra.WrapRepoErr("failed to set lock timeout", err)
	}

	key := Key(tenantID, parts...)
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeLockNotAvailable {
			return infra.WrapRepoErr("resource lock wait exceeded", err, infra.KindLockTimeout)
		}
		return infra.WrapRepoErr("failed to acquire resource lock", err)
	}

	// Restore the default so later statements in the same transaction are
	// not bounded by the lock-wait budget.
	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = DEFAULT"); err != nil {
		return infra.WrapRepoErr("failed to reset lock timeout", err)
	}

	return nil
}

//go:build unit

package lock_test

import (
	"testing"

	"bookingcore/internal/infra/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tenantA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tenantB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t,
			lock.Key(tenantA, "date", "2026-01-15"),
			lock.Key(tenantA, "date", "2026-01-15"))
	})

	t.Run("never negative", func(t *testing.T) {
		inputs := [][]string{
			{"date", "2026-01-15"},
			{"slot", uuid.New().String(), "2026-01-15"},
			{"booking", uuid.New().String()},
			{},
		}
		for _, parts := range inputs {
			assert.GreaterOrEqual(t, lock.Key(tenantA, parts...), int64(0))
			assert.GreaterOrEqual(t, lock.Key(uuid.New(), parts...), int64(0))
		}
	})

	t.Run("tenants never share keys for the same resource", func(t *testing.T) {
		assert.NotEqual(t,
			lock.Key(tenantA, "date", "2026-01-15"),
			lock.Key(tenantB, "date", "2026-01-15"))
	})

	t.Run("distinct resources get distinct keys", func(t *testing.T) {
		assert.NotEqual(t,
			lock.Key(tenantA, "date", "2026-01-15"),
			lock.Key(tenantA, "date", "2026-01-16"))
		assert.NotEqual(t,
			lock.Key(tenantA, "date", "2026-01-15"),
			lock.Key(tenantA, "slot", "2026-01-15"))
	})

	t.Run("delimiter prevents concatenation collisions", func(t *testing.T) {
		assert.NotEqual(t,
			lock.Key(tenantA, "ab", "c"),
			lock.Key(tenantA, "a", "bc"))
	})
}

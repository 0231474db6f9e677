package readstore

import (
	"context"

	"bookingcore/internal/infra"
	"bookingcore/internal/infra/db"
	"bookingcore/internal/pkg/pgconv"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ServiceReadStore struct {
	dbtx db.DBTX
}

func NewServiceReadStore(dbtx db.DBTX) *ServiceReadStore {
	return &ServiceReadStore{dbtx: dbtx}
}

func (r *ServiceReadStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	var (
		name             string
		duration, buffer int32
		priceCents       int64
		maxPerDay        pgtype.Int4
	)
	err := r.dbtx.QueryRow(ctx, `
		SELECT name, duration_minutes, buffer_minutes, price_cents, max_per_day
		FROM services WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&name, &duration, &buffer, &priceCents, &maxPerDay)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("service not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find service", err)
	}

	return &shared.ServiceSnapshot{
		ID:              id,
		Name:            name,
		DurationMinutes: duration,
		BufferMinutes:   buffer,
		PriceCents:      priceCents,
		MaxPerDay:       pgconv.Int32PtrFromPgtype(maxPerDay),
	}, nil
}

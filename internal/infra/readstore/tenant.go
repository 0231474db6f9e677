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

type TenantReadStore struct {
	dbtx db.DBTX
}

func NewTenantReadStore(dbtx db.DBTX) *TenantReadStore {
	return &TenantReadStore{dbtx: dbtx}
}

func (r *TenantReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.TenantSnapshot, error) {
	var (
		name              string
		depositPercent    pgtype.Int4
		commissionPercent int32
	)
	err := r.dbtx.QueryRow(ctx,
		`SELECT name, deposit_percent, commission_percent FROM tenants WHERE id = $1`,
		id,
	).Scan(&name, &depositPercent, &commissionPercent)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("tenant not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find tenant", err)
	}

	return &shared.TenantSnapshot{
		ID:                id,
		Name:              name,
		DepositPercent:    pgconv.Int32PtrFromPgtype(depositPercent),
		CommissionPercent: commissionPercent,
	}, nil
}

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

type CustomerReadStore struct {
	dbtx db.DBTX
}

func NewCustomerReadStore(dbtx db.DBTX) *CustomerReadStore {
	return &CustomerReadStore{dbtx: dbtx}
}

func (r *CustomerReadStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	var (
		email, name string
		phone       pgtype.Text
	)
	err := r.dbtx.QueryRow(ctx, `
		SELECT email, name, phone
		FROM customers WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&email, &name, &phone)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("customer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find customer", err)
	}

	return &shared.CustomerSnapshot{
		ID:    id,
		Email: email,
		Name:  name,
		Phone: pgconv.StringPtrFromPgtype(phone),
	}, nil
}

package repository

import (
	"context"

	"bookingcore/internal/infra/db"
	"bookingcore/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type CustomerRepository struct {
	dbtx db.DBTX
}

func NewCustomerRepository(dbtx db.DBTX) *CustomerRepository {
	return &CustomerRepository{dbtx: dbtx}
}

// UpsertByEmail resolves a customer within the tenant, idempotent on email.
// Running inside the booking transaction means a failed booking leaves no
// customer row behind either.
func (r *CustomerRepository) UpsertByEmail(ctx context.Context, tenantID uuid.UUID, email, name string, phone *string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.dbtx.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, email, name, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, email) DO UPDATE
			SET name  = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE customers.name END,
			    phone = COALESCE(EXCLUDED.phone, customers.phone),
			    updated_at = now()
		RETURNING id`,
		tenantID, email, name, pgconv.StringPtrToPgtype(phone),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, classifyWriteErr("failed to upsert customer", err)
	}
	return id, nil
}

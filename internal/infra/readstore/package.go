package readstore

import (
	"context"
	"encoding/json"

	"bookingcore/internal/domain/pricing"
	"bookingcore/internal/infra"
	"bookingcore/internal/infra/db"
	"bookingcore/internal/pkg/pgconv"
	"bookingcore/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type PackageReadStore struct {
	dbtx db.DBTX
}

func NewPackageReadStore(dbtx db.DBTX) *PackageReadStore {
	return &PackageReadStore{dbtx: dbtx}
}

// scalingRuleRow is the persisted JSONB shape of one scaling component.
type scalingRuleRow struct {
	Name           string `json:"name"`
	IncludedGuests int    `json:"includedGuests"`
	PerPersonCents int64  `json:"perPersonCents"`
	MaxGuests      *int   `json:"maxGuests,omitempty"`
}

func (r *PackageReadStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shared.PackageSnapshot, error) {
	var (
		name       string
		priceCents int64
		maxGuests  pgtype.Int4
		rulesJSON  []byte
	)
	err := r.dbtx.QueryRow(ctx, `
		SELECT name, price_cents, max_guests, scaling_rules
		FROM packages WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&name, &priceCents, &maxGuests, &rulesJSON)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("package not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find package", err)
	}

	var scaling []pricing.ScalingComponent
	if len(rulesJSON) > 0 {
		var rows []scalingRuleRow
		if err := json.Unmarshal(rulesJSON, &rows); err != nil {
			return nil, infra.WrapRepoErr("invalid scaling rules payload", err)
		}
		scaling = make([]pricing.ScalingComponent, len(rows))
		for i, row := range rows {
			scaling[i] = pricing.ScalingComponent{
				Name:           row.Name,
				IncludedGuests: row.IncludedGuests,
				PerPersonCents: row.PerPersonCents,
				MaxGuests:      row.MaxGuests,
			}
		}
	}

	var guests *int
	if mg := pgconv.Int32PtrFromPgtype(maxGuests); mg != nil {
		g := int(*mg)
		guests = &g
	}

	return &shared.PackageSnapshot{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
		MaxGuests:  guests,
		Scaling:    scaling,
	}, nil
}

func (r *PackageReadStore) AddOnsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]shared.AddOnSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.dbtx.Query(ctx, `
		SELECT id, name, price_cents FROM addons
		WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load add-ons", err)
	}
	defer rows.Close()

	result := make([]shared.AddOnSnapshot, 0, len(ids))
	for rows.Next() {
		var a shared.AddOnSnapshot
		if err := rows.Scan(&a.ID, &a.Name, &a.PriceCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan add-on", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate add-ons", err)
	}

	if len(result) != len(ids) {
		return nil, infra.WrapRepoErr("one or more add-ons not found", nil, infra.KindNotFound)
	}
	return result, nil
}

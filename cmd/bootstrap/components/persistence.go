package components

import (
	"bookingcore/internal/infra/db"
	"bookingcore/internal/infra/readstore"
	"bookingcore/internal/infra/uow"
	"bookingcore/internal/usecase/queries"
	"bookingcore/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork owns the write path: Serializable transactions, advisory
		// locks, bounded retry.
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		// Read-side store for the lock-free query surface
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

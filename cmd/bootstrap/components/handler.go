package components

import (
	"bookingcore/internal/handler"
	"bookingcore/internal/handler/api"
	"bookingcore/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewSettlementHandler,
		api.NewAvailabilityHandler,
		api.NewJobsHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

package components

import (
	"log/slog"

	"bookingcore/internal/infra/events"
	"bookingcore/internal/infra/payments"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/config"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewEventEmitter,
		fx.Annotate(
			NewPaymentProvider,
			fx.As(new(commands.PaymentProvider)),
		),
		commands.NewBookingUsecase,
		commands.NewSettlementUsecase,
		commands.NewReminderUsecase,
		queries.NewBookingQueryService,
	),
)

// NewEventEmitter prefers the AMQP broker; without one configured the
// events land in the structured log.
func NewEventEmitter(cfg config.Config, logger *slog.Logger) (commands.EventEmitter, error) {
	if cfg.Events.AMQPURL == "" {
		return events.NewLogEmitter(logger), nil
	}
	return events.NewAMQPEmitter(cfg.Events, logger)
}

func NewPaymentProvider(cfg config.Config) (*payments.OmiseProvider, error) {
	return payments.NewOmiseProvider(cfg.Payments)
}

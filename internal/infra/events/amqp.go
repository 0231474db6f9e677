package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"bookingcore/internal/pkg/config"
	"bookingcore/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPEmitter publishes booking lifecycle events to a durable topic
// exchange. Routing keys are the lowercased event names with dots, e.g.
// BOOKING_CREATED -> booking.created.
type AMQPEmitter struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

func NewAMQPEmitter(cfg config.EventsConfig, logger *slog.Logger) (*AMQPEmitter, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, errs.Wrap(err, "failed to dial amqp broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to open amqp channel")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to declare exchange")
	}
	return &AMQPEmitter{conn: conn, ch: ch, exchange: cfg.Exchange, logger: logger}, nil
}

// Emit publishes best-effort. The write transaction has already committed,
// so a broker failure is logged rather than returned.
func (e *AMQPEmitter) Emit(ctx context.Context, name string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to marshal event payload", "event", name, "error", err)
		return
	}

	err = e.ch.PublishWithContext(ctx, e.exchange, routingKey(name), false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        name,
		Body:        body,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to publish event", "event", name, "error", err)
	}
}

func (e *AMQPEmitter) Close() error {
	if e.ch != nil {
		_ = e.ch.Close()
	}
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

func routingKey(eventName string) string {
	return strings.ReplaceAll(strings.ToLower(eventName), "_", ".")
}

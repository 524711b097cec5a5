package trackerapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"ride-tracker/internal/general/config"
	"ride-tracker/internal/general/contracts"
	"ride-tracker/internal/general/logger"
	"ride-tracker/internal/general/rabbitmq"
)

// ErrRabbitMQDisabled is returned when the views command runs without a broker.
var ErrRabbitMQDisabled = errors.New("rabbitmq.host is not configured")

// TailViews prints every trip view published on the fanout exchange as a JSON line.
func TailViews(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	if !cfg.RabbitMQEnabled() {
		return ErrRabbitMQDisabled
	}

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	enc := json.NewEncoder(out)
	return rmq.ConsumeViews(ctx, "ride-tracker-views", func(_ context.Context, msg contracts.TripViewMessage) error {
		return enc.Encode(msg)
	})
}

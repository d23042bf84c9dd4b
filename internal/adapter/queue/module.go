package queue

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/config"
)

// Module provides the Kafka backed queue and closes it on shutdown.
var Module = fx.Options(
	fx.Provide(newQueue),
	fx.Provide(func(q *KafkaQueue) Queue { return q }),
)

type queueParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newQueue(p queueParams) (*KafkaQueue, error) {
	q, err := NewKafkaQueue(p.Config.KafkaBrokers, p.Config.Topics, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return q.Close()
		},
	})
	return q, nil
}

package carrier

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/config"
	"github.com/polkiloo/warehouse/internal/metrics"
)

// Module exposes the label API client and coordinator to the fx graph.
var Module = fx.Provide(newClient, newCoordinator)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.CarrierAPIAddress, p.Config.CarrierAPIKey, p.Config.CarrierTimeout, p.Logger)
}

type coordinatorParams struct {
	fx.In

	Client  Client
	Config  *config.Config
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newCoordinator(p coordinatorParams) *Coordinator {
	return NewCoordinator(p.Client, p.Config.CarrierMaxConcurrency, p.Metrics, p.Logger)
}

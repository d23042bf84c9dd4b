package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/adapter/carrier"
	"github.com/polkiloo/warehouse/internal/adapter/queue"
	"github.com/polkiloo/warehouse/internal/app"
	"github.com/polkiloo/warehouse/internal/config"
	"github.com/polkiloo/warehouse/internal/logger"
	"github.com/polkiloo/warehouse/internal/metrics"
	"github.com/polkiloo/warehouse/internal/pkg/auth"
	"github.com/polkiloo/warehouse/internal/server/http/router"
	"github.com/polkiloo/warehouse/internal/storage/postgres"
	"github.com/polkiloo/warehouse/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		carrier.Module,
		queue.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

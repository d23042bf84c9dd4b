package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/app"
	"github.com/polkiloo/warehouse/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(
	func(f *app.WarehouseFacade) handlers.WarehouseFacade { return f },
	Setup,
)

package order

import (
	"github.com/makestudio/printforge/internal/order/repository"
	"github.com/makestudio/printforge/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

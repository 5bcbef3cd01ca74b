package customer

import (
	"github.com/makestudio/printforge/internal/customer/repository"
	"github.com/makestudio/printforge/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package product

import (
	"github.com/makestudio/printforge/internal/product/repository"
	"github.com/makestudio/printforge/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package coupon

import (
	"github.com/makestudio/printforge/internal/coupon/repository"
	"github.com/makestudio/printforge/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

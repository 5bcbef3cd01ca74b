package checkout

import (
	"github.com/makestudio/printforge/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.NewStripeProvider),
	fx.Provide(service.New),
)

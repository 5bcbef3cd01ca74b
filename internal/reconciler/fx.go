package reconciler

import (
	"github.com/makestudio/printforge/internal/payment/adapters"
	"github.com/makestudio/printforge/internal/payment/adapters/stripe"
	paymentdomain "github.com/makestudio/printforge/internal/payment/domain"
	paymentrepo "github.com/makestudio/printforge/internal/payment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciler",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(stripe.NewFactory())
	}),
	fx.Provide(func() paymentdomain.Repository {
		return paymentrepo.Provide()
	}),
	fx.Provide(New),
)

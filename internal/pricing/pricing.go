package pricing

import (
	"errors"
	"math"

	"github.com/makestudio/printforge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity = errors.New("invalid_quantity")
)

// Quote prices a print run: the unit price falls with volume along the
// configured curve and the total is quantity * unit price.
type Quote struct {
	Quantity    int   `json:"quantity"`
	UnitAmount  int64 `json:"unit_amount"`
	TotalAmount int64 `json:"total_amount"`
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Holder *config.PricingConfigHolder
}

type Service struct {
	log    *zap.Logger
	holder *config.PricingConfigHolder
}

func New(p Params) *Service {
	return &Service{
		log:    p.Log.Named("pricing.service"),
		holder: p.Holder,
	}
}

func (s *Service) Quote(quantity int) (*Quote, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	unit := UnitPrice(s.holder.Get(), quantity)
	return &Quote{
		Quantity:    quantity,
		UnitAmount:  unit,
		TotalAmount: unit * int64(quantity),
	}, nil
}

// UnitPrice interpolates between the curve anchors on a log-quantity scale,
// which gives steep early volume discounts that flatten toward the max
// quantity. Quantities outside the anchors clamp to the nearest bound.
func UnitPrice(curve config.PricingCurve, quantity int) int64 {
	if quantity <= curve.MinQuantity {
		return curve.MinUnitPrice
	}
	if quantity >= curve.MaxQuantity {
		return curve.MaxUnitPrice
	}

	ratio := math.Log(float64(quantity)/float64(curve.MinQuantity)) /
		math.Log(float64(curve.MaxQuantity)/float64(curve.MinQuantity))
	price := float64(curve.MinUnitPrice) +
		ratio*float64(curve.MaxUnitPrice-curve.MinUnitPrice)
	return int64(math.Round(price))
}

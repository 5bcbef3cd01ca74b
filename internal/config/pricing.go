package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingCurve anchors the tiered unit price for print jobs. The unit price
// for a quantity between the two anchors is interpolated on a log scale and
// clamped at the bounds.
type PricingCurve struct {
	MinQuantity  int   `mapstructure:"minQuantity"`
	MinUnitPrice int64 `mapstructure:"minUnitPrice"`
	MaxQuantity  int   `mapstructure:"maxQuantity"`
	MaxUnitPrice int64 `mapstructure:"maxUnitPrice"`
}

func DefaultPricingCurve() PricingCurve {
	return PricingCurve{
		MinQuantity:  1,
		MinUnitPrice: 500,
		MaxQuantity:  100,
		MaxUnitPrice: 120,
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingCurve
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/printforge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRINTFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingCurve()
		v.SetDefault("pricing.minQuantity", defaults.MinQuantity)
		v.SetDefault("pricing.minUnitPrice", defaults.MinUnitPrice)
		v.SetDefault("pricing.maxQuantity", defaults.MaxQuantity)
		v.SetDefault("pricing.maxUnitPrice", defaults.MaxUnitPrice)
	}

	var curve PricingCurve
	if err := v.UnmarshalKey("pricing", &curve); err != nil {
		return nil, err
	}
	if err := validatePricingCurve(curve); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(curve)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingCurve
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingCurve(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed curve without file watching. Intended
// for tests.
func NewStaticPricingHolder(curve PricingCurve) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(curve)
	return holder
}

func (h *PricingConfigHolder) Get() PricingCurve {
	return h.current.Load().(PricingCurve)
}

func validatePricingCurve(curve PricingCurve) error {
	if curve.MinQuantity < 1 {
		return errors.New("pricing.minQuantity must be >= 1")
	}
	if curve.MaxQuantity <= curve.MinQuantity {
		return errors.New("pricing.maxQuantity must be greater than minQuantity")
	}
	if curve.MinUnitPrice <= 0 || curve.MaxUnitPrice <= 0 {
		return errors.New("pricing unit prices must be positive")
	}
	return nil
}

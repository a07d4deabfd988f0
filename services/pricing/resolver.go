package pricing

import (
	// Go Internal Packages
	"context"
	"fmt"

	// External Packages
	"go.uber.org/zap"
)

// Markup tiers applied when no operator override exists for a product.
const (
	tierLowLimit  = 20_000
	tierHighLimit = 50_000

	markupLow  = 1_000
	markupMid  = 1_500
	markupHigh = 2_000
)

// OverrideSource resolves an operator-configured selling price for a
// namespaced product key. hasValue=false means no override exists.
type OverrideSource interface {
	GetOverride(ctx context.Context, key string) (price int, hasValue bool, err error)
}

// OverrideCache is an optional read-through cache in front of the
// override source.
type OverrideCache interface {
	Get(ctx context.Context, key string) (price int, hasValue bool, hit bool)
	Put(ctx context.Context, key string, price int, hasValue bool)
}

type Resolver struct {
	overrides OverrideSource
	cache     OverrideCache
	logger    *zap.Logger
}

func NewResolver(overrides OverrideSource, cache OverrideCache, logger *zap.Logger) *Resolver {
	return &Resolver{overrides: overrides, cache: cache, logger: logger}
}

// NamespacedKey builds the override map key for a product under a
// provider's price namespace.
func NamespacedKey(provider, productCode string) string {
	return fmt.Sprintf("%s::%s", provider, productCode)
}

// ResolveSellingPrice returns the selling price for a product: the
// configured override verbatim when one exists and is positive,
// otherwise the tiered markup over cost. Never fails; an unreachable
// override source degrades to the markup rule.
func (r *Resolver) ResolveSellingPrice(ctx context.Context, costPrice int, productCode, provider string) int {
	key := NamespacedKey(provider, productCode)

	if r.cache != nil {
		if price, hasValue, hit := r.cache.Get(ctx, key); hit {
			if hasValue && price > 0 {
				return price
			}
			return TieredMarkup(costPrice)
		}
	}

	price, hasValue, err := r.overrides.GetOverride(ctx, key)
	if err != nil {
		r.logger.Warn("override lookup failed, using tiered markup",
			zap.String("key", key), zap.Error(err))
		return TieredMarkup(costPrice)
	}
	if r.cache != nil {
		r.cache.Put(ctx, key, price, hasValue)
	}
	if hasValue && price > 0 {
		return price
	}
	return TieredMarkup(costPrice)
}

// TieredMarkup applies the default markup rule over a wholesale cost.
func TieredMarkup(costPrice int) int {
	switch {
	case costPrice < tierLowLimit:
		return costPrice + markupLow
	case costPrice <= tierHighLimit:
		return costPrice + markupMid
	default:
		return costPrice + markupHigh
	}
}

package pricing

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "epulsaku/errors"

	// External Packages
	"go.uber.org/zap"
)

// OverrideStore persists operator-configured override prices.
type OverrideStore interface {
	SetOverride(ctx context.Context, key string, price int) error
	DeleteOverride(ctx context.Context, key string) error
}

// CacheInvalidator drops a cached override entry after a change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string)
}

// Overrides is the operator-facing write side of the price override
// map. Changes apply to future transactions only; already-recorded
// selling prices are never touched.
type Overrides struct {
	store  OverrideStore
	cache  CacheInvalidator
	logger *zap.Logger
}

func NewOverrides(store OverrideStore, cache CacheInvalidator, logger *zap.Logger) *Overrides {
	return &Overrides{store: store, cache: cache, logger: logger}
}

// Set configures a fixed selling price for a product under a provider.
func (o *Overrides) Set(ctx context.Context, provider, productCode string, price int) error {
	if provider == "" {
		return errors.EmptyParamErr("provider")
	}
	if productCode == "" {
		return errors.EmptyParamErr("productCode")
	}
	if price <= 0 {
		return errors.E(errors.Invalid, "override price must be positive", nil)
	}

	key := NamespacedKey(provider, productCode)
	if err := o.store.SetOverride(ctx, key, price); err != nil {
		return err
	}
	if o.cache != nil {
		o.cache.Invalidate(ctx, key)
	}
	o.logger.Info("price override set", zap.String("key", key), zap.Int("price", price))
	return nil
}

// Delete removes an override, reverting the product to the tiered
// markup rule.
func (o *Overrides) Delete(ctx context.Context, provider, productCode string) error {
	if provider == "" {
		return errors.EmptyParamErr("provider")
	}
	if productCode == "" {
		return errors.EmptyParamErr("productCode")
	}

	key := NamespacedKey(provider, productCode)
	if err := o.store.DeleteOverride(ctx, key); err != nil {
		return err
	}
	if o.cache != nil {
		o.cache.Invalidate(ctx, key)
	}
	o.logger.Info("price override removed", zap.String("key", key))
	return nil
}

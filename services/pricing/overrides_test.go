package pricing

import (
	// Go Internal Packages
	"context"
	"testing"

	// Local Packages
	errors "epulsaku/errors"

	// External Packages
	"go.uber.org/zap"
)

type fakeStore struct {
	set     map[string]int
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{set: make(map[string]int)}
}

func (s *fakeStore) SetOverride(_ context.Context, key string, price int) error {
	s.set[key] = price
	return nil
}

func (s *fakeStore) DeleteOverride(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeInvalidator struct {
	keys []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, key string) {
	f.keys = append(f.keys, key)
}

func TestOverrides_SetWritesNamespacedKeyAndInvalidates(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvalidator{}
	o := NewOverrides(store, inv, zap.NewNop())

	if err := o.Set(context.Background(), "digiflazz", "pln20", 21000); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store.set["digiflazz::pln20"]; got != 21000 {
		t.Errorf("stored price = %d, want 21000", got)
	}
	if len(inv.keys) != 1 || inv.keys[0] != "digiflazz::pln20" {
		t.Errorf("cache invalidation keys = %v", inv.keys)
	}
}

func TestOverrides_SetRejectsBadInput(t *testing.T) {
	o := NewOverrides(newFakeStore(), nil, zap.NewNop())
	tests := []struct {
		name           string
		provider, code string
		price          int
	}{
		{"empty provider", "", "pln20", 21000},
		{"empty product code", "digiflazz", "", 21000},
		{"zero price", "digiflazz", "pln20", 0},
		{"negative price", "digiflazz", "pln20", -500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.Set(context.Background(), tt.provider, tt.code, tt.price)
			if !errors.Is(errors.Invalid, err) {
				t.Errorf("expected Invalid error, got %v", err)
			}
		})
	}
}

func TestOverrides_DeleteInvalidates(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvalidator{}
	o := NewOverrides(store, inv, zap.NewNop())

	if err := o.Delete(context.Background(), "tokovoucher", "ff100"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "tokovoucher::ff100" {
		t.Errorf("deleted keys = %v", store.deleted)
	}
	if len(inv.keys) != 1 || inv.keys[0] != "tokovoucher::ff100" {
		t.Errorf("cache invalidation keys = %v", inv.keys)
	}
}

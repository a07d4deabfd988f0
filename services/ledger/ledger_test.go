package ledger

import (
	// Go Internal Packages
	"context"
	"sync"
	"testing"
	"time"

	// Local Packages
	errors "epulsaku/errors"
	helpers "epulsaku/helpers"
	models "epulsaku/models"
	pricing "epulsaku/services/pricing"

	// External Packages
	"go.uber.org/zap"
)

type memStore struct {
	mu  sync.Mutex
	txs map[string]models.Transaction
}

func newMemStore() *memStore {
	return &memStore{txs: make(map[string]models.Transaction)}
}

func (m *memStore) Insert(_ context.Context, tx models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.ID] = tx
	return nil
}

func (m *memStore) FindAll(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return models.Transaction{}, errTxNotFound(id)
	}
	return tx, nil
}

func (m *memStore) ReplaceIfStatus(_ context.Context, expected string, tx models.Transaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.txs[tx.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	m.txs[tx.ID] = tx
	return true, nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return errTxNotFound(id)
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.txs[id]; ok {
			delete(m.txs, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindPending(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.Status == models.StatusPending {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.txs[id]
	return ok
}

func errTxNotFound(id string) error {
	return errors.TxNotFoundErr(id)
}

// markupResolver prices with the default tier rule, ignoring
// overrides.
type markupResolver struct{}

func (markupResolver) ResolveSellingPrice(_ context.Context, costPrice int, _, _ string) int {
	return pricing.TieredMarkup(costPrice)
}

func newTestLedger(store TxStore, at time.Time) *Ledger {
	l := NewLedger(store, markupResolver{}, zap.NewNop(), 3)
	l.now = func() time.Time { return at }
	return l
}

func TestCreate_DefaultsAndPricing(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	l := newTestLedger(store, at)

	tx, err := l.Create(context.Background(), models.NewTxInput{
		ID:                 "T1",
		ProductName:        "Token PLN 20rb",
		BuyerSkuCode:       "PLN20",
		OriginalCustomerNo: "1234567890",
		CostPrice:          15000,
		Provider:           models.ProviderDigiflazz,
		ProductCategory:    "Token",
		ProductBrand:       "PLN",
	}, "wayan")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if tx.Status != models.StatusPending {
		t.Errorf("expected default status Pending, got %s", tx.Status)
	}
	if tx.SellingPrice != 16000 {
		t.Errorf("expected selling price 16000, got %d", tx.SellingPrice)
	}
	if tx.CategoryKey != CategoryPLN || tx.IconName != IconPLN {
		t.Errorf("unexpected category derivation: %s / %s", tx.CategoryKey, tx.IconName)
	}
	if tx.Timestamp != helpers.FormatISO(at) {
		t.Errorf("expected timestamp %s, got %s", helpers.FormatISO(at), tx.Timestamp)
	}
	if tx.Calendar.Year != 2026 || tx.Calendar.Month != 3 || tx.Calendar.Day != 14 || tx.Calendar.Hour != 9 {
		t.Errorf("calendar fields out of sync: %+v", tx.Calendar)
	}
	if tx.TransactedBy != "wayan" {
		t.Errorf("expected transactedBy wayan, got %s", tx.TransactedBy)
	}
}

func TestGetAll_SortedNewestFirst(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(store, at)

	for i, id := range []string{"old", "mid", "new"} {
		ts := at.Add(time.Duration(i) * time.Hour)
		store.Insert(context.Background(), models.Transaction{
			ID: id, Status: models.StatusSukses, Timestamp: helpers.FormatISO(ts),
		})
	}

	txs, err := l.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].ID != "new" || txs[1].ID != "mid" || txs[2].ID != "old" {
		t.Errorf("wrong order: %s, %s, %s", txs[0].ID, txs[1].ID, txs[2].ID)
	}
}

func TestGetAll_TriggersPruning(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLedger(store, at)

	store.Insert(context.Background(), models.Transaction{
		ID: "expired", Status: models.StatusSukses,
		Timestamp: helpers.FormatISO(at.AddDate(0, -3, -1)),
	})
	store.Insert(context.Background(), models.Transaction{
		ID: "fresh", Status: models.StatusSukses,
		Timestamp: helpers.FormatISO(at.AddDate(0, -3, 1)),
	})

	if _, err := l.GetAll(context.Background()); err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	// Pruning is fire-and-forget; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for store.has("expired") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.has("expired") {
		t.Error("expired transaction was not pruned")
	}
	if !store.has("fresh") {
		t.Error("fresh transaction must not be pruned")
	}
}

func TestUpdate_TimestampRewriteOnLeavingPending(t *testing.T) {
	store := newMemStore()
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	l := newTestLedger(store, created)

	tx, err := l.Create(context.Background(), models.NewTxInput{
		ID: "T2", BuyerSkuCode: "XLD10", CostPrice: 10000, Provider: models.ProviderDigiflazz,
	}, "staf1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resolved := created.Add(5 * time.Minute)
	l.now = func() time.Time { return resolved }

	status := models.StatusSukses
	sn := "SN-889"
	updated, err := l.Update(context.Background(), models.TxUpdate{
		ID: "T2", Status: &status, SerialNumber: &sn,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Timestamp != helpers.FormatISO(resolved) {
		t.Errorf("timestamp not rewritten: got %s, want %s", updated.Timestamp, helpers.FormatISO(resolved))
	}
	if updated.Timestamp == tx.Timestamp {
		t.Error("timestamp must change on transition out of Pending")
	}
	if updated.Calendar.Day != resolved.Day() || updated.Calendar.Hour != resolved.Hour() {
		t.Errorf("calendar fields not resynced: %+v", updated.Calendar)
	}

	t.Run("terminal update leaves timestamp alone", func(t *testing.T) {
		later := resolved.Add(time.Hour)
		l.now = func() time.Time { return later }
		reason := "corrected note"
		again, err := l.Update(context.Background(), models.TxUpdate{ID: "T2", Details: &reason})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if again.Timestamp != helpers.FormatISO(resolved) {
			t.Errorf("timestamp of settled record changed: %s", again.Timestamp)
		}
	})
}

func TestUpdate_CostPriceRecomputesSellingPrice(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLedger(store, at)

	if _, err := l.Create(context.Background(), models.NewTxInput{
		ID: "T3", BuyerSkuCode: "FF100", CostPrice: 15000, Provider: models.ProviderDigiflazz,
	}, "staf1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("new positive differing cost", func(t *testing.T) {
		cost := 21000
		updated, err := l.Update(context.Background(), models.TxUpdate{ID: "T3", CostPrice: &cost})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.CostPrice != 21000 || updated.SellingPrice != 22500 {
			t.Errorf("expected cost 21000 / selling 22500, got %d / %d",
				updated.CostPrice, updated.SellingPrice)
		}
	})

	t.Run("same cost leaves selling price", func(t *testing.T) {
		cost := 21000
		updated, err := l.Update(context.Background(), models.TxUpdate{ID: "T3", CostPrice: &cost})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.SellingPrice != 22500 {
			t.Errorf("selling price changed without a cost change: %d", updated.SellingPrice)
		}
	})

	t.Run("non-positive cost ignored", func(t *testing.T) {
		cost := 0
		updated, err := l.Update(context.Background(), models.TxUpdate{ID: "T3", CostPrice: &cost})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.CostPrice != 21000 {
			t.Errorf("zero cost must be ignored, got %d", updated.CostPrice)
		}
	})
}

// staleReadStore serves one read that lags behind what it actually
// holds, the way a record settled between a caller's read and write
// looks from the caller's side.
type staleReadStore struct {
	*memStore
	stale models.Transaction
	used  bool
}

func (s *staleReadStore) FindByID(ctx context.Context, id string) (models.Transaction, error) {
	if !s.used && id == s.stale.ID {
		s.used = true
		return s.stale, nil
	}
	return s.memStore.FindByID(ctx, id)
}

func TestUpdate_StaleSnapshotLosesToSettledRecord(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 5, 5, 11, 0, 0, 0, time.UTC)

	settled := models.Transaction{
		ID: "T6", Status: models.StatusSukses, SerialNumber: "SN777",
		Timestamp: helpers.FormatISO(at),
	}
	store.Insert(context.Background(), settled)

	stale := settled
	stale.Status = models.StatusPending
	stale.SerialNumber = ""
	l := newTestLedger(&staleReadStore{memStore: store, stale: stale}, at)

	note := "edited mid-settlement"
	got, err := l.Update(context.Background(), models.TxUpdate{ID: "T6", Details: &note})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Status != models.StatusSukses || got.SerialNumber != "SN777" {
		t.Errorf("expected the settled record back, got %+v", got)
	}

	stored, err := store.FindByID(context.Background(), "T6")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Details != "" || stored.Status != models.StatusSukses {
		t.Errorf("stale snapshot reached the store: %+v", stored)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	l := newTestLedger(newMemStore(), time.Now())
	status := models.StatusSukses
	if _, err := l.Update(context.Background(), models.TxUpdate{ID: "missing", Status: &status}); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestApplyProviderResult_Monotonic(t *testing.T) {
	store := newMemStore()
	at := time.Date(2026, 4, 4, 16, 0, 0, 0, time.UTC)
	l := newTestLedger(store, at)

	if _, err := l.Create(context.Background(), models.NewTxInput{
		ID: "T4", BuyerSkuCode: "ML86", CostPrice: 20000, Provider: models.ProviderTokoVoucher,
	}, "staf1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("terminal result applies once", func(t *testing.T) {
		updated, applied, err := l.ApplyProviderResult(context.Background(), "T4", models.ProviderResult{
			Status: models.StatusSukses, SerialNumber: "SN1", Cost: 20000,
		})
		if err != nil || !applied {
			t.Fatalf("expected applied result, got applied=%v err=%v", applied, err)
		}
		if updated.Status != models.StatusSukses || updated.SerialNumber != "SN1" {
			t.Errorf("unexpected record: %+v", updated)
		}
	})

	t.Run("late conflicting result is ignored", func(t *testing.T) {
		updated, applied, err := l.ApplyProviderResult(context.Background(), "T4", models.ProviderResult{
			Status: models.StatusGagal, Message: "late failure",
		})
		if err != nil {
			t.Fatalf("ApplyProviderResult failed: %v", err)
		}
		if applied {
			t.Error("settled record must not be rewritten")
		}
		if updated.Status != models.StatusSukses {
			t.Errorf("status regressed to %s", updated.Status)
		}
	})

	t.Run("non-terminal result never writes", func(t *testing.T) {
		store.Insert(context.Background(), models.Transaction{
			ID: "T5", Status: models.StatusPending, Timestamp: helpers.FormatISO(at),
		})
		_, applied, err := l.ApplyProviderResult(context.Background(), "T5", models.ProviderResult{
			Status: models.StatusPending,
		})
		if err != nil {
			t.Fatalf("ApplyProviderResult failed: %v", err)
		}
		if applied {
			t.Error("pending result must not write")
		}
	})
}

func TestPruneOlderThan_Boundaries(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	l := newTestLedger(store, now)
	cutoff := now.AddDate(0, -3, 0)

	store.Insert(context.Background(), models.Transaction{
		ID: "too-old", Timestamp: helpers.FormatISO(now.AddDate(0, -3, -1)),
	})
	store.Insert(context.Background(), models.Transaction{
		ID: "still-young", Timestamp: helpers.FormatISO(now.AddDate(0, -3, 1)),
	})
	store.Insert(context.Background(), models.Transaction{
		ID: "garbled", Timestamp: "not-a-timestamp",
	})

	pruned, err := l.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected exactly 1 pruned record, got %d", pruned)
	}
	if store.has("too-old") {
		t.Error("record past retention must be removed")
	}
	if !store.has("still-young") {
		t.Error("record inside retention must be kept")
	}
	if !store.has("garbled") {
		t.Error("unparseable timestamps must never be pruned")
	}
}

package ledger

import (
	// Go Internal Packages
	"context"
	"sort"
	"time"

	// Local Packages
	helpers "epulsaku/helpers"
	models "epulsaku/models"

	// External Packages
	"go.uber.org/zap"
)

// TxStore is the persistence contract the ledger needs. Implemented
// by the mongodb transaction repository.
type TxStore interface {
	Insert(ctx context.Context, tx models.Transaction) error
	FindAll(ctx context.Context) ([]models.Transaction, error)
	FindByID(ctx context.Context, id string) (models.Transaction, error)
	ReplaceIfStatus(ctx context.Context, expected string, tx models.Transaction) (bool, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	FindPending(ctx context.Context) ([]models.Transaction, error)
}

// PriceResolver computes a selling price for a product.
type PriceResolver interface {
	ResolveSellingPrice(ctx context.Context, costPrice int, productCode, provider string) int
}

// Ledger owns the transaction records: creation, status updates,
// deletion and retention pruning.
type Ledger struct {
	store           TxStore
	resolver        PriceResolver
	logger          *zap.Logger
	retentionMonths int
	now             func() time.Time
}

func NewLedger(store TxStore, resolver PriceResolver, logger *zap.Logger, retentionMonths int) *Ledger {
	return &Ledger{
		store:           store,
		resolver:        resolver,
		logger:          logger,
		retentionMonths: retentionMonths,
		now:             time.Now,
	}
}

// Create derives the category/icon and selling price for the input and
// persists the record. The selling price is fixed here; later updates
// recompute it only when a new positive cost price arrives.
func (l *Ledger) Create(ctx context.Context, in models.NewTxInput, transactedBy string) (models.Transaction, error) {
	now := l.now()
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	key, icon := DeriveCategory(in.ProductCategory, in.ProductBrand)

	tx := models.Transaction{
		ID:                    in.ID,
		ProductName:           in.ProductName,
		Details:               in.Details,
		BuyerSkuCode:          in.BuyerSkuCode,
		OriginalCustomerNo:    in.OriginalCustomerNo,
		CostPrice:             in.CostPrice,
		SellingPrice:          l.resolver.ResolveSellingPrice(ctx, in.CostPrice, in.BuyerSkuCode, in.Provider),
		Status:                status,
		SerialNumber:          in.SerialNumber,
		FailureReason:         in.FailureReason,
		Provider:              in.Provider,
		ProviderTransactionID: in.ProviderTxID,
		TransactedBy:          transactedBy,
		CategoryKey:           key,
		IconName:              icon,
		Timestamp:             helpers.FormatISO(now),
		Calendar:              models.CalendarFor(now),
	}

	if err := l.store.Insert(ctx, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// GetAll returns every transaction, newest first. Retention pruning is
// kicked off in the background on every call and never blocks or fails
// the read.
func (l *Ledger) GetAll(ctx context.Context) ([]models.Transaction, error) {
	txs, err := l.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp > txs[j].Timestamp
	})

	// The prune goroutine outlives this call, so it gets its own root
	// context rather than anything derived from the caller's.
	cutoff := l.now().AddDate(0, -l.retentionMonths, 0)
	go func() {
		pruned, err := l.PruneOlderThan(context.Background(), cutoff)
		if err != nil {
			l.logger.Warn("retention pruning failed", zap.Error(err))
			return
		}
		if pruned > 0 {
			l.logger.Info("pruned expired transactions", zap.Int64("count", pruned))
		}
	}()

	return txs, nil
}

// GetByID returns the transaction with the exact reference id.
func (l *Ledger) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return l.store.FindByID(ctx, id)
}

// Update merges the patch into the stored record. A transition out of
// Pending rewrites the timestamp to now; a positive changed cost price
// recomputes the selling price against the stored sku and provider.
func (l *Ledger) Update(ctx context.Context, up models.TxUpdate) (models.Transaction, error) {
	tx, _, err := l.update(ctx, up)
	return tx, err
}

// ApplyProviderResult feeds a reconciliation or callback result into
// the record. It writes only when the stored record is still Pending
// and the result is terminal; applied reports whether a write
// happened, so callers know whether to notify.
func (l *Ledger) ApplyProviderResult(ctx context.Context, id string, res models.ProviderResult) (models.Transaction, bool, error) {
	cur, err := l.store.FindByID(ctx, id)
	if err != nil {
		return models.Transaction{}, false, err
	}
	// A record that already left Pending is settled; a late or
	// mismatched provider result never overwrites it.
	if cur.Status != models.StatusPending || !models.IsTerminal(res.Status) {
		return cur, false, nil
	}

	up := models.TxUpdate{ID: id, Status: &res.Status}
	if res.Cost > 0 {
		up.CostPrice = &res.Cost
	}
	if res.SerialNumber != "" {
		up.SerialNumber = &res.SerialNumber
	}
	if res.Status == models.StatusGagal && res.Message != "" {
		up.FailureReason = &res.Message
	}
	if res.ProviderTxID != "" {
		up.ProviderTransactionID = &res.ProviderTxID
	}
	return l.update(ctx, up)
}

func (l *Ledger) update(ctx context.Context, up models.TxUpdate) (models.Transaction, bool, error) {
	cur, err := l.store.FindByID(ctx, up.ID)
	if err != nil {
		return models.Transaction{}, false, err
	}

	updated := cur
	leavesPending := false

	if up.Status != nil && *up.Status != cur.Status {
		if cur.Status == models.StatusPending && models.IsTerminal(*up.Status) {
			leavesPending = true
		}
		updated.Status = *up.Status
	}
	if up.SerialNumber != nil {
		updated.SerialNumber = *up.SerialNumber
	}
	if up.FailureReason != nil {
		updated.FailureReason = *up.FailureReason
	}
	if up.ProviderTransactionID != nil {
		updated.ProviderTransactionID = *up.ProviderTransactionID
	}
	if up.Details != nil {
		updated.Details = *up.Details
	}

	if up.CostPrice != nil && *up.CostPrice > 0 && *up.CostPrice != cur.CostPrice {
		updated.CostPrice = *up.CostPrice
		updated.SellingPrice = l.resolver.ResolveSellingPrice(ctx, *up.CostPrice, cur.BuyerSkuCode, cur.Provider)
	}

	if up.ProductCategoryFromProvider != nil || up.ProductBrandFromProvider != nil {
		category, brand := "", ""
		if up.ProductCategoryFromProvider != nil {
			category = *up.ProductCategoryFromProvider
		}
		if up.ProductBrandFromProvider != nil {
			brand = *up.ProductBrandFromProvider
		}
		updated.CategoryKey, updated.IconName = DeriveCategory(category, brand)
	}

	// Serial numbers belong to successful orders, failure reasons to
	// failed ones.
	if leavesPending {
		switch updated.Status {
		case models.StatusSukses:
			updated.FailureReason = ""
		case models.StatusGagal:
			updated.SerialNumber = ""
		}

		now := l.now()
		updated.Timestamp = helpers.FormatISO(now)
		updated.Calendar = models.CalendarFor(now)

		applied, err := l.store.ReplaceIfStatus(ctx, models.StatusPending, updated)
		if err != nil {
			return models.Transaction{}, false, err
		}
		if !applied {
			// Another path resolved it first; report the winner.
			current, err := l.store.FindByID(ctx, up.ID)
			if err != nil {
				return models.Transaction{}, false, err
			}
			l.logger.Info("status update lost race, keeping stored record",
				zap.String("id", up.ID), zap.String("status", current.Status))
			return current, false, nil
		}
		return updated, true, nil
	}

	// Non-transition writes still condition on the status observed at
	// read time, so a reconciler settling the record between our read
	// and write can never be overwritten by this stale snapshot.
	applied, err := l.store.ReplaceIfStatus(ctx, cur.Status, updated)
	if err != nil {
		return models.Transaction{}, false, err
	}
	if !applied {
		current, err := l.store.FindByID(ctx, up.ID)
		if err != nil {
			return models.Transaction{}, false, err
		}
		l.logger.Info("update lost race with a status change, keeping stored record",
			zap.String("id", up.ID), zap.String("status", current.Status))
		return current, false, nil
	}
	return updated, true, nil
}

// Delete removes a transaction outright.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.store.DeleteByID(ctx, id)
}

// PruneOlderThan removes every record whose timestamp predates cutoff.
// Records with unparseable timestamps are kept; pruning never guesses.
func (l *Ledger) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	txs, err := l.store.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	var expired []string
	for _, tx := range txs {
		ts, err := helpers.ParseISO(tx.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			expired = append(expired, tx.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}
	return l.store.DeleteByIDs(ctx, expired)
}

// GetPending lists the transactions still awaiting a terminal status,
// for reconciliation resync.
func (l *Ledger) GetPending(ctx context.Context) ([]models.Transaction, error) {
	return l.store.FindPending(ctx)
}

package reconciler

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"

	// External Packages
	"go.uber.org/zap"
)

// LedgerAPI is the slice of the transaction ledger the reconciler
// drives.
type LedgerAPI interface {
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	ApplyProviderResult(ctx context.Context, id string, res models.ProviderResult) (models.Transaction, bool, error)
	GetPending(ctx context.Context) ([]models.Transaction, error)
}

// DigiflazzClient re-submits the original purchase. The upstream
// treats a repeated ref_id as a status query, never a second charge.
type DigiflazzClient interface {
	PurchaseOrQuery(ctx context.Context, productCode, destination, refID string) (models.ProviderResult, error)
}

// TokoVoucherClient has a dedicated status endpoint keyed by ref id.
type TokoVoucherClient interface {
	QueryStatus(ctx context.Context, refID string) (models.ProviderResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, event models.NotifyEvent)
}

// Reconciler supervises one polling goroutine per Pending transaction.
// The registry enforces single flight per id: a transaction is never
// polled by two goroutines at once. Every poller derives from the
// application context given at construction, never from a caller's
// request-scoped context: a poller outlives the request that started
// it by minutes or hours.
type Reconciler struct {
	base        context.Context
	ledger      LedgerAPI
	digiflazz   DigiflazzClient
	tokovoucher TokoVoucherClient
	notifier    Notifier
	logger      *zap.Logger
	interval    time.Duration

	mu       sync.Mutex
	trackers map[string]context.CancelFunc
	wg       sync.WaitGroup
}

func NewReconciler(base context.Context, ledger LedgerAPI, digiflazz DigiflazzClient,
	tokovoucher TokoVoucherClient, notifier Notifier, logger *zap.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		base:        base,
		ledger:      ledger,
		digiflazz:   digiflazz,
		tokovoucher: tokovoucher,
		notifier:    notifier,
		logger:      logger,
		interval:    interval,
		trackers:    make(map[string]context.CancelFunc),
	}
}

// Track starts polling the transaction until it leaves Pending.
// Returns false when the id is already being tracked.
func (r *Reconciler) Track(id string) bool {
	r.mu.Lock()
	if _, exists := r.trackers[id]; exists {
		r.mu.Unlock()
		return false
	}
	trackCtx, cancel := context.WithCancel(r.base)
	r.trackers[id] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(trackCtx, id)
	return true
}

// Untrack cancels the poller for id, if any.
func (r *Reconciler) Untrack(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, exists := r.trackers[id]; exists {
		cancel()
		delete(r.trackers, id)
	}
}

// TrackedCount reports the number of live pollers.
func (r *Reconciler) TrackedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// Wait blocks until every poller has exited. Call after cancelling the
// parent context on shutdown.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) run(ctx context.Context, id string) {
	defer r.wg.Done()
	defer r.Untrack(id)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := r.reconcileOnce(ctx, id); done {
				return
			}
		}
	}
}

// reconcileOnce performs one tick for id and reports whether the
// poller should terminate. Transport-level failures are a no-op: the
// record is untouched and the next tick retries.
func (r *Reconciler) reconcileOnce(ctx context.Context, id string) bool {
	tx, err := r.ledger.GetByID(ctx, id)
	if errors.Is(errors.NotFound, err) {
		// Deleted underneath us; nothing left to reconcile.
		return true
	}
	if err != nil {
		r.logger.Warn("reconcile read failed", zap.String("id", id), zap.Error(err))
		return false
	}

	// Another path may have resolved it already.
	if tx.Status != models.StatusPending {
		return true
	}

	res, err := r.query(ctx, tx)
	if err != nil {
		r.logger.Debug("provider status query failed, retrying next tick",
			zap.String("id", id), zap.String("provider", tx.Provider), zap.Error(err))
		return false
	}

	if !models.IsTerminal(res.Status) {
		return false
	}

	updated, applied, err := r.ledger.ApplyProviderResult(ctx, id, res)
	if err != nil {
		r.logger.Warn("failed to apply provider result", zap.String("id", id), zap.Error(err))
		return false
	}
	if applied {
		r.logger.Info("transaction reconciled",
			zap.String("id", id), zap.String("status", updated.Status))
		r.notifier.Notify(ctx, models.NotifyEvent{
			Kind:     models.EventTransaction,
			Tag:      "auto update",
			Username: updated.TransactedBy,
			Tx:       &updated,
		})
	}
	return models.IsTerminal(updated.Status)
}

// CheckNow performs a single on-demand status check, for manual
// rechecks from the operator UI. Unlike a background tick, an
// upstream failure is surfaced to the caller.
func (r *Reconciler) CheckNow(ctx context.Context, id string) (models.Transaction, bool, error) {
	tx, err := r.ledger.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, false, err
	}
	if tx.Status != models.StatusPending {
		return tx, false, nil
	}

	res, err := r.query(ctx, tx)
	if err != nil {
		return tx, false, err
	}
	if !models.IsTerminal(res.Status) {
		return tx, false, nil
	}

	updated, applied, err := r.ledger.ApplyProviderResult(ctx, id, res)
	if err != nil {
		return models.Transaction{}, false, err
	}
	if applied {
		r.notifier.Notify(ctx, models.NotifyEvent{
			Kind:     models.EventTransaction,
			Tag:      "manual update",
			Username: updated.TransactedBy,
			Tx:       &updated,
		})
	}
	return updated, applied, nil
}

func (r *Reconciler) query(ctx context.Context, tx models.Transaction) (models.ProviderResult, error) {
	switch tx.Provider {
	case models.ProviderTokoVoucher:
		return r.tokovoucher.QueryStatus(ctx, tx.ID)
	default:
		return r.digiflazz.PurchaseOrQuery(ctx, tx.BuyerSkuCode, tx.OriginalCustomerNo, tx.ID)
	}
}

// RunResync periodically re-tracks every Pending transaction so
// polling resumes after a restart. Blocks until ctx is cancelled.
func (r *Reconciler) RunResync(ctx context.Context, every time.Duration) {
	r.resync(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.resync(ctx)
		}
	}
}

func (r *Reconciler) resync(ctx context.Context) {
	pending, err := r.ledger.GetPending(ctx)
	if err != nil {
		r.logger.Warn("pending resync scan failed", zap.Error(err))
		return
	}
	started := 0
	for _, tx := range pending {
		if r.Track(tx.ID) {
			started++
		}
	}
	if started > 0 {
		r.logger.Info("resumed polling pending transactions", zap.Int("count", started))
	}
}

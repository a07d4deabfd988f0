package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"

	// Local Packages
	models "epulsaku/models"

	// External Packages
	"go.uber.org/zap"
)

// LedgerAPI is the slice of the ledger a callback drives.
type LedgerAPI interface {
	ApplyProviderResult(ctx context.Context, id string, res models.ProviderResult) (models.Transaction, bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, event models.NotifyEvent)
}

// CallbackProcessor applies provider status callbacks bridged onto the
// ingest topic. It is the push counterpart of the polling reconciler;
// both funnel through the same conditional status update, so a late
// callback can never regress a settled record.
type CallbackProcessor struct {
	Logger   *zap.Logger
	Ledger   LedgerAPI
	Notifier Notifier
}

func NewCallbackProcessor(logger *zap.Logger, ledger LedgerAPI, notifier Notifier) *CallbackProcessor {
	return &CallbackProcessor{Logger: logger, Ledger: ledger, Notifier: notifier}
}

func (p *CallbackProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	for _, record := range records {
		var ev models.CallbackEvent
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			p.Logger.Error("failed to unmarshal callback event", zap.Error(err))
			continue
		}
		if ev.RefID == "" {
			p.Logger.Warn("callback event without ref_id, skipping")
			continue
		}

		res := models.ProviderResult{
			Status:       ev.Status,
			Cost:         ev.Price,
			SerialNumber: ev.SerialNumber,
			Message:      ev.Message,
			ProviderTxID: ev.ProviderTxID,
		}
		updated, applied, err := p.Ledger.ApplyProviderResult(ctx, ev.RefID, res)
		if err != nil {
			p.Logger.Error("failed to apply callback event",
				zap.String("ref_id", ev.RefID), zap.Error(err))
			continue
		}
		if !applied {
			p.Logger.Debug("callback event ignored",
				zap.String("ref_id", ev.RefID), zap.String("status", ev.Status))
			continue
		}

		p.Logger.Info("callback applied",
			zap.String("ref_id", ev.RefID), zap.String("status", updated.Status))
		p.Notifier.Notify(ctx, models.NotifyEvent{
			Kind:     models.EventTransaction,
			Tag:      "callback",
			Username: updated.TransactedBy,
			Tx:       &updated,
		})
	}
	return nil
}

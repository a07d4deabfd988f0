package purchase

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PinVerifier interface {
	Verify(ctx context.Context, username, pin string) (models.PinVerifyResult, error)
}

type LedgerAPI interface {
	Create(ctx context.Context, in models.NewTxInput, transactedBy string) (models.Transaction, error)
}

type DigiflazzClient interface {
	PurchaseOrQuery(ctx context.Context, productCode, destination, refID string) (models.ProviderResult, error)
}

type TokoVoucherClient interface {
	Purchase(ctx context.Context, productCode, destination, refID string) (models.ProviderResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, event models.NotifyEvent)
}

// Tracker registers a Pending transaction with the reconciliation
// loop. The loop owns the poller's lifetime; it must not inherit this
// request's context.
type Tracker interface {
	Track(id string) bool
}

// Input describes one purchase submission. RefID is the caller's
// idempotency key; when empty a fresh one is generated.
type Input struct {
	Username        string
	Pin             string
	Provider        string
	RefID           string
	ProductName     string
	ProductCategory string
	ProductBrand    string
	Details         string
	BuyerSkuCode    string
	CustomerNo      string
	CostPrice       int
}

// Service runs the purchase flow: PIN gate, provider submission,
// ledger record, notification, and reconciliation tracking for orders
// left Pending.
type Service struct {
	guard       PinVerifier
	ledger      LedgerAPI
	digiflazz   DigiflazzClient
	tokovoucher TokoVoucherClient
	notifier    Notifier
	tracker     Tracker
	logger      *zap.Logger
}

func NewService(guard PinVerifier, ledger LedgerAPI, digiflazz DigiflazzClient,
	tokovoucher TokoVoucherClient, notifier Notifier, tracker Tracker, logger *zap.Logger) *Service {
	return &Service{
		guard:       guard,
		ledger:      ledger,
		digiflazz:   digiflazz,
		tokovoucher: tokovoucher,
		notifier:    notifier,
		tracker:     tracker,
		logger:      logger,
	}
}

// Submit places the order. Every submission is gated by the PIN guard
// first; an invalid PIN rejects the purchase without touching the
// provider. A provider transport failure still records a Pending
// transaction, because the charge may have gone through; the
// reconciliation loop settles it.
func (s *Service) Submit(ctx context.Context, in Input) (models.Transaction, error) {
	if in.BuyerSkuCode == "" {
		return models.Transaction{}, errors.EmptyParamErr("buyerSkuCode")
	}
	if in.CustomerNo == "" {
		return models.Transaction{}, errors.EmptyParamErr("customerNo")
	}

	pinRes, err := s.guard.Verify(ctx, in.Username, in.Pin)
	if err != nil {
		return models.Transaction{}, err
	}
	if !pinRes.IsValid {
		return models.Transaction{}, errors.E(errors.Invalid, pinRes.Message, nil)
	}

	refID := in.RefID
	if refID == "" {
		refID = uuid.NewString()
	}

	res, err := s.submitToProvider(ctx, in, refID)
	if err != nil {
		s.logger.Warn("provider submission failed, recording as pending",
			zap.String("ref_id", refID), zap.String("provider", in.Provider), zap.Error(err))
		res = models.ProviderResult{Status: models.StatusPending}
	}

	cost := in.CostPrice
	if res.Cost > 0 {
		cost = res.Cost
	}
	failureReason := ""
	if res.Status == models.StatusGagal {
		failureReason = res.Message
	}

	tx, err := s.ledger.Create(ctx, models.NewTxInput{
		ID:                 refID,
		ProductName:        in.ProductName,
		Details:            in.Details,
		BuyerSkuCode:       in.BuyerSkuCode,
		OriginalCustomerNo: in.CustomerNo,
		CostPrice:          cost,
		Status:             res.Status,
		SerialNumber:       res.SerialNumber,
		FailureReason:      failureReason,
		Provider:           in.Provider,
		ProviderTxID:       res.ProviderTxID,
		ProductCategory:    in.ProductCategory,
		ProductBrand:       in.ProductBrand,
	}, in.Username)
	if err != nil {
		return models.Transaction{}, err
	}

	s.notifier.Notify(ctx, models.NotifyEvent{
		Kind:     models.EventTransaction,
		Tag:      "pembelian",
		Username: in.Username,
		Tx:       &tx,
	})

	if tx.Status == models.StatusPending {
		s.tracker.Track(tx.ID)
	}
	return tx, nil
}

func (s *Service) submitToProvider(ctx context.Context, in Input, refID string) (models.ProviderResult, error) {
	switch in.Provider {
	case models.ProviderTokoVoucher:
		return s.tokovoucher.Purchase(ctx, in.BuyerSkuCode, in.CustomerNo, refID)
	default:
		return s.digiflazz.PurchaseOrQuery(ctx, in.BuyerSkuCode, in.CustomerNo, refID)
	}
}

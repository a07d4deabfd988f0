package notifier

import (
	// Go Internal Packages
	"context"
	"fmt"
	"strings"
	"sync"

	// Local Packages
	models "epulsaku/models"
	utils "epulsaku/utils"

	// External Packages
	"go.uber.org/zap"
)

// BotClient sends one message to one chat target.
type BotClient interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// PersonalTargetSource resolves the acting user's personal chat
// target, when configured.
type PersonalTargetSource interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// FailedSink records undeliverable messages for later replay.
type FailedSink interface {
	Record(ctx context.Context, chatID, text string, cause error)
}

// Dispatcher fans alerts out to the configured chat targets.
// Delivery is best effort: every failure is logged (and dead-lettered
// when a sink is wired) but never surfaces to the caller. Sends run on
// the application context given at construction, so a slow chat target
// never holds up the caller and a request context released after the
// handler returns is never retained.
type Dispatcher struct {
	base          context.Context
	bot           BotClient
	users         PersonalTargetSource
	dlq           FailedSink
	globalChatIDs []string
	logger        *zap.Logger
	wg            sync.WaitGroup
}

func NewDispatcher(base context.Context, bot BotClient, users PersonalTargetSource, dlq FailedSink, globalChatIDs []string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{base: base, bot: bot, users: users, dlq: dlq, globalChatIDs: globalChatIDs, logger: logger}
}

// Notify formats the event and dispatches it to every resolved target
// in the background. Partial delivery is not escalated.
func (d *Dispatcher) Notify(_ context.Context, event models.NotifyEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(event)
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(event models.NotifyEvent) {
	ctx := d.base
	targets := d.resolveTargets(ctx, event)
	if len(targets) == 0 {
		d.logger.Debug("no notification targets configured", zap.String("kind", event.Kind))
		return
	}

	text := formatMessage(event)
	for _, chatID := range targets {
		if err := d.bot.SendMessage(ctx, chatID, text); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("chat_id", chatID), zap.String("kind", event.Kind), zap.Error(err))
			if d.dlq != nil {
				d.dlq.Record(ctx, chatID, text, err)
			}
		}
	}
}

// resolveTargets always includes the global targets; transaction
// events additionally reach the acting user's personal chat when one
// is configured.
func (d *Dispatcher) resolveTargets(ctx context.Context, event models.NotifyEvent) []string {
	seen := make(map[string]bool, len(d.globalChatIDs)+1)
	var targets []string
	for _, id := range d.globalChatIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}

	if event.Kind == models.EventTransaction && event.Username != "" && d.users != nil {
		user, err := d.users.FindByUsername(ctx, event.Username)
		if err != nil {
			d.logger.Debug("personal target lookup failed",
				zap.String("username", event.Username), zap.Error(err))
			return targets
		}
		if user.TelegramChatID != "" && !seen[user.TelegramChatID] {
			targets = append(targets, user.TelegramChatID)
		}
	}
	return targets
}

func formatMessage(event models.NotifyEvent) string {
	esc := utils.EscapeMarkdownV2

	if event.Kind == models.EventTransaction && event.Tx != nil {
		tx := event.Tx
		var b strings.Builder
		fmt.Fprintf(&b, "*Transaksi %s*\n", esc(event.Tag))
		fmt.Fprintf(&b, "Produk: %s\n", esc(tx.ProductName))
		fmt.Fprintf(&b, "Tujuan: %s\n", esc(tx.OriginalCustomerNo))
		fmt.Fprintf(&b, "Status: %s\n", esc(tx.Status))
		if tx.SerialNumber != "" {
			// Code spans have their own reserved set: only backslash
			// and backtick, nothing else.
			fmt.Fprintf(&b, "SN: `%s`\n", utils.EscapeMarkdownV2Code(tx.SerialNumber))
		}
		if tx.FailureReason != "" {
			fmt.Fprintf(&b, "Alasan: %s\n", esc(tx.FailureReason))
		}
		fmt.Fprintf(&b, "Harga Jual: %s\n", esc(utils.FormatRupiah(tx.SellingPrice)))
		fmt.Fprintf(&b, "Oleh: %s\n", esc(tx.TransactedBy))
		fmt.Fprintf(&b, "Ref ID: %s", esc(tx.ID))
		return b.String()
	}

	title := "Info"
	if event.Kind == models.EventSecurity {
		title = "Peringatan Keamanan"
	}
	return fmt.Sprintf("*%s*\n%s", title, esc(event.Message))
}

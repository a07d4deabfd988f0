package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FailedNotification records one undeliverable bot message so an
// operator can replay it later. Delivery failures never propagate to
// the caller; this list is the only trace they leave.
type FailedNotification struct {
	ChatID   string `json:"chat_id"`
	Text     string `json:"text"`
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"`
}

type NotifyDeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

func NewNotifyDeadLetterQueue(client *redis.Client, logger *zap.Logger) *NotifyDeadLetterQueue {
	return &NotifyDeadLetterQueue{client: client, logger: logger, listName: "failed-notifications"}
}

// Record pushes a failed delivery onto the dead-letter list. Errors
// are logged and swallowed; the queue is itself best-effort.
func (r *NotifyDeadLetterQueue) Record(ctx context.Context, chatID, text string, cause error) {
	fn := FailedNotification{
		ChatID:   chatID,
		Text:     text,
		Reason:   cause.Error(),
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	}
	jsonData, err := json.Marshal(fn)
	if err != nil {
		r.logger.Error("failed to marshal notification record", zap.Error(err))
		return
	}
	if err := r.client.LPush(ctx, r.listName, jsonData).Err(); err != nil {
		r.logger.Error("failed to store notification record",
			zap.String("chat_id", chatID), zap.Error(err))
	}
}

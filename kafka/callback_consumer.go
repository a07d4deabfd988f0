package kafka

import (
	// Go Internal Packages
	"context"
	"errors"

	// Local Packages
	models "epulsaku/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type Consumer struct {
	Client    *kgo.Client
	Config    *models.ConsumerConfig
	Processor CallbackProcessor
	Logger    *zap.Logger
}

type CallbackProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

// NewCallbackConsumer creates a consumer for the provider callback
// topic. Nothing is consumed until Poll is called.
func NewCallbackConsumer(conf *models.ConsumerConfig, processor CallbackProcessor, metrics *kprom.Metrics, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{Config: conf, Processor: processor, Logger: logger}

	// Commits happen only after a batch is fully processed, so a crash
	// mid-batch re-delivers instead of dropping callbacks.
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ConsumerGroup(conf.Name),
		kgo.ConsumeTopics(conf.Topic),
		kgo.WithHooks(metrics),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil || client == nil {
		return nil, err
	}

	c.Client = client
	return c, nil
}

// Poll polls for callback records from the Kafka broker.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	consumerName := c.Config.Name
	recordsPerPoll := c.Config.RecordsPerPoll

	for {
		if ctx.Err() != nil {
			c.Logger.Info("callback polling stopped", zap.String("consumer", consumerName))
			return ctx.Err()
		}

		c.Logger.Debug("polling for callback records", zap.String("consumer", consumerName))
		fetches := c.Client.PollRecords(ctx, recordsPerPoll)

		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errors.Is(fetches.Err0(), context.Canceled) {
			return fetches.Err0()
		}

		records := make([]models.Record, len(fetches.Records()))
		for idx, record := range fetches.Records() {
			records[idx] = models.Record{
				Key:   record.Key,
				Value: record.Value,
				Topic: record.Topic,
			}
		}

		// Callbacks are idempotent through the ledger's conditional
		// update, so a failed batch is safe to re-poll.
		if err := c.Processor.ProcessRecords(ctx, records); err != nil {
			c.Logger.Error("failed to process callback records", zap.Error(err))
			continue
		}

		_ = c.Client.CommitRecords(ctx, fetches.Records()...)
	}
}

package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/platform/kafka"
	"github.com/casa-guarda/service-listing/internal/storage"
)

// ObjectRemover deletes stored objects.
type ObjectRemover interface {
	Remove(ctx context.Context, bucket string, keys []string) error
}

// OrphanCleanupConsumer retries the deletion of objects that a commit or a
// listing deletion could not remove.
type OrphanCleanupConsumer struct {
	consumer *kafka.Consumer
	objects  ObjectRemover
	logger   *zap.Logger
}

// NewOrphanCleanupConsumer creates a new OrphanCleanupConsumer.
func NewOrphanCleanupConsumer(
	brokers []string,
	groupID string,
	objects ObjectRemover,
	logger *zap.Logger,
) *OrphanCleanupConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicStorageEvents, logger)
	return &OrphanCleanupConsumer{
		consumer: consumer,
		objects:  objects,
		logger:   logger,
	}
}

// Start begins consuming storage events. This blocks until the context is cancelled.
func (c *OrphanCleanupConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *OrphanCleanupConsumer) Close() error {
	return c.consumer.Close()
}

func (c *OrphanCleanupConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from storage topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch ce.Type {
	case ObjectOrphan:
		return c.handleObjectOrphaned(ctx, ce)
	default:
		c.logger.Debug("ignoring unhandled storage event type",
			zap.String("type", ce.Type),
		)
		return nil
	}
}

func (c *OrphanCleanupConsumer) handleObjectOrphaned(ctx context.Context, ce kafka.CloudEvent) error {
	var evt ObjectOrphanedEvent
	if err := ce.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ObjectOrphanedEvent data", zap.Error(err))
		return nil
	}

	key := evt.Key
	if key == "" {
		key = storage.KeyFromRef(evt.Bucket, evt.Ref)
	}
	if evt.Bucket == "" || key == "" {
		c.logger.Warn("orphaned object event without bucket or key",
			zap.String("event_id", ce.ID),
		)
		return nil
	}

	if err := c.objects.Remove(ctx, evt.Bucket, []string{key}); err != nil {
		c.logger.Error("failed to remove orphaned object",
			zap.String("bucket", evt.Bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("orphaned object removed",
		zap.String("bucket", evt.Bucket),
		zap.String("key", key),
		zap.String("reason", evt.Reason),
		zap.String("entity_id", evt.EntityID.String()),
	)
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/platform/kafka"
)

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, bucket string, keys []string) error {
	if r.err != nil {
		return r.err
	}
	for _, k := range keys {
		r.removed = append(r.removed, bucket+"/"+k)
	}
	return nil
}

func newTestConsumer(remover ObjectRemover) *OrphanCleanupConsumer {
	return &OrphanCleanupConsumer{objects: remover, logger: zap.NewNop()}
}

func orphanMessage(t *testing.T, evt ObjectOrphanedEvent) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent(Source, ObjectOrphan, evt)
	require.NoError(t, err)
	value, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Value: value}
}

func TestHandleMessage_RemovesOrphan(t *testing.T) {
	remover := &recordingRemover{}
	c := newTestConsumer(remover)

	msg := orphanMessage(t, ObjectOrphanedEvent{
		Bucket:     "house-images",
		Key:        "a/b",
		Reason:     ReasonMarkedForDeletion,
		EntityID:   uuid.New(),
		OccurredAt: time.Now(),
	})
	require.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Equal(t, []string{"house-images/a/b"}, remover.removed)
}

func TestHandleMessage_DerivesKeyFromRef(t *testing.T) {
	remover := &recordingRemover{}
	c := newTestConsumer(remover)

	msg := orphanMessage(t, ObjectOrphanedEvent{
		Bucket: "room-images",
		Ref:    "http://localhost:9000/room-images/r1/f1",
		Reason: ReasonEntityDeleted,
	})
	require.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Equal(t, []string{"room-images/r1/f1"}, remover.removed)
}

func TestHandleMessage_RetriesOnRemoveFailure(t *testing.T) {
	c := newTestConsumer(&recordingRemover{err: errors.New("storage unavailable")})

	msg := orphanMessage(t, ObjectOrphanedEvent{Bucket: "house-images", Key: "a/b"})
	assert.Error(t, c.handleMessage(context.Background(), msg))
}

func TestHandleMessage_DropsMalformedAndForeignEvents(t *testing.T) {
	remover := &recordingRemover{}
	c := newTestConsumer(remover)
	ctx := context.Background()

	assert.NoError(t, c.handleMessage(ctx, kafkago.Message{Value: []byte("not json")}))

	ce, err := kafka.NewCloudEvent(Source, HouseSaved, ListingSavedEvent{Kind: "house"})
	require.NoError(t, err)
	value, err := json.Marshal(ce)
	require.NoError(t, err)
	assert.NoError(t, c.handleMessage(ctx, kafkago.Message{Value: value}))

	assert.NoError(t, c.handleMessage(ctx, orphanMessage(t, ObjectOrphanedEvent{Key: "a/b"})))
	assert.Empty(t, remover.removed)
}

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedReader hands out queued messages, then blocks until ctx is done.
type scriptedReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func (r *scriptedReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestConsumer(reader messageReader) *Consumer {
	c := newConsumer(reader, zap.NewNop())
	c.retryBackoff = time.Millisecond
	c.maxBackoff = 4 * time.Millisecond
	return c
}

func TestConsume_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	reader := &scriptedReader{queue: []kafkago.Message{{Offset: 10}, {Offset: 11}}}
	c := newTestConsumer(reader)

	var mu sync.Mutex
	attempts := map[int64]int{}
	var order []int64
	handler := func(_ context.Context, msg kafkago.Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[msg.Offset]++
		order = append(order, msg.Offset)
		if msg.Offset == 10 && attempts[10] < 3 {
			return errors.New("storage unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []int64{10, 11}, reader.commits())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts[10])
	assert.Equal(t, []int64{10, 10, 10, 11}, order, "offset 11 waits for offset 10")
}

func TestConsume_CancelDuringRetryLeavesMessageUncommitted(t *testing.T) {
	reader := &scriptedReader{queue: []kafkago.Message{{Offset: 5}}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 100)
	handler := func(context.Context, kafkago.Message) error {
		calls <- struct{}{}
		return errors.New("still failing")
	}

	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	<-calls
	<-calls
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, reader.commits())
}

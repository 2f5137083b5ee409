package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// collectN subscribes and returns a channel that receives every delivered
// message for the pair.
func collectN(t *testing.T, b *MessageBus, subscriberID, topic string, capacity int) <-chan *Message {
	t.Helper()
	out := make(chan *Message, capacity)
	err := b.Subscribe(subscriberID, topic, func(_ context.Context, msg *Message) {
		out <- msg
	})
	require.NoError(t, err)
	return out
}

func waitFor(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered in time")
		return nil
	}
}

// ---------------------------------------------------------------------------
// Publish / Subscribe
// ---------------------------------------------------------------------------

func TestPublish_DeliversToSubscriber(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	received := collectN(t, b, "sub-1", "design.updates", 1)

	require.NoError(t, b.Publish("design.updates", "payload-1"))

	msg := waitFor(t, received)
	assert.Equal(t, "design.updates", msg.Topic)
	assert.Equal(t, "payload-1", msg.Payload)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestPublish_FIFOPerSubscriber(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	const n = 50
	received := collectN(t, b, "sub-1", "ordered", n)

	for i := range n {
		require.NoError(t, b.Publish("ordered", i))
	}

	for want := range n {
		msg := waitFor(t, received)
		assert.Equal(t, want, msg.Payload)
	}
}

func TestPublish_MultipleSubscribers(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	first := collectN(t, b, "sub-1", "broadcast", 1)
	second := collectN(t, b, "sub-2", "broadcast", 1)

	require.NoError(t, b.Publish("broadcast", "hello"))

	assert.Equal(t, "hello", waitFor(t, first).Payload)
	assert.Equal(t, "hello", waitFor(t, second).Payload)
}

func TestPublish_TopicIsolation(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	var count int
	var mu sync.Mutex
	err := b.Subscribe("sub-1", "topic.a", func(_ context.Context, _ *Message) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish("topic.b", "elsewhere"))
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestPublish_NoSubscribers(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	assert.NoError(t, b.Publish("empty.topic", "dropped on the floor"))
}

// ---------------------------------------------------------------------------
// Subscription management
// ---------------------------------------------------------------------------

func TestSubscribe_NilHandler(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	assert.Error(t, b.Subscribe("sub-1", "topic", nil))
}

func TestSubscribe_ReplaceSamePair(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	old := make(chan *Message, 1)
	require.NoError(t, b.Subscribe("sub-1", "topic", func(_ context.Context, msg *Message) {
		old <- msg
	}))

	replacement := collectN(t, b, "sub-1", "topic", 1)

	require.NoError(t, b.Publish("topic", "after-replace"))

	assert.Equal(t, "after-replace", waitFor(t, replacement).Payload)
	select {
	case <-old:
		t.Fatal("replaced handler received a message published after replacement")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	received := collectN(t, b, "sub-1", "topic", 2)

	require.NoError(t, b.Publish("topic", "first"))
	waitFor(t, received)

	b.Unsubscribe("sub-1", "topic")
	require.NoError(t, b.Publish("topic", "second"))

	select {
	case msg := <-received:
		t.Fatalf("unexpected delivery after unsubscribe: %v", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribe_AbsentPairIsNoop(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	b.Unsubscribe("ghost", "never-subscribed")
}

// ---------------------------------------------------------------------------
// Close
// ---------------------------------------------------------------------------

func TestClose_RejectsFurtherUse(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish("topic", "late"), ErrBusClosed)
	assert.ErrorIs(t, b.Subscribe("sub-1", "topic", func(context.Context, *Message) {}), ErrBusClosed)
	assert.NoError(t, b.Close(), "second close is a no-op")
}

func TestClose_DrainsQueuedMessages(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())

	var mu sync.Mutex
	var delivered int
	err := b.Subscribe("sub-1", "topic", func(_ context.Context, _ *Message) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	require.NoError(t, err)

	const n = 20
	for range n {
		require.NoError(t, b.Publish("topic", "queued"))
	}

	require.NoError(t, b.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, delivered)
}

// ---------------------------------------------------------------------------
// Buffer behavior
// ---------------------------------------------------------------------------

func TestPublish_DropsWhenBufferFull(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()
	b.SetBufferSize(1)

	block := make(chan struct{})
	var mu sync.Mutex
	var delivered int
	err := b.Subscribe("slow", "topic", func(_ context.Context, _ *Message) {
		<-block
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	require.NoError(t, err)

	// one in-flight with the worker, one buffered, the rest dropped
	for range 10 {
		require.NoError(t, b.Publish("topic", "burst"))
	}
	close(block)
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, delivered, 2)
	assert.GreaterOrEqual(t, delivered, 1)
}

func TestSetBufferSize_IgnoresNonPositive(t *testing.T) {
	t.Parallel()
	b := NewMessageBus(zap.NewNop())
	defer b.Close()

	b.SetBufferSize(0)
	b.SetBufferSize(-3)
	assert.Equal(t, DefaultBufferSize, b.bufferSize)
}

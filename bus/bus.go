// Package bus provides the topic-based publish/subscribe hub used to
// broadcast session lifecycle events to interested listeners (UI, logs,
// other sessions).
//
// Delivery is asynchronous relative to the publisher: Publish never blocks
// on handler completion. Each (subscriber, topic) pair owns one buffered
// channel drained by a single goroutine, so publishes on one topic reach
// one subscriber in FIFO order; no ordering is guaranteed across
// subscribers.
package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parametriq/designflow/internal/metrics"
)

// ErrBusClosed 总线已关闭
var ErrBusClosed = errors.New("message bus is closed")

// DefaultBufferSize is the per-subscription channel buffer.
const DefaultBufferSize = 64

// Message is one published payload with delivery metadata.
type Message struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler 消息处理器，由订阅者的工作协程调用
type Handler func(ctx context.Context, msg *Message)

// subscription 是一个 (subscriber, topic) 对及其投递队列
type subscription struct {
	subscriberID string
	topic        string
	ch           chan *Message
}

// MessageBus 话题消息总线
type MessageBus struct {
	mu sync.RWMutex
	// topic -> subscriberID -> subscription
	subs map[string]map[string]*subscription

	bufferSize int
	closed     bool
	wg         sync.WaitGroup

	logger    *zap.Logger
	collector *metrics.Collector
}

// NewMessageBus 创建消息总线
func NewMessageBus(logger *zap.Logger) *MessageBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageBus{
		subs:       make(map[string]map[string]*subscription),
		bufferSize: DefaultBufferSize,
		logger:     logger.With(zap.String("component", "message_bus")),
	}
}

// SetCollector 注入指标收集器（可选）
func (b *MessageBus) SetCollector(collector *metrics.Collector) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collector = collector
}

// SetBufferSize overrides the per-subscription buffer for subscriptions
// created afterwards.
func (b *MessageBus) SetBufferSize(n int) {
	if n <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bufferSize = n
}

// Subscribe registers an asynchronous handler for a topic. Multiple
// subscribers per topic are allowed. Re-subscribing the same
// (subscriberID, topic) pair replaces the previous handler; in-flight
// messages queued for the old handler are still delivered to it.
func (b *MessageBus) Subscribe(subscriberID, topic string, handler Handler) error {
	if handler == nil {
		return errors.New("handler must not be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	topicSubs, ok := b.subs[topic]
	if !ok {
		topicSubs = make(map[string]*subscription)
		b.subs[topic] = topicSubs
	}

	// Replacement policy: same pair re-subscribed -> old queue is closed
	// and its worker drains out.
	if old, ok := topicSubs[subscriberID]; ok {
		close(old.ch)
		b.logger.Debug("subscription replaced",
			zap.String("subscriber_id", subscriberID),
			zap.String("topic", topic),
		)
	}

	sub := &subscription{
		subscriberID: subscriberID,
		topic:        topic,
		ch:           make(chan *Message, b.bufferSize),
	}
	topicSubs[subscriberID] = sub

	b.wg.Add(1)
	go b.deliverLoop(sub, handler)

	b.logger.Debug("subscribed",
		zap.String("subscriber_id", subscriberID),
		zap.String("topic", topic),
	)

	return nil
}

// deliverLoop drains one subscription queue in order.
func (b *MessageBus) deliverLoop(sub *subscription, handler Handler) {
	defer b.wg.Done()
	for msg := range sub.ch {
		handler(context.Background(), msg)
	}
}

// Unsubscribe removes a (subscriber, topic) pair. No-op if absent.
func (b *MessageBus) Unsubscribe(subscriberID, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topicSubs, ok := b.subs[topic]
	if !ok {
		return
	}

	sub, ok := topicSubs[subscriberID]
	if !ok {
		return
	}

	close(sub.ch)
	delete(topicSubs, subscriberID)
	if len(topicSubs) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers the payload to all subscribers of the topic without
// blocking on handler completion. When a subscriber's buffer is full the
// message is dropped for that subscriber and counted.
func (b *MessageBus) Publish(topic string, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	if b.collector != nil {
		b.collector.RecordBusPublish(topic)
	}

	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- msg:
		default:
			b.logger.Warn("subscriber buffer full, message dropped",
				zap.String("subscriber_id", sub.subscriberID),
				zap.String("topic", topic),
				zap.String("msg_id", msg.ID),
			)
			if b.collector != nil {
				b.collector.RecordBusDrop(topic)
			}
		}
	}

	return nil
}

// Close stops the bus. Queued messages are still delivered before the
// workers exit; Close returns once every worker has drained.
func (b *MessageBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, topicSubs := range b.subs {
		for _, sub := range topicSubs {
			close(sub.ch)
		}
	}
	b.subs = make(map[string]map[string]*subscription)
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

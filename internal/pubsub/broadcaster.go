package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oggyb/bubbles/internal/observability"
)

// channelPrefix namespaces broadcaster traffic on the shared Redis instance.
const channelPrefix = "events:"

// Event is the wire form carried through Redis and handed to subscribers.
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// FilterFunc decides whether an event reaches one subscriber. Evaluated
// independently per subscriber; an error means "do not deliver to this
// subscriber" and never affects the others.
type FilterFunc func(Event) (bool, error)

// Subscriber is one live subscription. Events arrive on Events() until
// Unsubscribe; the channel is buffered and delivery is best-effort.
type Subscriber struct {
	id     string
	topic  string
	filter FilterFunc
	ch     chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *Subscriber) ID() string            { return s.id }
func (s *Subscriber) Topic() string         { return s.topic }
func (s *Subscriber) Events() <-chan Event  { return s.ch }
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Broadcaster fans events out to local subscribers. All publish traffic
// flows through a Redis channel so multiple server instances see the same
// stream; each instance filters and delivers to its own connections.
type Broadcaster struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[string]*Subscriber // topic -> subscriber id -> subscriber

	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBroadcaster starts the Redis receive loop for the known topics.
func NewBroadcaster(rdb *redis.Client, logger *slog.Logger) *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broadcaster{
		rdb:    rdb,
		logger: logger,
		subs:   make(map[string]map[string]*Subscriber),
		cancel: cancel,
	}
	b.pubsub = rdb.Subscribe(ctx, channelPrefix+TopicMessageAdded, channelPrefix+TopicMatchAdded)
	// consume both subscription acks so a publish issued right after
	// construction cannot slip past the receive loop
	for i := 0; i < 2; i++ {
		if _, err := b.pubsub.ReceiveTimeout(ctx, 5*time.Second); err != nil {
			logger.Warn("redis subscription ack not received", "err", err)
			break
		}
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Publish marshals the payload and fires it at the topic's Redis channel.
// Fire-and-forget: failures are logged, never returned to the mutation path.
func (b *Broadcaster) Publish(ctx context.Context, topic string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to marshal event payload", "topic", topic, "err", err)
		return
	}
	body, err := json.Marshal(Event{Topic: topic, Payload: raw})
	if err != nil {
		b.logger.Error("failed to marshal event", "topic", topic, "err", err)
		return
	}
	if err := b.rdb.Publish(ctx, channelPrefix+topic, body).Err(); err != nil {
		b.logger.Error("failed to publish event", "topic", topic, "err", err)
		return
	}
	observability.IncEventPublished(topic)
}

// Subscribe registers a filtered subscriber on a topic.
func (b *Broadcaster) Subscribe(topic string, filter FilterFunc) *Subscriber {
	sub := &Subscriber{
		id:     uuid.NewString(),
		topic:  topic,
		filter: filter,
		ch:     make(chan Event, 16),
		done:   make(chan struct{}),
	}
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscriber)
	}
	b.subs[topic][sub.id] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe deregisters the subscriber from future fan-out. In-flight
// filter evaluations may complete and simply find no one to deliver to.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if subs, ok := b.subs[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.subs, sub.topic)
		}
	}
	b.mu.Unlock()
	sub.once.Do(func() { close(sub.done) })
}

// Close stops the receive loop and drops all subscribers.
func (b *Broadcaster) Close() {
	b.cancel()
	_ = b.pubsub.Close()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.done) })
		}
	}
	b.subs = make(map[string]map[string]*Subscriber)
}

func (b *Broadcaster) run() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.Error("malformed event on redis channel", "channel", msg.Channel, "err", err)
			continue
		}
		if ev.Topic == "" {
			ev.Topic = strings.TrimPrefix(msg.Channel, channelPrefix)
		}
		b.dispatch(ev)
	}
}

// dispatch evaluates each subscriber's filter concurrently and
// independently; one failing filter never blocks the rest.
func (b *Broadcaster) dispatch(ev Event) {
	b.mu.RLock()
	targets := make([]*Subscriber, 0, len(b.subs[ev.Topic]))
	for _, sub := range b.subs[ev.Topic] {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		go b.deliver(sub, ev)
	}
}

func (b *Broadcaster) deliver(sub *Subscriber, ev Event) {
	ok, err := sub.filter(ev)
	if err != nil {
		b.logger.Warn("subscriber filter failed", "topic", ev.Topic, "subscriber", sub.id, "err", err)
		observability.IncEventDropped(ev.Topic, "filter_error")
		return
	}
	if !ok {
		observability.IncEventDropped(ev.Topic, "filtered")
		return
	}
	select {
	case sub.ch <- ev:
		observability.IncEventDelivered(ev.Topic)
	case <-sub.done:
		observability.IncEventDropped(ev.Topic, "gone")
	default:
		// slow consumer, at-most-once delivery
		observability.IncEventDropped(ev.Topic, "backpressure")
	}
}

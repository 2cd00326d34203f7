package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

const defaultBufferSize = 64

// Subscription is the token returned by Subscribe*. Unsubscribe is idempotent
// and safe to call from inside the handler.
type Subscription struct {
	once   sync.Once
	cancel func()
	done   chan struct{}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Done is closed once the subscriber has delivered its last queued event
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

type subscriber[T any] struct {
	id      uint64
	queue   chan T
	handler func(T)
	done    chan struct{}
	dropped atomic.Int64
}

func (s *subscriber[T]) run(logger *slog.Logger) {
	defer close(s.done)
	for ev := range s.queue {
		s.deliver(logger, ev)
	}
}

func (s *subscriber[T]) deliver(logger *slog.Logger, ev T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked",
				slog.Uint64("subscriber", s.id),
				slog.Any("panic", r),
			)
		}
	}()
	s.handler(ev)
}

// topic fans one event type out to its subscribers
type topic[T any] struct {
	name   string
	mu     sync.RWMutex
	subs   map[uint64]*subscriber[T]
	closed bool
}

func newTopic[T any](name string) *topic[T] {
	return &topic[T]{name: name, subs: make(map[uint64]*subscriber[T])}
}

func (t *topic[T]) subscribe(b *Broadcaster, handler func(T)) *Subscription {
	sub := &subscriber[T]{
		id:      b.nextID.Add(1),
		queue:   make(chan T, b.bufferSize),
		handler: handler,
		done:    make(chan struct{}),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(sub.done)
		return &Subscription{cancel: func() {}, done: sub.done}
	}
	t.subs[sub.id] = sub
	b.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer b.wg.Done()
		sub.run(b.logger)
	}()

	b.logger.Debug("subscriber added", slog.String("topic", t.name), slog.Uint64("subscriber", sub.id))

	return &Subscription{
		cancel: func() { t.remove(sub.id) },
		done:   sub.done,
	}
}

func (t *topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sub, ok := t.subs[id]; ok {
		delete(t.subs, id)
		close(sub.queue)
	}
}

// publish never blocks: a full subscriber queue drops the event for that subscriber only
func (t *topic[T]) publish(logger *slog.Logger, ev T) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, sub := range t.subs {
		select {
		case sub.queue <- ev:
		default:
			n := sub.dropped.Add(1)
			logger.Warn("subscriber queue full, dropping event",
				slog.String("topic", t.name),
				slog.Uint64("subscriber", sub.id),
				slog.Int64("dropped_total", n),
			)
		}
	}
}

func (t *topic[T]) close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, sub := range t.subs {
		delete(t.subs, id)
		close(sub.queue)
	}
}

func (t *topic[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Broadcaster delivers detection and safety results to listeners.
// Each listener has its own queue and goroutine, so it sees events in
// publish order and cannot stall the detection loop or other listeners.
type Broadcaster struct {
	logger     *slog.Logger
	bufferSize int

	faces  *topic[domain.DetectionEvent]
	safety *topic[domain.SafetyResult]

	nextID atomic.Uint64
	wg     sync.WaitGroup
}

// Option defines optional configuration for Broadcaster
type Option func(*Broadcaster)

// WithBufferSize sets the per-subscriber queue length
func WithBufferSize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		logger:     logger.With("component", "broadcaster"),
		bufferSize: defaultBufferSize,
		faces:      newTopic[domain.DetectionEvent]("face"),
		safety:     newTopic[domain.SafetyResult]("safety"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broadcaster) SubscribeFaces(handler func(domain.DetectionEvent)) *Subscription {
	return b.faces.subscribe(b, handler)
}

func (b *Broadcaster) SubscribeSafety(handler func(domain.SafetyResult)) *Subscription {
	return b.safety.subscribe(b, handler)
}

func (b *Broadcaster) PublishFace(ev domain.DetectionEvent) {
	b.faces.publish(b.logger, ev)
}

func (b *Broadcaster) PublishSafety(res domain.SafetyResult) {
	b.safety.publish(b.logger, res)
}

// Subscribers returns the number of face and safety subscribers
func (b *Broadcaster) Subscribers() (faces, safety int) {
	return b.faces.count(), b.safety.count()
}

// Close removes every subscriber and waits until queued events are delivered
func (b *Broadcaster) Close() {
	b.faces.close()
	b.safety.close()
	b.wg.Wait()
}

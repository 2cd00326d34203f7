package events

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector[T any] struct {
	mu     sync.Mutex
	events []T
}

func (c *collector[T]) add(ev T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.events))
	copy(out, c.events)
	return out
}

func face(id string) domain.DetectionEvent {
	return domain.DetectionEvent{IdentityID: id}
}

func TestBroadcaster_FIFOPerSubscriber(t *testing.T) {
	b := New(testLogger(), WithBufferSize(128))

	var first, second collector[domain.DetectionEvent]
	b.SubscribeFaces(first.add)
	b.SubscribeFaces(second.add)

	for i := 0; i < 100; i++ {
		b.PublishFace(domain.DetectionEvent{Confidence: float64(i)})
	}
	b.Close()

	for _, c := range []*collector[domain.DetectionEvent]{&first, &second} {
		got := c.snapshot()
		require.Len(t, got, 100)
		for i, ev := range got {
			assert.Equal(t, float64(i), ev.Confidence)
		}
	}
}

func TestBroadcaster_FaceAndSafetyAreSeparate(t *testing.T) {
	b := New(testLogger())

	var faces collector[domain.DetectionEvent]
	var safety collector[domain.SafetyResult]
	b.SubscribeFaces(faces.add)
	b.SubscribeSafety(safety.add)

	b.PublishFace(face("E1"))
	b.PublishSafety(domain.SafetyResult{Status: domain.SafetyCompliant})
	b.PublishSafety(domain.SafetyResult{Status: domain.SafetyCritical})
	b.Close()

	assert.Len(t, faces.snapshot(), 1)
	got := safety.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, domain.SafetyCompliant, got[0].Status)
	assert.Equal(t, domain.SafetyCritical, got[1].Status)
}

func TestBroadcaster_PanickingHandlerIsIsolated(t *testing.T) {
	b := New(testLogger())

	var good collector[domain.DetectionEvent]
	b.SubscribeFaces(func(ev domain.DetectionEvent) {
		panic("boom")
	})
	b.SubscribeFaces(good.add)

	b.PublishFace(face("E1"))
	b.PublishFace(face("E2"))

	assert.NotPanics(t, b.Close)
	assert.Len(t, good.snapshot(), 2)
}

func TestBroadcaster_PanickingHandlerKeepsReceiving(t *testing.T) {
	b := New(testLogger())

	var mu sync.Mutex
	calls := 0
	b.SubscribeSafety(func(domain.SafetyResult) {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("handler failure")
	})

	b.PublishSafety(domain.SafetyResult{})
	b.PublishSafety(domain.SafetyResult{})
	b.Close()

	assert.Equal(t, 2, calls)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := New(testLogger())

	var c collector[domain.DetectionEvent]
	sub := b.SubscribeFaces(c.add)

	b.PublishFace(face("E1"))
	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber did not drain")
	}

	b.PublishFace(face("E2"))
	b.Close()

	got := c.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "E1", got[0].IdentityID)

	faces, safety := b.Subscribers()
	assert.Equal(t, 0, faces)
	assert.Equal(t, 0, safety)
}

func TestBroadcaster_UnsubscribeFromHandler(t *testing.T) {
	b := New(testLogger())

	var c collector[domain.DetectionEvent]
	var sub *Subscription
	ready := make(chan struct{})
	sub = b.SubscribeFaces(func(ev domain.DetectionEvent) {
		<-ready
		c.add(ev)
		sub.Unsubscribe()
	})
	close(ready)

	b.PublishFace(face("E1"))

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("self-unsubscribe did not complete")
	}
	b.PublishFace(face("E2"))
	b.Close()

	assert.Len(t, c.snapshot(), 1)
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := New(testLogger(), WithBufferSize(2))

	release := make(chan struct{})
	var slow collector[domain.DetectionEvent]
	b.SubscribeFaces(func(ev domain.DetectionEvent) {
		<-release
		slow.add(ev)
	})
	var fast collector[domain.DetectionEvent]
	b.SubscribeFaces(fast.add)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			b.PublishFace(face("E1"))
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	close(release)
	b.Close()

	assert.NotEmpty(t, fast.snapshot())
	// one in the handler plus a full queue
	assert.LessOrEqual(t, len(slow.snapshot()), 3)
}

func TestBroadcaster_SubscribeAfterClose(t *testing.T) {
	b := New(testLogger())
	b.Close()

	sub := b.SubscribeFaces(func(domain.DetectionEvent) {
		t.Error("handler must not run after close")
	})
	b.PublishFace(face("E1"))

	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription after close should be done immediately")
	}
	sub.Unsubscribe()
}

func TestBroadcaster_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := New(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.SubscribeSafety(func(domain.SafetyResult) {})
			for j := 0; j < 20; j++ {
				b.PublishSafety(domain.SafetyResult{})
			}
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
	b.Close()

	_, safety := b.Subscribers()
	assert.Equal(t, 0, safety)
}

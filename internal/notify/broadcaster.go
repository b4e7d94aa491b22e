package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/metrics"
)

// Broadcaster fans newly created detections out to every live listener.
// Each listener owns a buffered channel; Publish never blocks on a slow reader,
// it drops the record for that listener instead.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[uint64]chan platewatch.Detection
	nextID      uint64
	buffer      int

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Subscription is one registered listener, usually one HTTP connection.
type Subscription struct {
	ID uint64
	C  <-chan platewatch.Detection

	b    *Broadcaster
	once sync.Once
}

func NewBroadcaster(buffer int, log zerolog.Logger, m *metrics.Metrics) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{
		subscribers: make(map[uint64]chan platewatch.Detection),
		buffer:      buffer,
		log:         log,
		metrics:     m,
	}
}

// Subscribe registers a listener that receives every detection published
// from now until it is closed.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan platewatch.Detection, b.buffer)
	b.subscribers[id] = ch

	if b.metrics != nil {
		b.metrics.StreamSubscribers.Set(float64(len(b.subscribers)))
	}
	b.log.Debug().Uint64("subscriber_id", id).Int("subscribers", len(b.subscribers)).Msg("listener subscribed")

	return &Subscription{ID: id, C: ch, b: b}
}

// Unsubscribe removes a listener and closes its channel. Unknown or already
// removed ids are ignored.
func (b *Broadcaster) Unsubscribe(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return false
	}
	close(ch)
	delete(b.subscribers, id)

	if b.metrics != nil {
		b.metrics.StreamSubscribers.Set(float64(len(b.subscribers)))
	}
	b.log.Debug().Uint64("subscriber_id", id).Int("subscribers", len(b.subscribers)).Msg("listener unsubscribed")
	return true
}

// Publish delivers det to all current listeners and returns how many accepted it.
func (b *Broadcaster) Publish(det platewatch.Detection) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for id, ch := range b.subscribers {
		select {
		case ch <- det:
			delivered++
		default:
			if b.metrics != nil {
				b.metrics.StreamDropped.Inc()
			}
			b.log.Warn().
				Uint64("subscriber_id", id).
				Int64("detection_id", det.ID).
				Msg("listener buffer full, dropping detection")
		}
	}
	return delivered
}

// Count returns the number of registered listeners.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close unsubscribes the listener. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.Unsubscribe(s.ID)
	})
}

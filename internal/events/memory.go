package events

import (
	"context"
	"sync"

	"github.com/ibrahim-qi/sesh-app/internal/constants"
	"github.com/ibrahim-qi/sesh-app/internal/metrics"
	"github.com/rs/zerolog"
)

// MemoryBroker delivers events inside one process.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	logger zerolog.Logger
}

func NewMemoryBroker(logger zerolog.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn().
				Str("session_id", ev.SessionID).
				Str("kind", string(ev.Kind)).
				Msg("dropping event for slow subscriber")
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, sessionID string) (<-chan Event, error) {
	ch := make(chan Event, constants.SubscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	metrics.AddSubscribers(1)

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[sessionID], ch)
		if len(b.subs[sessionID]) == 0 {
			delete(b.subs, sessionID)
		}
		close(ch)
		b.mu.Unlock()
		metrics.AddSubscribers(-1)
	}()

	return ch, nil
}

func (b *MemoryBroker) subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

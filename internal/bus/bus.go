package bus

import (
	"log/slog"
	"sync"
	"time"

	"pagerbridge/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based event bus carrying new-message events
// from the Telegram listener to the inbound relay.
type InMemoryBus struct {
	events chan domain.Event
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		events: make(chan domain.Event, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event. Blocks up to 10 seconds if the bus is full
// instead of dropping immediately.
func (b *InMemoryBus) Publish(evt domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.events <- evt:
	default:
		b.logger.Warn("event bus full, waiting...", "peer_id", evt.PeerID, "message_id", evt.MessageID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.events <- evt:
			b.logger.Info("event delivered after wait", "peer_id", evt.PeerID)
		case <-timer.C:
			b.logger.Error("event dropped: bus full for 10s",
				"peer_id", evt.PeerID,
				"message_id", evt.MessageID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Event {
	return b.events
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

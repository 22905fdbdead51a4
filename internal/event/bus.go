package event

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Handler reacts to one event. Returned errors are logged by the bus and do
// not abort the publishing save.
type Handler func(ctx context.Context, evt Event) error

// Bus is a synchronous in-process publisher. Handlers run inline with the
// triggering save, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      zerolog.Logger
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, handler, evt)
	}
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event_type", evt.EventType()).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()

	if err := handler(ctx, evt); err != nil {
		b.log.Error().
			Err(err).
			Str("event_type", evt.EventType()).
			Msg("event handler failed")
	}
}

package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"offer-board/internal/metrics"
	"offer-board/internal/models"
)

// EventType represents the type of event.
type EventType string

const (
	// EventOfferCreated is emitted after an offer row is inserted.
	EventOfferCreated EventType = "offer.created"
	// EventOfferDeleted is emitted after an offer row is removed.
	EventOfferDeleted EventType = "offer.deleted"
)

// Event is a single offer lifecycle notification.
type Event struct {
	ID        uuid.UUID    `json:"id"`
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Offer     models.Offer `json:"offer"`
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager fans events out to subscribed handlers. Handlers run on their own
// goroutines; their errors are logged and never reach the publisher.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewManager creates a new event manager.
func NewManager(enabled bool, logger *slog.Logger) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		logger:   logger,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// SubscribeAll subscribes a handler to every offer event type.
func (m *Manager) SubscribeAll(handler Handler) {
	m.Subscribe(EventOfferCreated, handler)
	m.Subscribe(EventOfferDeleted, handler)
}

// Publish delivers an event to all handlers of its type. The request
// context's values are kept but its cancellation is not, so handlers
// outlive the request that triggered them.
func (m *Manager) Publish(ctx context.Context, eventType EventType, offer models.Offer) {
	m.mu.RLock()
	if !m.enabled {
		m.mu.RUnlock()
		return
	}
	handlers := m.handlers[eventType]
	// Registered under the lock so Shutdown cannot start waiting between
	// the enabled check and the Add.
	m.wg.Add(len(handlers))
	m.mu.RUnlock()

	metrics.OfferEvents.WithLabelValues(string(eventType)).Inc()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Offer:     offer,
	}
	ctx = context.WithoutCancel(ctx)

	for _, handler := range handlers {
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(ctx, event); err != nil {
				m.logger.Warn("event handler failed",
					"event_id", event.ID,
					"event_type", event.Type,
					"offer_id", event.Offer.ID,
					"error", err,
				)
			}
		}(handler)
	}
}

// PublishOfferCreated publishes an offer created event.
func (m *Manager) PublishOfferCreated(ctx context.Context, offer models.Offer) {
	m.Publish(ctx, EventOfferCreated, offer)
}

// PublishOfferDeleted publishes an offer deleted event.
func (m *Manager) PublishOfferDeleted(ctx context.Context, offer models.Offer) {
	m.Publish(ctx, EventOfferDeleted, offer)
}

// Wait blocks until all in-flight handlers have returned. Callers that
// publish and then need the side effects, such as tests in other packages,
// use it; Shutdown waits the same way.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown stops accepting events, drops all subscriptions and waits for
// running handlers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.Wait()
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-board/internal/logging"
	"offer-board/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestManager_PublishesToSubscribers(t *testing.T) {
	m := NewManager(true, logging.Discard())
	rec := &recorder{}
	m.Subscribe(EventOfferCreated, rec.handle)

	m.PublishOfferCreated(context.Background(), models.Offer{ID: 7, Title: "Go Developer"})
	m.PublishOfferDeleted(context.Background(), models.Offer{ID: 7})
	m.Wait()

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, EventOfferCreated, got[0].Type)
	assert.Equal(t, int64(7), got[0].Offer.ID)
	assert.NotEmpty(t, got[0].ID.String())
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestManager_SubscribeAll(t *testing.T) {
	m := NewManager(true, logging.Discard())
	rec := &recorder{}
	m.SubscribeAll(rec.handle)

	m.PublishOfferCreated(context.Background(), models.Offer{ID: 1})
	m.PublishOfferDeleted(context.Background(), models.Offer{ID: 1})
	m.Wait()

	assert.Len(t, rec.snapshot(), 2)
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(false, logging.Discard())
	rec := &recorder{}
	m.SubscribeAll(rec.handle)

	m.PublishOfferCreated(context.Background(), models.Offer{ID: 1})
	m.Wait()

	assert.Empty(t, rec.snapshot())
}

func TestManager_HandlerOutlivesCanceledContext(t *testing.T) {
	m := NewManager(true, logging.Discard())

	errCh := make(chan error, 1)
	m.Subscribe(EventOfferDeleted, func(ctx context.Context, e Event) error {
		errCh <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.PublishOfferDeleted(ctx, models.Offer{ID: 3})
	m.Wait()

	assert.NoError(t, <-errCh)
}

func TestManager_HandlerErrorsDoNotPropagate(t *testing.T) {
	m := NewManager(true, logging.Discard())
	m.Subscribe(EventOfferCreated, func(context.Context, Event) error {
		return errors.New("boom")
	})

	m.PublishOfferCreated(context.Background(), models.Offer{ID: 1})
	m.Shutdown()
}

func TestManager_ShutdownDropsSubscribers(t *testing.T) {
	m := NewManager(true, logging.Discard())
	rec := &recorder{}
	m.SubscribeAll(rec.handle)
	m.Shutdown()

	m.PublishOfferCreated(context.Background(), models.Offer{ID: 1})
	m.Wait()
	assert.Empty(t, rec.snapshot())
}

func TestManager_ShutdownWaitsForConcurrentPublishes(t *testing.T) {
	m := NewManager(true, logging.Discard())

	var inFlight, handled atomic.Int64
	m.SubscribeAll(func(context.Context, Event) error {
		inFlight.Add(1)
		defer inFlight.Add(-1)
		time.Sleep(time.Millisecond)
		handled.Add(1)
		return nil
	})

	var publishers sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					m.PublishOfferCreated(context.Background(), models.Offer{ID: 1})
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	m.Shutdown()
	assert.Zero(t, inFlight.Load())
	after := handled.Load()

	close(stop)
	publishers.Wait()
	m.Wait()
	assert.Equal(t, after, handled.Load())
}

func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("OFFERS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("OFFERS_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, err := NewRedisPublisher(ctx, addr, "", 0, "offers.events.test")
	require.NoError(t, err)
	defer pub.Close()

	sub := pub.subscribe(ctx)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	event := Event{Type: EventOfferCreated, Offer: models.Offer{ID: 42, Title: "Platform Engineer"}}
	require.NoError(t, pub.Handle(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, EventOfferCreated, got.Type)
	assert.Equal(t, int64(42), got.Offer.ID)
}

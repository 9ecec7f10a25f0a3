package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

type published struct {
	key     []byte
	value   []byte
	headers []kafka.Header
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{key, value, headers})
	return nil
}

func TestService_SendRecordsAndQueues(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := &Service{Store: NewMemoryStore(), Producer: pub, ServiceName: "notifier", Log: zap.NewNop()}

	e, err := svc.Send(ctx, "101", "Order placed: Veg Burger", "")
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)

	hist, err := svc.History(ctx, "101")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "Order placed: Veg Burger", hist[0].Message)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, []byte("101"), pub.msgs[0].key)
	env, err := kafkax.UnmarshalEnvelope(pub.msgs[0].value)
	require.NoError(t, err)
	assert.Equal(t, EventNotificationRequested, env.EventType)
	assert.Equal(t, e.ID, env.CorrelationID)
	p, err := kafkax.UnwrapPayload[NotificationRequestedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "101", p.UserID)
}

func TestService_QueueFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	svc := &Service{
		Store:    NewMemoryStore(),
		Producer: &fakePublisher{err: kafkax.ErrProducerClosed},
		Log:      zap.NewNop(),
	}
	_, err := svc.Send(ctx, "101", "hi", "")
	require.NoError(t, err)
	hist, _ := svc.History(ctx, "101")
	assert.Len(t, hist, 1)

	_, err = svc.Send(ctx, "", "hi", "")
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestService_RepeatedKeyDeliveredOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()

	store := NewMemoryStore()
	pub := &fakePublisher{}
	svc := &Service{Store: store, Producer: pub, Redis: rdb, ServiceName: "notifier", Log: zap.NewNop()}
	ctx := context.Background()

	_, err := svc.Send(ctx, "101", "Order placed successfully for Veg Burger", "order-1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "101", "Order placed successfully for Veg Burger", "order-1")
	assert.ErrorIs(t, err, ErrDuplicate)

	delivered := 0
	d := &Dispatcher{
		Redis:       rdb,
		ServiceName: "notifier",
		Log:         zap.NewNop(),
		Deliver: func(context.Context, NotificationRequestedPayload) error {
			delivered++
			return nil
		},
	}
	for _, m := range pub.msgs {
		require.NoError(t, d.HandleMessage(ctx, kafka.Message{Key: m.key, Value: m.value}))
	}
	hist, _ := svc.History(ctx, "101")
	assert.Len(t, hist, 1)
	assert.Equal(t, 1, delivered)

	_, err = svc.Send(ctx, "101", "Order placed successfully for Veg Burger", "order-2")
	require.NoError(t, err, "another order is another notification")
}

func TestService_KeyedSendWithoutRedisDedupsAtDispatcher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()

	pub := &fakePublisher{}
	svc := &Service{Store: NewMemoryStore(), Producer: pub, ServiceName: "notifier", Log: zap.NewNop()}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.Send(ctx, "101", "Order placed successfully for Veg Burger", "order-1")
		require.NoError(t, err)
	}
	require.Len(t, pub.msgs, 2)

	delivered := 0
	d := &Dispatcher{
		Redis:       rdb,
		ServiceName: "notifier",
		Log:         zap.NewNop(),
		Deliver: func(context.Context, NotificationRequestedPayload) error {
			delivered++
			return nil
		},
	}
	for _, m := range pub.msgs {
		require.NoError(t, d.HandleMessage(ctx, kafka.Message{Value: m.value}))
	}
	assert.Equal(t, 1, delivered)
}

func TestService_FailedAppendReleasesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()

	svc := &Service{Store: NewMemoryStore(), Redis: rdb, Log: zap.NewNop()}
	ctx := context.Background()

	_, err := svc.Send(ctx, "", "hi", "order-1")
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.False(t, mr.Exists("notify:sent::order-1"))
}

func requestedMessage(t *testing.T, userID, msg string) kafka.Message {
	t.Helper()
	env, err := kafkax.NewEnvelope(EventNotificationRequested, "notifier", "e-1",
		NotificationRequestedPayload{EntryID: "e-1", UserID: userID, Message: msg})
	require.NoError(t, err)
	return kafka.Message{Value: kafkax.MustMarshal(env)}
}

func TestDispatcher_DedupByEventID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()

	var delivered []NotificationRequestedPayload
	d := &Dispatcher{
		Redis:       rdb,
		ServiceName: "notifier",
		Log:         zap.NewNop(),
		Deliver: func(_ context.Context, p NotificationRequestedPayload) error {
			delivered = append(delivered, p)
			return nil
		},
	}
	ctx := context.Background()
	m := requestedMessage(t, "101", "hello")

	require.NoError(t, d.HandleMessage(ctx, m))
	require.NoError(t, d.HandleMessage(ctx, m))
	assert.Len(t, delivered, 1)

	require.NoError(t, d.HandleMessage(ctx, requestedMessage(t, "101", "hello")))
	assert.Len(t, delivered, 2, "a fresh event id is a new delivery")
}

func TestDispatcher_FailedDeliveryReleasesClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()

	fail := true
	calls := 0
	d := &Dispatcher{
		Redis:       rdb,
		ServiceName: "notifier",
		Log:         zap.NewNop(),
		Deliver: func(context.Context, NotificationRequestedPayload) error {
			calls++
			if fail {
				return errors.New("smtp down")
			}
			return nil
		},
	}
	ctx := context.Background()
	m := requestedMessage(t, "101", "hello")

	assert.Error(t, d.HandleMessage(ctx, m))
	fail = false
	require.NoError(t, d.HandleMessage(ctx, m))
	assert.Equal(t, 2, calls)
}

func TestDispatcher_IgnoresOtherEventsAndBadJSON(t *testing.T) {
	d := &Dispatcher{Log: zap.NewNop()}
	ctx := context.Background()

	env, err := kafkax.NewEnvelope("OrderPlaced", "api", "o-1", map[string]string{"order_id": "o-1"})
	require.NoError(t, err)
	assert.NoError(t, d.HandleMessage(ctx, kafka.Message{Value: kafkax.MustMarshal(env)}))

	assert.Error(t, d.HandleMessage(ctx, kafka.Message{Value: []byte("{")}))

	// no Redis: log-only delivery
	assert.NoError(t, d.HandleMessage(ctx, requestedMessage(t, "101", "hi")))
}

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notify/send", r.URL.Path)
		if r.URL.Query().Get("user") == "down" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "Order placed: Veg Burger", r.URL.Query().Get("message"))
		assert.Equal(t, "o-1", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status":"SENT"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, "101", "Order placed: Veg Burger", "o-1"))
	assert.ErrorIs(t, c.Send(ctx, "down", "x", ""), ErrUnavailable)

	srv.Close()
	assert.ErrorIs(t, c.Send(ctx, "101", "x", ""), ErrUnavailable)
}

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "order.placed", 8, zap.NewNop())
	p.Start()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(context.Background(), []byte(k), []byte("v")))
	}
	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "a", string(w.msgs[0].Key))
	assert.True(t, w.closed)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p := newProducer(&fakeWriter{}, "t", 1, zap.NewNop())
	p.Start()
	p.Close()
	p.Close()
	p.WaitClosed()

	err := p.Publish(context.Background(), nil, []byte("v"))
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducer_PublishRespectsContext(t *testing.T) {
	// not started: the inbox fills and stays full
	p := newProducer(&fakeWriter{}, "t", 1, zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), nil, []byte("1")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Publish(ctx, nil, []byte("2"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestConsumer_FailedMessageSkippedByLaterCommit(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	c := newConsumer(r, 2, zap.NewNop())

	var mu sync.Mutex
	seen := 0
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(_ context.Context, m kafka.Message) error {
			mu.Lock()
			seen++
			n := seen
			mu.Unlock()
			if n == 3 {
				defer cancel()
			}
			if m.Offset == 2 {
				return errors.New("boom")
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.NotContains(t, r.committed, int64(2))
	assert.Contains(t, r.committed, int64(3), "a later success still commits past the failure")
	assert.True(t, r.closed)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
	}
	env, err := NewEnvelope("OrderPlaced", "api", "o-1", payload{OrderID: "o-1"})
	require.NoError(t, err)
	require.NotEmpty(t, env.EventID)

	decoded, err := UnmarshalEnvelope(MustMarshal(env))
	require.NoError(t, err)
	p, err := UnwrapPayload[payload](decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, "o-1", p.OrderID)
	assert.Equal(t, "OrderPlaced", string(env.Headers()[0].Value))
}

package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

func confirmed(user, item string, amount int64) Record {
	return Record{
		UserID:   user,
		ItemID:   item,
		ItemName: "Veg Burger",
		Amount:   decimal.NewFromInt(amount),
		Status:   StatusConfirmed,
	}
}

func stepClock(start time.Time, step time.Duration) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestRecord_Validate(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"confirmed", confirmed("101", "1", 50), true},
		{"failed status", Record{UserID: "101", ItemID: "1", Status: StatusFailed}, true},
		{"missing user", Record{ItemID: "1", Status: StatusConfirmed}, false},
		{"bad status", Record{UserID: "101", ItemID: "1", Status: "PAID"}, false},
		{"negative amount", Record{UserID: "101", ItemID: "1", Status: StatusConfirmed, Amount: decimal.NewFromInt(-1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			}
		})
	}
}

func TestMemoryLog_AppendAssignsIDAndTime(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	a, err := l.Append(ctx, confirmed("101", "1", 50))
	require.NoError(t, err)
	b, err := l.Append(ctx, confirmed("101", "1", 50))
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := l.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Append(ctx, Record{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, 2, l.Len())
}

func TestMemoryLog_FindByUserNewestFirst(t *testing.T) {
	l := NewMemoryLog()
	l.now = stepClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.Minute)
	ctx := context.Background()

	first, _ := l.Append(ctx, confirmed("101", "1", 50))
	_, _ = l.Append(ctx, confirmed("102", "3", 15))
	second, _ := l.Append(ctx, confirmed("101", "2", 80))

	got, err := l.FindByUser(ctx, "101")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	none, err := l.FindByUser(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestMemoryLog_EqualTimestampsKeepLatestFirst(t *testing.T) {
	l := NewMemoryLog()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	a, _ := l.Append(ctx, confirmed("101", "1", 50))
	b, _ := l.Append(ctx, confirmed("101", "2", 80))

	got, err := l.FindByUser(ctx, "101")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestCachedLog(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()
	ctx := context.Background()

	inner := NewMemoryLog()
	c := NewCachedLog(inner, rdb, zap.NewNop())

	_, err := c.Append(ctx, confirmed("101", "1", 50))
	require.NoError(t, err)

	got, err := c.FindByUser(ctx, "101")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, mr.Exists("order_history:101"))

	// served from cache: an append that bypasses the decorator is not seen
	_, err = inner.Append(ctx, confirmed("101", "2", 80))
	require.NoError(t, err)
	got, err = c.FindByUser(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// appending through the decorator invalidates
	_, err = c.Append(ctx, confirmed("101", "3", 15))
	require.NoError(t, err)
	assert.False(t, mr.Exists("order_history:101"))
	got, err = c.FindByUser(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.True(t, decimal.NewFromInt(50).Equal(got[2].Amount))
}

// pausingLog holds its first snapshot until release is closed.
type pausingLog struct {
	*MemoryLog
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (l *pausingLog) FindByUser(ctx context.Context, userID string) ([]Record, error) {
	out, err := l.MemoryLog.FindByUser(ctx, userID)
	l.once.Do(func() {
		close(l.read)
		<-l.release
	})
	return out, err
}

func TestCachedLog_AppendDuringReadIsNotMasked(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()
	ctx := context.Background()

	inner := &pausingLog{MemoryLog: NewMemoryLog(), read: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedLog(inner, rdb, zap.NewNop())

	done := make(chan []Record)
	go func() {
		got, err := c.FindByUser(ctx, "101")
		assert.NoError(t, err)
		done <- got
	}()

	<-inner.read
	_, err := c.Append(ctx, confirmed("101", "1", 50))
	require.NoError(t, err)
	close(inner.release)

	assert.Empty(t, <-done, "the in-flight read saw the old snapshot")
	assert.False(t, mr.Exists("order_history:101"), "stale snapshot must not be cached")

	got, err := c.FindByUser(ctx, "101")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusConfirmed, got[0].Status)
	assert.True(t, mr.Exists("order_history:101"))
}

func TestCachedLog_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr())
	defer rdb.Close()
	ctx := context.Background()

	c := NewCachedLog(NewMemoryLog(), rdb, zap.NewNop())
	mr.Close()

	_, err := c.Append(ctx, confirmed("101", "1", 50))
	require.NoError(t, err)
	got, err := c.FindByUser(ctx, "101")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPlacedPayload(t *testing.T) {
	r := confirmed("101", "1", 50)
	r.ID = "o-1"
	p := PlacedPayload(r)
	assert.Equal(t, "o-1", p.OrderID)
	assert.Equal(t, "Veg Burger", p.ItemName)
	assert.Equal(t, []byte("101"), PartitionKey(r.UserID))
}

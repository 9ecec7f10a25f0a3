package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/observability"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

// Dispatcher drains TopicOutbound. Delivery is a structured log line; the
// channel behind it is out of scope.
type Dispatcher struct {
	Redis       *redis.Client // nil: no dedup
	ServiceName string
	Log         *zap.Logger
	// Deliver overrides the log-only delivery.
	Deliver func(ctx context.Context, p NotificationRequestedPayload) error
}

// HandleMessage is installed as the consumer handler. An event id already
// seen within redisx.TTLDedup is acknowledged without delivering again.
func (d *Dispatcher) HandleMessage(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != EventNotificationRequested {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, d.ServiceName, env.EventID)
	if d.Redis != nil {
		won, err := redisx.Claim(ctx, d.Redis, dkey, redisx.TTLDedup)
		if err != nil {
			d.Log.Warn("dedup claim failed, delivering anyway", zap.String("event_id", env.EventID), zap.Error(err))
		} else if !won {
			d.Log.Debug("duplicate notification skipped", zap.String("event_id", env.EventID))
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[NotificationRequestedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := d.deliver(ctx, p); err != nil {
		if d.Redis != nil {
			// release the claim so a redelivery can try again
			_ = d.Redis.Del(ctx, dkey).Err()
		}
		return err
	}
	observability.NotificationsDelivered.Inc()
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, p NotificationRequestedPayload) error {
	if d.Deliver != nil {
		return d.Deliver(ctx, p)
	}
	d.Log.Info("notification delivered",
		zap.String("entry_id", p.EntryID),
		zap.String("user_id", p.UserID),
		zap.String("message", p.Message))
	return nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

// Service records every notification and, when a Publisher is set, queues it
// for delivery on TopicOutbound.
type Service struct {
	Store       Store
	Producer    kafkax.Publisher // nil: record only
	Redis       *redis.Client    // nil: keys only dedup at the dispatcher
	ServiceName string
	Log         *zap.Logger
}

// Send records and queues message. A send carrying a key already accepted
// within redisx.TTLDedup returns ErrDuplicate without recording anything.
func (s *Service) Send(ctx context.Context, userID, message, key string) (Entry, error) {
	var claim string
	if key != "" && s.Redis != nil {
		claim = fmt.Sprintf(redisx.KeyNotifySent, userID, key)
		won, err := redisx.Claim(ctx, s.Redis, claim, redisx.TTLDedup)
		switch {
		case err != nil:
			s.Log.Warn("notify key claim failed, sending anyway", zap.String("key", key), zap.Error(err))
			claim = ""
		case !won:
			return Entry{}, ErrDuplicate
		}
	}

	e, err := s.Store.Append(ctx, userID, message)
	if err != nil {
		if claim != "" {
			_ = s.Redis.Del(context.WithoutCancel(ctx), claim).Err()
		}
		return Entry{}, err
	}
	if s.Producer == nil {
		s.Log.Info("notification", zap.String("user_id", userID), zap.String("message", message))
		return e, nil
	}

	env, err := kafkax.NewEnvelope(EventNotificationRequested, s.ServiceName, e.ID,
		NotificationRequestedPayload{EntryID: e.ID, UserID: userID, Message: message})
	if err != nil {
		return Entry{}, err
	}
	if key != "" {
		env.EventID = eventIDForKey(userID, key)
	}
	// The entry is already recorded; a full queue is logged, not returned.
	if err := s.Producer.Publish(ctx, []byte(userID), kafkax.MustMarshal(env), env.Headers()...); err != nil {
		s.Log.Warn("queue notification failed", zap.String("entry_id", e.ID), zap.Error(err))
	}
	return e, nil
}

// eventIDForKey is stable per (user, key), so repeats collapse in the
// dispatcher even when they were recorded twice.
func eventIDForKey(userID, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("notify/"+userID+"/"+key)).String()
}

func (s *Service) History(ctx context.Context, userID string) ([]Entry, error) {
	return s.Store.FindByUser(ctx, userID)
}

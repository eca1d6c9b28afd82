package redis

import (
	"context"
	"errors"
	"time"

	"asd-screening-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SignalStore keeps one-shot auto-start signals in Redis so a signal set
// by one instance is honoured by whichever instance the user lands on.
type SignalStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSignalStore(client *redis.Client, ttl time.Duration) *SignalStore {
	return &SignalStore{client: client, ttl: ttl}
}

func (s *SignalStore) Set(ctx context.Context, userID string, kind domain.ActivityKind) error {
	return s.client.Set(ctx, s.key(userID, kind), "1", s.ttl).Err()
}

// Consume uses GETDEL so concurrent mounts cannot both see the signal.
func (s *SignalStore) Consume(ctx context.Context, userID string, kind domain.ActivityKind) (bool, error) {
	err := s.client.GetDel(ctx, s.key(userID, kind)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SignalStore) key(userID string, kind domain.ActivityKind) string {
	return "game:autostart:" + userID + ":" + string(kind)
}

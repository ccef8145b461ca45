package eventsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fireclub/vsearch/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// queueKey is the single-consumer FIFO list events are pushed onto
// (RPUSH by the producer, LPOP by this consumer).
const queueKey = "events:queue"

// RedisSource polls a Redis list for JSON-encoded events. It is a
// single-consumer FIFO queue: producers RPUSH onto the tail, this Poll
// LPOPs from the head, so events are consumed in the order they were
// pushed. Poll is a non-blocking LPOP per call, matching the dispatcher's
// own poll-and-sleep loop rather than a blocking BLPOP, so the dispatcher's
// sleep/backoff policy (§4.5) stays in one place.
type RedisSource struct {
	client *redisx.Client
	log    *zap.Logger
}

// NewRedisSource builds a RedisSource against addr/db.
func NewRedisSource(addr string, db int, log *zap.Logger) *RedisSource {
	log = log.Named("eventsource")
	return &RedisSource{
		client: redisx.NewClient(addr, db, log),
		log:    log,
	}
}

// Poll pops the oldest queued event, or returns (nil, nil) if the queue is
// empty.
func (s *RedisSource) Poll(ctx context.Context) (*Event, error) {
	raw, err := s.client.LPop(ctx, queueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventsource: lpop: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("eventsource: unmarshal event: %w", err)
	}
	return &ev, nil
}

// Push enqueues ev at the tail. Used by producers/tests/seed tooling, not by
// the dispatcher itself.
func (s *RedisSource) Push(ctx context.Context, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventsource: marshal event: %w", err)
	}
	return s.client.RPush(ctx, queueKey, payload).Err()
}

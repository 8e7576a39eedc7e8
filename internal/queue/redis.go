package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue backs the Queue contract with a Redis list, so the intake API
// and the worker pool can run as separate processes. BLPOP pops each id to
// exactly one consumer.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// RedisOptions configures the Redis connection and the list key.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	PollTimeout time.Duration
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, opts RedisOptions) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &RedisQueue{client: client, key: opts.Key, pollTimeout: pollTimeout}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.client.RPush(ctx, q.key, jobID).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

// Dequeue polls with a bounded BLPOP so ctx cancellation is observed
// between polls even on an idle queue.
func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("dequeue: %w", err)
		}
		if len(res) < 2 {
			continue
		}
		return res[1], nil
	}
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

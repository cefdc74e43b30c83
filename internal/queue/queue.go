// Package queue implements the durable operation queue on a Redis list.
// Delivery is at-least-once: BLPOP hands each element to exactly one
// consumer, but a consumer crashing after the pop loses that message unless
// the dead-letter policy catches it first.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding pending operations.
const DefaultKey = "operation_queue"

// deadLetterSuffix names the companion list for undeliverable payloads.
const deadLetterSuffix = ":dead"

// ErrMalformedMessage reports a payload that could not be decoded; the raw
// payload has already been moved to the dead-letter list.
var ErrMalformedMessage = errors.New("malformed queue message")

// Message is the wire form of a deferred operation. Amount is a decimal
// string to preserve fixed-point precision across the wire.
type Message struct {
	WalletUUID    string    `json:"wallet_uuid"`
	OperationType string    `json:"operation_type"`
	Amount        string    `json:"amount"`
	EnqueuedAt    time.Time `json:"enqueued_at,omitempty"`
}

// Queue is a FIFO operation channel on a Redis list. A single Queue value
// is safe for concurrent producers and consumers.
type Queue struct {
	client *redis.Client
	key    string

	// blockTimeout bounds each BLPOP so consumers notice context
	// cancellation between polls.
	blockTimeout time.Duration
}

// New builds a queue over the shared Redis client. An empty key selects
// DefaultKey.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key, blockTimeout: time.Second}
}

// Key returns the Redis list key in use.
func (q *Queue) Key() string {
	return q.key
}

// Enqueue appends the message. The producer blocks only for the append
// round trip; an error means the message was not made durable and must be
// surfaced, never swallowed.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a message is available or the context is cancelled.
// Each element is delivered to exactly one caller. A payload that fails to
// decode is moved to the dead-letter list and reported as
// ErrMalformedMessage; the consumer loop should log and continue.
func (q *Queue) Dequeue(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		vals, err := q.client.BLPop(ctx, q.blockTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Message{}, ctxErr
			}
			return Message{}, fmt.Errorf("dequeue: %w", err)
		}

		// BLPop returns [key, value].
		raw := vals[1]
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			if dlErr := q.DeadLetter(ctx, raw); dlErr != nil {
				return Message{}, fmt.Errorf("%w: %v (dead-letter failed: %v)", ErrMalformedMessage, err, dlErr)
			}
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return msg, nil
	}
}

// DeadLetter appends a raw payload to the dead-letter list so failed
// messages stay inspectable instead of vanishing.
func (q *Queue) DeadLetter(ctx context.Context, payload string) error {
	if err := q.client.RPush(ctx, q.key+deadLetterSuffix, payload).Err(); err != nil {
		return fmt.Errorf("dead-letter: %w", err)
	}
	return nil
}

// DeadLetterKey returns the dead-letter list key.
func (q *Queue) DeadLetterKey() string {
	return q.key + deadLetterSuffix
}

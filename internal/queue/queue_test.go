package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	q := New(client, "")
	q.blockTimeout = 50 * time.Millisecond
	return q, mr
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	ctx := context.Background()
	q, _ := setupQueue(t)

	first := Message{WalletUUID: "a", OperationType: "DEPOSIT", Amount: "10.00"}
	second := Message{WalletUUID: "b", OperationType: "WITHDRAW", Amount: "5.00"}

	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue first: %v", err)
	}
	if got.WalletUUID != "a" || got.OperationType != "DEPOSIT" || got.Amount != "10.00" {
		t.Fatalf("unexpected first message: %+v", got)
	}
	if got.EnqueuedAt.IsZero() {
		t.Fatal("expected EnqueuedAt to be stamped on enqueue")
	}

	got, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue second: %v", err)
	}
	if got.WalletUUID != "b" {
		t.Fatalf("expected FIFO order, got %+v", got)
	}
}

func TestDequeueMalformedGoesToDeadLetter(t *testing.T) {
	ctx := context.Background()
	q, mr := setupQueue(t)

	if _, err := mr.Push(q.Key(), "{not json"); err != nil {
		t.Fatalf("push raw: %v", err)
	}

	_, err := q.Dequeue(ctx)
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}

	dead, err := mr.List(q.DeadLetterKey())
	if err != nil {
		t.Fatalf("read dead-letter list: %v", err)
	}
	if len(dead) != 1 || dead[0] != "{not json" {
		t.Fatalf("expected raw payload in dead-letter list, got %v", dead)
	}
}

func TestDequeueStopsOnContextCancel(t *testing.T) {
	q, _ := setupQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not observe cancellation")
	}
}

func TestDefaultKey(t *testing.T) {
	q, _ := setupQueue(t)
	if q.Key() != "operation_queue" {
		t.Fatalf("expected default key operation_queue, got %s", q.Key())
	}
	if q.DeadLetterKey() != "operation_queue:dead" {
		t.Fatalf("unexpected dead-letter key %s", q.DeadLetterKey())
	}
}

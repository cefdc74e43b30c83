// Package worker drains the operation queue through the ledger engine.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/ledger"
	"github.com/walletd/walletd/internal/queue"
)

// Options tunes pool behaviour.
type Options struct {
	// Size is the number of concurrent consumers. Values < 1 become 1.
	Size int
	// DeadLetter moves failed messages to the dead-letter list instead of
	// dropping them outright. Either way a failure is terminal for the
	// message: there is no automatic retry.
	DeadLetter bool
}

// Pool runs independent workers, each looping dequeue -> decode -> apply.
// No single message failure is fatal; workers log the typed error and move
// on. Cancelling the context stops dequeuing, lets in-flight store round
// trips finish and then returns from Run.
type Pool struct {
	queue      *queue.Queue
	engine     *ledger.Engine
	logger     *slog.Logger
	size       int
	deadLetter bool
}

// New constructs a pool over the queue and engine.
func New(q *queue.Queue, engine *ledger.Engine, logger *slog.Logger, opts Options) *Pool {
	size := opts.Size
	if size < 1 {
		size = 1
	}
	return &Pool{
		queue:      q,
		engine:     engine,
		logger:     logger,
		size:       size,
		deadLetter: opts.DeadLetter,
	}
}

// Run blocks until the context is cancelled and every worker has exited.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	log := p.logger.With(slog.Int("worker", id))
	log.Info("worker started, waiting for operations")

	for {
		msg, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return
			}
			if errors.Is(err, queue.ErrMalformedMessage) {
				log.Warn("dropped malformed message", slog.Any("error", err))
				continue
			}
			log.Error("dequeue failed", slog.Any("error", err))
			continue
		}

		p.process(ctx, log, msg)
	}
}

// process applies a single message. Decode failures and engine failures are
// terminal for the message: logged, optionally dead-lettered, never retried.
func (p *Pool) process(ctx context.Context, log *slog.Logger, msg queue.Message) {
	log = log.With(
		slog.String("wallet", msg.WalletUUID),
		slog.String("operation", msg.OperationType),
		slog.String("amount", msg.Amount),
	)

	op, err := decode(msg)
	if err != nil {
		log.Warn("rejected queue message", slog.Any("error", err))
		p.bury(ctx, log, msg)
		return
	}

	newBalance, err := p.engine.Apply(ctx, op)
	if err != nil {
		log.Warn("operation failed", slog.Any("error", err))
		p.bury(ctx, log, msg)
		return
	}

	log.Info("operation applied", slog.String("new_balance", newBalance.StringFixed(2)))
}

func (p *Pool) bury(ctx context.Context, log *slog.Logger, msg queue.Message) {
	if !p.deadLetter {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("encode dead-letter payload", slog.Any("error", err))
		return
	}
	if err := p.queue.DeadLetter(ctx, string(payload)); err != nil {
		log.Error("dead-letter failed", slog.Any("error", err))
	}
}

// decode resolves the wire message into a typed operation: uuid parse, kind
// enumeration check, fixed-point amount parse.
func decode(msg queue.Message) (ledger.Operation, error) {
	id, err := uuid.Parse(msg.WalletUUID)
	if err != nil {
		return ledger.Operation{}, err
	}
	kind, err := ledger.ParseOperationType(msg.OperationType)
	if err != nil {
		return ledger.Operation{}, err
	}
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return ledger.Operation{}, err
	}
	return ledger.Operation{
		WalletUUID: id,
		Type:       kind,
		Amount:     amount,
		EnqueuedAt: msg.EnqueuedAt,
	}, nil
}

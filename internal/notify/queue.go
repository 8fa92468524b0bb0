package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// QueueNotify is the Redis list notification jobs are pushed to.
	QueueNotify = "jobs:notify"
	// DLQPrefix prefixes the dead letter list of a queue.
	DLQPrefix = "dlq:"
)

type job struct {
	Event    Event `json:"event"`
	Attempts int   `json:"attempts"`
}

// DLQEntry wraps a job that could not be delivered.
type DLQEntry struct {
	Queue    string          `json:"queue"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	FailedAt string          `json:"failed_at"`
	Attempts int             `json:"attempts"`
}

// QueueNotifier enqueues events into a Redis list for the worker pool.
type QueueNotifier struct {
	rdb   redis.Cmdable
	queue string
}

// NewQueueNotifier pushes onto QueueNotify.
func NewQueueNotifier(rdb redis.Cmdable) *QueueNotifier {
	return &QueueNotifier{rdb: rdb, queue: QueueNotify}
}

func (n *QueueNotifier) Notify(ctx context.Context, e Event) error {
	data, err := json.Marshal(job{Event: e})
	if err != nil {
		return err
	}
	return n.rdb.LPush(ctx, n.queue, data).Err()
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Worker consumes notification jobs and hands them to a Sender. Jobs failing
// MaxAttempts times are moved to the dead letter list.
type Worker struct {
	rdb         redis.Cmdable
	sender      Sender
	logger      zerolog.Logger
	queue       string
	MaxAttempts int
	PollTimeout time.Duration
}

// NewWorker returns a Worker reading QueueNotify with three attempts per job.
func NewWorker(rdb redis.Cmdable, sender Sender, logger zerolog.Logger) *Worker {
	return &Worker{
		rdb:         rdb,
		sender:      sender,
		logger:      logger,
		queue:       QueueNotify,
		MaxAttempts: 3,
		PollTimeout: 5 * time.Second,
	}
}

// Run starts n consumers and blocks until ctx is done and all of them returned.
func (w *Worker) Run(ctx context.Context, n int) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	w.logger.Info().Int("workers", n).Msg("notification workers started")
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker", id).Msg("notification worker stopped")
			return
		default:
		}
		// BRPOP waits up to PollTimeout, then we loop to check ctx
		result, err := w.rdb.BRPop(ctx, w.PollTimeout, w.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				w.logger.Error().Err(err).Int("worker", id).Msg("brpop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		w.process(ctx, result[1])
	}
}

func (w *Worker) process(ctx context.Context, raw string) {
	var j job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		w.deadLetter(ctx, json.RawMessage(raw), "invalid payload: "+err.Error(), 0)
		return
	}
	m := Format(j.Event)
	if m.To == "" {
		w.logger.Warn().Str("kind", string(j.Event.Kind)).Msg("notification without recipient email, skipping")
		return
	}
	err := w.sender.Send(ctx, m)
	if err == nil {
		w.logger.Info().Str("kind", string(j.Event.Kind)).Str("to", m.To).Msg("notification sent")
		return
	}

	j.Attempts++
	if j.Attempts >= w.MaxAttempts {
		payload, _ := json.Marshal(j)
		w.deadLetter(ctx, payload, err.Error(), j.Attempts)
		return
	}
	w.logger.Warn().Err(err).Int("attempts", j.Attempts).Msg("notification failed, requeueing")
	data, _ := json.Marshal(j)
	if err := w.rdb.LPush(ctx, w.queue, data).Err(); err != nil {
		w.logger.Error().Err(err).Msg("requeue failed")
	}
}

func (w *Worker) deadLetter(ctx context.Context, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		Queue:    w.queue,
		Payload:  payload,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
		Attempts: attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		w.logger.Error().Err(err).Msg("dlq: marshal entry")
		return
	}
	if err := w.rdb.LPush(ctx, DLQPrefix+w.queue, data).Err(); err != nil {
		w.logger.Error().Err(err).Msg("dlq: push failed")
		return
	}
	w.logger.Warn().Str("reason", reason).Int("attempts", attempts).Msg("notification moved to dead letter queue")
}

// DLQLength returns the number of dead-lettered notification jobs.
func DLQLength(ctx context.Context, rdb redis.Cmdable) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+QueueNotify).Result()
}

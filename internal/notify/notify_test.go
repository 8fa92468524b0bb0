package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []Message
}

func (s *fakeSender) Send(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func acceptedEvent() Event {
	return Event{
		Kind:           QuoteAccepted,
		RecipientID:    uuid.New(),
		RecipientEmail: "sales@supplier.test",
		RFQID:          uuid.New(),
		RFQTitle:       "Office chairs",
		QuoteID:        uuid.New(),
		OrderID:        uuid.New(),
		PONumber:       "PO-2025-000007",
		OccurredAt:     time.Now().UTC(),
	}
}

func TestFormat(t *testing.T) {
	e := acceptedEvent()
	m := Format(e)
	require.Equal(t, "sales@supplier.test", m.To)
	require.Equal(t, "Quote accepted: PO-2025-000007", m.Subject)
	require.Contains(t, m.Body, e.QuoteID.String())
	require.Contains(t, m.Body, "PO-2025-000007")

	for _, k := range []Kind{QuoteSubmitted, QuoteRejected, OrderFulfilled, OrderCancelled, RFQInvited} {
		e.Kind = k
		m := Format(e)
		require.NotEmpty(t, m.Subject, k)
		require.NotEmpty(t, m.Body, k)
	}

	e.Kind = "something.else"
	require.Equal(t, "something.else", Format(e).Subject)
}

func TestQueueNotifierPushesJob(t *testing.T) {
	mr, rdb := newRedis(t)
	n := NewQueueNotifier(rdb)
	e := acceptedEvent()

	require.NoError(t, n.Notify(context.Background(), e))

	items, err := mr.List(QueueNotify)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var j job
	require.NoError(t, json.Unmarshal([]byte(items[0]), &j))
	require.Equal(t, 0, j.Attempts)
	require.Equal(t, e.PONumber, j.Event.PONumber)
	require.Equal(t, e.RecipientID, j.Event.RecipientID)
}

func encodeJob(t *testing.T, j job) string {
	t.Helper()
	data, err := json.Marshal(j)
	require.NoError(t, err)
	return string(data)
}

func TestWorkerDelivers(t *testing.T) {
	mr, rdb := newRedis(t)
	sender := &fakeSender{}
	w := NewWorker(rdb, sender, zerolog.Nop())

	w.process(context.Background(), encodeJob(t, job{Event: acceptedEvent()}))

	require.Equal(t, 1, sender.count())
	require.False(t, mr.Exists(QueueNotify))
	require.False(t, mr.Exists(DLQPrefix+QueueNotify))
}

func TestWorkerRequeuesThenDeadLetters(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("smtp: 421 try later")}
	w := NewWorker(rdb, sender, zerolog.Nop())

	raw := encodeJob(t, job{Event: acceptedEvent()})
	for attempt := 1; attempt < w.MaxAttempts; attempt++ {
		w.process(ctx, raw)
		items, err := mr.List(QueueNotify)
		require.NoError(t, err)
		require.Len(t, items, 1)

		var j job
		require.NoError(t, json.Unmarshal([]byte(items[0]), &j))
		require.Equal(t, attempt, j.Attempts)

		raw, err = rdb.RPop(ctx, QueueNotify).Result()
		require.NoError(t, err)
	}

	w.process(ctx, raw)
	require.False(t, mr.Exists(QueueNotify))

	n, err := DLQLength(ctx, rdb)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	items, err := mr.List(DLQPrefix + QueueNotify)
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(items[0]), &entry))
	require.Equal(t, QueueNotify, entry.Queue)
	require.Equal(t, w.MaxAttempts, entry.Attempts)
	require.Contains(t, entry.Reason, "421")
}

func TestWorkerDeadLettersInvalidPayload(t *testing.T) {
	_, rdb := newRedis(t)
	sender := &fakeSender{}
	w := NewWorker(rdb, sender, zerolog.Nop())

	w.process(context.Background(), "{not json")

	n, err := DLQLength(context.Background(), rdb)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Zero(t, sender.count())
}

func TestWorkerSkipsEventWithoutEmail(t *testing.T) {
	mr, rdb := newRedis(t)
	sender := &fakeSender{}
	w := NewWorker(rdb, sender, zerolog.Nop())

	e := acceptedEvent()
	e.RecipientEmail = ""
	w.process(context.Background(), encodeJob(t, job{Event: e}))

	require.Zero(t, sender.count())
	require.False(t, mr.Exists(DLQPrefix+QueueNotify))
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	_, rdb := newRedis(t)
	sender := &fakeSender{}
	w := NewWorker(rdb, sender, zerolog.Nop())
	w.PollTimeout = 100 * time.Millisecond

	n := NewQueueNotifier(rdb)
	require.NoError(t, n.Notify(context.Background(), acceptedEvent()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 2)
		close(done)
	}()

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

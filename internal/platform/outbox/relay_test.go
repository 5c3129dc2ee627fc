package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	seen []Event
	fail map[string]error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e Event) error {
	d.seen = append(d.seen, e)
	if err, ok := d.fail[e.Type]; ok {
		return err
	}
	return nil
}

func newTestEvent(t *testing.T, eventType string) Event {
	t.Helper()
	e, err := NewEvent(context.Background(), uuid.New(), "order", uuid.NewString(), eventType, map[string]string{"k": "v"})
	require.NoError(t, err)
	return e
}

func TestRelayRunOnce_MarksDispatchedEventsSent(t *testing.T) {
	store := NewMemoryStore()
	store.Append(newTestEvent(t, "a"), newTestEvent(t, "b"))
	dispatcher := &recordingDispatcher{}
	relay := NewRelay(nil, store, dispatcher, "test")

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, dispatcher.seen, 2)
	for _, e := range store.Events() {
		assert.Equal(t, StatusSent, e.Status)
	}

	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, dispatcher.seen, 2)
}

func TestRelayRunOnce_FailedEventsAreNotRetried(t *testing.T) {
	store := NewMemoryStore()
	store.Append(newTestEvent(t, "broken"))
	dispatcher := &recordingDispatcher{fail: map[string]error{"broken": errors.New("boom")}}
	relay := NewRelay(nil, store, dispatcher, "test")

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, StatusFailed, events[0].Status)
	assert.Equal(t, 1, events[0].RetryCount)
	require.NotNil(t, events[0].LastError)
	assert.Equal(t, "boom", *events[0].LastError)

	_, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, dispatcher.seen, 1)
}

func TestRelayRunOnce_ExtendsLeaseForSlowBatches(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore()
	store.WithClock(clock)
	store.Append(newTestEvent(t, "a"), newTestEvent(t, "b"), newTestEvent(t, "c"))

	var stolen []Event
	dispatcher := DispatcherFunc(func(ctx context.Context, e Event) error {
		now = now.Add(4 * time.Second)
		if e.Type == "c" {
			batch, err := store.LockBatch(ctx, "other", 10, 10*time.Second)
			require.NoError(t, err)
			stolen = append(stolen, batch...)
		}
		return nil
	})
	relay := NewRelay(nil, store, dispatcher, "slow", WithLease(10*time.Second))
	relay.now = clock

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Empty(t, stolen)
}

func TestMemoryStore_ExtendLeaseIgnoresOtherRelays(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.WithClock(func() time.Time { return now })
	store.Append(newTestEvent(t, "a"))

	batch, err := store.LockBatch(context.Background(), "r1", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	require.NoError(t, store.ExtendLease(context.Background(), "r2", []uuid.UUID{batch[0].ID}, time.Hour))
	now = now.Add(2 * time.Second)
	again, err := store.LockBatch(context.Background(), "r2", 10, time.Second)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestMemoryStore_LeaseExpiryReleasesEvents(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.WithClock(func() time.Time { return now })
	store.Append(newTestEvent(t, "a"))

	batch, err := store.LockBatch(context.Background(), "r1", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	batch, err = store.LockBatch(context.Background(), "r2", 10, time.Second)
	require.NoError(t, err)
	assert.Empty(t, batch)

	now = now.Add(2 * time.Second)
	batch, err = store.LockBatch(context.Background(), "r2", 10, time.Second)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestMemoryStore_PurgeSent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.WithClock(func() time.Time { return now })
	sentEvent := newTestEvent(t, "a")
	store.Append(sentEvent, newTestEvent(t, "b"))
	require.NoError(t, store.MarkSent(context.Background(), []uuid.UUID{sentEvent.ID}))

	purged, err := store.PurgeSent(context.Background(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	assert.Len(t, store.Events(), 1)
}

func TestEventDecode_InvalidPayloadIsPermanent(t *testing.T) {
	e := Event{ID: uuid.New(), Type: "x", Payload: []byte("{not json")}
	var target map[string]any
	err := e.Decode(&target)
	require.ErrorIs(t, err, ErrPermanent)
}

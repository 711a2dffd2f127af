package live

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(buffer int, keepalive time.Duration) *Hub {
	return NewHub(buffer, keepalive, zerolog.Nop())
}

func recvFrame(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C:
		require.True(t, ok, "channel closed unexpectedly")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Message{}
	}
}

func TestSubscribeSendsInitialPing(t *testing.T) {
	hub := newTestHub(4, time.Hour)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	msg := recvFrame(t, sub)
	assert.Equal(t, FramePing, msg.Name)
	assert.Equal(t, "connected", msg.Data)
	assert.Equal(t, 1, hub.Len())
}

func TestBroadcastOrderPreservedPerChannel(t *testing.T) {
	hub := newTestHub(8, time.Hour)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	recvFrame(t, sub) // initial ping

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	hub.Broadcast(Event{Event: EventStart, SubSpotID: 7, UserID: 1, StartTime: &start})
	hub.Broadcast(Event{Event: EventEnd, SubSpotID: 7, UserID: 1})

	first := recvFrame(t, sub)
	second := recvFrame(t, sub)
	require.Equal(t, FrameBooking, first.Name)
	require.Equal(t, FrameBooking, second.Name)

	var ev1, ev2 Event
	require.NoError(t, json.Unmarshal([]byte(first.Data), &ev1))
	require.NoError(t, json.Unmarshal([]byte(second.Data), &ev2))
	assert.Equal(t, EventStart, ev1.Event)
	assert.Equal(t, EventEnd, ev2.Event)
	assert.Equal(t, int64(7), ev1.SubSpotID)
	require.NotNil(t, ev1.StartTime)
	assert.True(t, ev1.StartTime.Equal(start))
	assert.Nil(t, ev2.StartTime)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub := newTestHub(4, time.Hour)
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a.ID)
	defer hub.Unsubscribe(b.ID)

	recvFrame(t, a)
	recvFrame(t, b)

	hub.Broadcast(Event{Event: EventEnd, SubSpotID: 3, UserID: 2})

	assert.Equal(t, FrameBooking, recvFrame(t, a).Name)
	assert.Equal(t, FrameBooking, recvFrame(t, b).Name)
}

func TestStalledSubscriberIsDropped(t *testing.T) {
	hub := newTestHub(1, time.Hour)
	stalled := hub.Subscribe() // never drained; initial ping fills the buffer
	healthy := hub.Subscribe()
	defer hub.Unsubscribe(healthy.ID)

	recvFrame(t, healthy)

	// First broadcast overflows the stalled channel and removes it.
	hub.Broadcast(Event{Event: EventEnd, SubSpotID: 1, UserID: 1})

	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, FrameBooking, recvFrame(t, healthy).Name)

	// The dropped subscriber's channel is closed after the queued ping.
	<-stalled.C
	_, open := <-stalled.C
	assert.False(t, open)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := newTestHub(4, time.Hour)
	sub := hub.Subscribe()

	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe("never-existed")
	assert.Equal(t, 0, hub.Len())

	// Broadcast after removal delivers nothing and does not panic.
	hub.Broadcast(Event{Event: EventStart, SubSpotID: 1, UserID: 1})
}

func TestSubscribeDuringBroadcastChurn(t *testing.T) {
	// With a buffer of one, a broadcast racing a subscribe can overflow the
	// brand-new channel and drop it immediately. That must only ever detach
	// the subscriber; it must never panic the subscribing goroutine.
	hub := newTestHub(1, time.Hour)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Broadcast(Event{Event: EventEnd, SubSpotID: 1, UserID: 1})
				}
			}
		}()
	}

	for i := 0; i < 5000; i++ {
		sub := hub.Subscribe()
		hub.Unsubscribe(sub.ID)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, 0, hub.Len())
}

func TestKeepaliveTicks(t *testing.T) {
	hub := newTestHub(4, 10*time.Millisecond)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	recvFrame(t, sub) // initial ping

	msg := recvFrame(t, sub)
	assert.Equal(t, FramePing, msg.Name)
	assert.Equal(t, "keepalive", msg.Data)
}

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v", v)
	default:
	}
}

func TestChannelEvent_NotifyAndUnregister(t *testing.T) {
	event := NewChannelEvent[string](false)
	ch := make(chan string, 4)
	unregister := event.Listen(ch)
	require.Equal(t, 1, event.ListenerCount())

	event.Notify("running")
	event.Notify("paused")
	assert.Equal(t, "running", receive(t, ch))
	assert.Equal(t, "paused", receive(t, ch))

	unregister()
	assert.Equal(t, 0, event.ListenerCount())
	event.Notify("idle")
	assertEmpty(t, ch)
}

func TestChannelEvent_FansOutToEveryListener(t *testing.T) {
	event := NewChannelEvent[int](false)
	a := make(chan int, 1)
	b := make(chan int, 1)
	defer event.Listen(a)()
	defer event.Listen(b)()

	event.Notify(42)
	assert.Equal(t, 42, receive(t, a))
	assert.Equal(t, 42, receive(t, b))
}

func TestChannelEvent_FullChannelDoesNotBlock(t *testing.T) {
	event := NewChannelEvent[int](false)
	ch := make(chan int, 1)
	defer event.Listen(ch)()

	done := make(chan struct{})
	go func() {
		event.Notify(1)
		event.Notify(2)
		close(done)
	}()
	receive(t, done)

	assert.Equal(t, 1, receive(t, ch))
	assertEmpty(t, ch)
}

func TestChannelEvent_ReplayLast(t *testing.T) {
	event := NewChannelEvent[string](true)

	early := make(chan string, 1)
	defer event.Listen(early)()
	assertEmpty(t, early)

	event.Notify("first")
	event.Notify("second")
	<-early

	late := make(chan string, 1)
	defer event.Listen(late)()
	assert.Equal(t, "second", receive(t, late))

	last, ok := event.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", last)
}

func TestChannelEvent_NoReplayWhenDisabled(t *testing.T) {
	event := NewChannelEvent[string](false)
	event.Notify("gone")

	ch := make(chan string, 1)
	defer event.Listen(ch)()
	assertEmpty(t, ch)

	_, ok := event.Last()
	assert.False(t, ok)
}

func TestChannelEvent_NilChannelPanics(t *testing.T) {
	event := NewChannelEvent[int](false)
	assert.Panics(t, func() { event.Listen(nil) })
}

func TestChannelEvent_ConcurrentUse(t *testing.T) {
	event := NewChannelEvent[int](true)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			ch := make(chan int, 16)
			unregister := event.Listen(ch)
			event.Notify(i)
			unregister()
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		receive(t, done)
	}
	assert.Equal(t, 0, event.ListenerCount())
}

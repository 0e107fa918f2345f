package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()

	attendanceCh, cleanupA := hub.Subscribe(TopicAttendance)
	defer cleanupA()
	bothCh, cleanupB := hub.Subscribe(TopicAttendance, TopicReports)
	defer cleanupB()

	assert.Equal(t, 2, hub.SubscriberCount(TopicAttendance))
	assert.Equal(t, 1, hub.SubscriberCount(TopicReports))
	assert.Equal(t, 2, hub.TotalSubscribers())

	hub.Publish(Event{Topic: TopicReports, Type: "report.refreshed"})

	select {
	case ev := <-bothCh:
		assert.Equal(t, "report.refreshed", ev.Type)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}

	select {
	case ev := <-attendanceCh:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestHub_CleanupClosesOnceAndUnregisters(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe(TopicAttendance, TopicReports)
	cleanup()
	cleanup()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.TotalSubscribers())

	require.NotPanics(t, func() {
		hub.Publish(Event{Topic: TopicAttendance, Type: "attendance.checked_in"})
	})
}

func TestHub_FullChannelDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe(TopicAttendance)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Topic: TopicAttendance, Type: "attendance.marked"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

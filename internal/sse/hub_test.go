package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestPublishReachesTopicSubscribers(t *testing.T) {
	h := New()
	a, unsubA := h.Subscribe(JobTopic("1"))
	defer unsubA()
	b, unsubB := h.Subscribe(JobTopic("2"))
	defer unsubB()

	h.Publish(JobTopic("1"), Event{Type: "state", Data: `{"state":"RUNNING"}`})

	e := receive(t, a)
	assert.Equal(t, "state", e.Type)
	assert.Empty(t, b)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	ch, unsub := h.Subscribe("job:x")
	assert.Equal(t, 1, h.Subscribers("job:x"))

	unsub()
	unsub()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Subscribers("job:x"))

	// publishing to a topic with no listeners is a no-op
	h.Publish("job:x", Event{Type: "state"})
}

func TestPublishSkipsFullClients(t *testing.T) {
	h := New()
	ch, unsub := h.Subscribe("t")
	defer unsub()

	for i := 0; i < 32; i++ {
		h.Publish("t", Event{Type: "state"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestPublishJSON(t *testing.T) {
	h := New()
	ch, unsub := h.Subscribe("t")
	defer unsub()

	require.NoError(t, h.PublishJSON("t", "state", map[string]string{"state": "COMPLETED"}))
	e := receive(t, ch)
	assert.JSONEq(t, `{"state":"COMPLETED"}`, e.Data)
}

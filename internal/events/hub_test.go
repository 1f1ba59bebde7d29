package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_NotifyFansOut(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Notify("req-1", LevelSuccess, "Run saved successfully!")

	for _, ch := range []chan string{a, b} {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(<-ch), &e))
		assert.Equal(t, TypeNotice, e.Type)
		assert.Equal(t, Version, e.Version)
		assert.Equal(t, "req-1", e.RequestID)

		var n Notice
		require.NoError(t, json.Unmarshal(e.Data, &n))
		assert.Equal(t, Notice{Level: LevelSuccess, Message: "Run saved successfully!"}, n)
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
	h.Close()
	_, open := <-b
	assert.False(t, open)
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < 100; i++ {
		h.Emit("", TypeLeadsChanged, map[string]int{"i": i})
	}
	assert.Len(t, ch, cap(ch))
}

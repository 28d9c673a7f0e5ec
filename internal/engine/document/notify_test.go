package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FiltersByURI(t *testing.T) {
	hub := NewHub[ClearedEvent]("cleared")
	one := hub.Subscribe("file:///a.src", 4)
	all := hub.Subscribe("", 4)
	defer one.Close()
	defer all.Close()

	assert.Equal(t, 2, hub.Publish("file:///a.src", ClearedEvent{URI: "file:///a.src"}))
	assert.Equal(t, 1, hub.Publish("file:///b.src", ClearedEvent{URI: "file:///b.src"}))

	require.Len(t, one.C(), 1)
	assert.Equal(t, "file:///a.src", (<-one.C()).URI)
	require.Len(t, all.C(), 2)
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub[ClearedEvent]("cleared")
	sub := hub.Subscribe("", 1)
	defer sub.Close()

	assert.Equal(t, 1, hub.Publish("x", ClearedEvent{URI: "x"}))
	assert.Equal(t, 0, hub.Publish("y", ClearedEvent{URI: "y"}))
	assert.Equal(t, "x", (<-sub.C()).URI)
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub[ParsedEvent]("parsed")
	sub := hub.Subscribe("", 1)
	require.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Len())
	_, open := <-sub.C()
	assert.False(t, open)
	assert.Equal(t, 0, hub.Publish("x", ParsedEvent{URI: "x"}))
}

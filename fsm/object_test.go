package fsm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObject(t *testing.T) {
	t.Parallel()

	obj := NewObject("start", WithData(map[string]any{"name": "alice", "count": 3}))

	_, err := uuid.Parse(obj.ID())
	require.NoError(t, err)
	assert.Equal(t, "start", obj.CurrentState())
	assert.Empty(t, obj.History())

	name, ok := obj.GetString("name")
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	count, ok := obj.GetInt("count")
	assert.True(t, ok)
	assert.Equal(t, 3, count)

	_, ok = obj.GetInt("name")
	assert.False(t, ok)

	_, ok = obj.GetString("missing")
	assert.False(t, ok)
}

func TestObjectSetKeepsState(t *testing.T) {
	t.Parallel()

	obj := NewObject("start", WithObjectID("fixed"))
	before := obj.UpdatedAt()

	obj.Set("k", "v")

	assert.Equal(t, "fixed", obj.ID())
	assert.Equal(t, "start", obj.CurrentState())
	assert.False(t, obj.UpdatedAt().Before(before))

	v, ok := obj.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestObjectHistoryIsCopied(t *testing.T) {
	t.Parallel()

	obj := NewObject("a")
	obj.advance("a", "e", "b")

	history := obj.History()
	require.Len(t, history, 1)

	history[0].To = "tampered"

	assert.Equal(t, "b", obj.History()[0].To)
	assert.Equal(t, "b", obj.CurrentState())
}

func TestObjectDataIsCopied(t *testing.T) {
	t.Parallel()

	seed := map[string]any{"k": 1}
	obj := NewObject("a", WithData(seed))

	seed["k"] = 2

	v, _ := obj.GetInt("k")
	assert.Equal(t, 1, v)
}

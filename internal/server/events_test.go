package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventConstructors(t *testing.T) {
	ev := Append("room_1", TargetMessages, "content")
	assert.Equal(t, ActionAppend, ev.Action)
	assert.Equal(t, "room_1", ev.Scope)
	assert.Equal(t, TargetMessages, ev.Target)
	assert.Equal(t, "content", ev.Content)

	ev = Replace("room_1", MessageTarget(5), "edited")
	assert.Equal(t, ActionReplace, ev.Action)
	assert.Equal(t, "message_5", ev.Target)

	ev = Remove("room_1", TargetEmptyState)
	assert.Equal(t, ActionRemove, ev.Action)
	assert.Nil(t, ev.Content)
}

func TestScopes(t *testing.T) {
	assert.Equal(t, "room_42", RoomScope(42))
	assert.Equal(t, "user_7_sidebar", UserSidebarScope(7))
	assert.Equal(t, "message_99", MessageTarget(99))
}

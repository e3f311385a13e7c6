package server

import (
	"fmt"
)

// Stream event actions, mirroring the client-side patch operations.
const (
	ActionAppend  = "append"
	ActionReplace = "replace"
	ActionRemove  = "remove"
)

// Target slots the client knows how to patch.
const (
	TargetMessages           = "messages"
	TargetEmptyState         = "empty-state"
	TargetDirectMessagesList = "direct-messages-list"
	TargetNoDMsPlaceholder   = "no-dms-placeholder"
)

// StreamEvent is one UI patch delivered to every subscriber of a
// stream. Scope identifies the stream (a room or a user's sidebar),
// Target the slot within the client's view.
type StreamEvent struct {
	Action  string `json:"action"`
	Scope   string `json:"scope"`
	Target  string `json:"target"`
	Content any    `json:"content,omitempty"`
}

func Append(scope, target string, content any) *StreamEvent {
	return &StreamEvent{Action: ActionAppend, Scope: scope, Target: target, Content: content}
}

func Replace(scope, target string, content any) *StreamEvent {
	return &StreamEvent{Action: ActionReplace, Scope: scope, Target: target, Content: content}
}

func Remove(scope, target string) *StreamEvent {
	return &StreamEvent{Action: ActionRemove, Scope: scope, Target: target}
}

func RoomScope(roomId int) string {
	return fmt.Sprintf("room_%d", roomId)
}

func UserSidebarScope(userId int) string {
	return fmt.Sprintf("user_%d_sidebar", userId)
}

// MessageTarget is the per-message slot used by replace and remove.
func MessageTarget(messageId int) string {
	return fmt.Sprintf("message_%d", messageId)
}

package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action names the write that produced an event.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ActivityEvent announces a change to one activity. Consumers load the
// current record from the store; the event only carries identity.
type ActivityEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityEvent(id, userID string, action Action, version int64) *ActivityEvent {
	return &ActivityEvent{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityEventFromJSON decodes and checks an event body.
func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var msg ActivityEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("event is missing id or user_id")
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}

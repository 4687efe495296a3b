package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a user opens a new room.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	HostID    string    `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomCreatedV1 is the typed event definition for room creation.
// Subject: events.forum.v1.room-created
var RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
	"forum", "RoomCreated", "v1",
)

// RoomUpdatedEvent is emitted when a host edits a room.
type RoomUpdatedEvent struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	HostID    string    `json:"host_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoomUpdatedV1 is the typed event definition for room updates.
// Subject: events.forum.v1.room-updated
var RoomUpdatedV1 = helper.EventDefinition[RoomUpdatedEvent](
	"forum", "RoomUpdated", "v1",
)

// RoomDeletedEvent is emitted when a host deletes a room.
type RoomDeletedEvent struct {
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	HostID    string    `json:"host_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// RoomDeletedV1 is the typed event definition for room deletion.
// Subject: events.forum.v1.room-deleted
var RoomDeletedV1 = helper.EventDefinition[RoomDeletedEvent](
	"forum", "RoomDeleted", "v1",
)

// MessagePostedEvent is emitted when a message is posted into a room.
type MessagePostedEvent struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagePostedV1 is the typed event definition for new messages.
// Subject: events.forum.v1.message-posted
var MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
	"forum", "MessagePosted", "v1",
)

// MessageDeletedEvent is emitted when an author deletes a message.
type MessageDeletedEvent struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// MessageDeletedV1 is the typed event definition for message deletion.
// Subject: events.forum.v1.message-deleted
var MessageDeletedV1 = helper.EventDefinition[MessageDeletedEvent](
	"forum", "MessageDeleted", "v1",
)

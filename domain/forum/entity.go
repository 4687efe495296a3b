package forum

import (
	"time"

	"github.com/example/community-forum/domain/user"
)

// Topic is a shared tag across rooms. Names are unique.
type Topic struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Topic.
func (Topic) TableName() string {
	return "topics"
}

// Room is a discussion room owned by its host.
type Room struct {
	ID           string      `gorm:"primaryKey;type:text" json:"id"`
	HostID       string      `gorm:"index;not null;type:text" json:"host_id"`
	Host         user.User   `gorm:"foreignKey:HostID" json:"-"`
	TopicID      string      `gorm:"index;not null;type:text" json:"topic_id"`
	Topic        Topic       `gorm:"foreignKey:TopicID" json:"topic"`
	Name         string      `gorm:"size:200;not null" json:"name"`
	Description  string      `gorm:"type:text" json:"description"`
	Participants []user.User `gorm:"many2many:room_participants;joinForeignKey:RoomID;joinReferences:UserID" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName returns the table name for Room.
func (Room) TableName() string {
	return "rooms"
}

// RoomParticipant records that a user has posted in a room.
type RoomParticipant struct {
	RoomID    string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"primaryKey;type:text"`
	CreatedAt time.Time
}

// TableName returns the join table name for room participants.
func (RoomParticipant) TableName() string {
	return "room_participants"
}

// Message is a post inside a room.
type Message struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	RoomID    string    `gorm:"index;not null;type:text" json:"room_id"`
	Room      Room      `gorm:"foreignKey:RoomID" json:"-"`
	UserID    string    `gorm:"index;not null;type:text" json:"user_id"`
	User      user.User `gorm:"foreignKey:UserID" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Message.
func (Message) TableName() string {
	return "messages"
}

package forum

import (
	"strings"
	"time"

	domain "github.com/example/community-forum/domain/forum"
	"github.com/example/community-forum/domain/user"
)

// RoomInput is the create/update room form. Any host field a client
// submits is not part of it.
type RoomInput struct {
	Topic       string `form:"topic" validate:"required,max=200"`
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description" validate:"max=2000"`
}

func (in RoomInput) normalized() RoomInput {
	return RoomInput{
		Topic:       strings.TrimSpace(in.Topic),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// MessageInput is the post message form.
type MessageInput struct {
	Body string `form:"body" validate:"required,max=5000"`
}

func (in MessageInput) normalized() MessageInput {
	return MessageInput{Body: strings.TrimSpace(in.Body)}
}

// TopicSummary is a topic with the number of rooms tagged with it.
type TopicSummary struct {
	Name      string `json:"name"`
	RoomCount int64  `json:"room_count"`
}

// RoomView is a room with its messages newest-first and its participants.
type RoomView struct {
	Room         domain.Room
	Messages     []domain.Message
	Participants []user.User
}

// HomeView is everything the home page shows for one query.
type HomeView struct {
	Query     string
	Rooms     []domain.Room
	RoomCount int
	Topics    []TopicSummary
	Messages  []domain.Message
}

// ProfileView is a user's public profile.
type ProfileView struct {
	User     user.User
	Rooms    []domain.Room
	Messages []domain.Message
	Topics   []TopicSummary
}

// RoomSummary is the wire form of a room.
type RoomSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Topic        string    `json:"topic"`
	HostID       string    `json:"host_id"`
	HostUsername string    `json:"host_username"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageSummary is the wire form of a message.
type MessageSummary struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchRoomsRequest represents a search-rooms request.
type SearchRoomsRequest struct {
	Query string `json:"q"`
}

// SearchRoomsResponse represents a search-rooms response.
type SearchRoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
	Count int           `json:"count"`
}

// SearchMessagesRequest represents a search-messages request.
type SearchMessagesRequest struct {
	Query string `json:"q"`
}

// SearchMessagesResponse represents a search-messages response.
type SearchMessagesResponse struct {
	Messages []MessageSummary `json:"messages"`
}

// GetRoomRequest represents a get-room request.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// GetRoomResponse represents a get-room response.
type GetRoomResponse struct {
	Room         *RoomSummary     `json:"room,omitempty"`
	Messages     []MessageSummary `json:"messages,omitempty"`
	Participants []string         `json:"participants,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func toRoomSummary(r domain.Room) RoomSummary {
	return RoomSummary{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Topic:        r.Topic.Name,
		HostID:       r.HostID,
		HostUsername: r.Host.Username,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toMessageSummary(m domain.Message) MessageSummary {
	return MessageSummary{
		ID:        m.ID,
		RoomID:    m.RoomID,
		RoomName:  m.Room.Name,
		UserID:    m.UserID,
		Username:  m.User.Username,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

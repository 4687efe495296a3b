package forum

import (
	"context"
	"time"

	domain "github.com/example/community-forum/domain/forum"
	"github.com/example/community-forum/events"
	"github.com/example/community-forum/validation"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Service implements the forum use cases on top of the repository.
type Service struct {
	repo   *Repository
	bus    mono.EventBus
	logger types.Logger
}

// NewService creates a new forum service.
func NewService(repo *Repository, logger types.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// SetEventBus enables event publishing after mutations.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.bus = bus
}

// SearchRooms returns the rooms matching q.
func (s *Service) SearchRooms(ctx context.Context, q string) ([]domain.Room, error) {
	return s.repo.SearchRooms(ctx, q)
}

// SearchMessages returns the messages whose room name matches q.
func (s *Service) SearchMessages(ctx context.Context, q string) ([]domain.Message, error) {
	return s.repo.SearchMessages(ctx, q)
}

// ListTopics returns every topic with its room count.
func (s *Service) ListTopics(ctx context.Context) ([]TopicSummary, error) {
	return s.repo.ListTopics(ctx)
}

// Home gathers the home page for q. The three reads are independent and
// run concurrently.
func (s *Service) Home(ctx context.Context, q string) (*HomeView, error) {
	view := &HomeView{Query: q}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rooms, err := s.repo.SearchRooms(ctx, q)
		if err != nil {
			return err
		}
		view.Rooms = rooms
		view.RoomCount = len(rooms)
		return nil
	})
	g.Go(func() error {
		topics, err := s.repo.ListTopics(ctx)
		if err != nil {
			return err
		}
		view.Topics = topics
		return nil
	})
	g.Go(func() error {
		messages, err := s.repo.SearchMessages(ctx, q)
		if err != nil {
			return err
		}
		view.Messages = messages
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// RoomDetail returns a room, its messages newest-first and its participants.
func (s *Service) RoomDetail(ctx context.Context, roomID string) (*RoomView, error) {
	room, err := s.repo.FindRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.RoomMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.RoomParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &RoomView{
		Room:         *room,
		Messages:     messages,
		Participants: participants,
	}, nil
}

// UserProfile returns a user's rooms, messages and the topic list.
func (s *Service) UserProfile(ctx context.Context, userID string) (*ProfileView, error) {
	u, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.repo.RoomsHostedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.MessagesBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		User:     *u,
		Rooms:    rooms,
		Messages: messages,
		Topics:   topics,
	}, nil
}

// GetRoom loads a single room.
func (s *Service) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.repo.FindRoom(ctx, roomID)
}

// GetMessage loads a single message.
func (s *Service) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	return s.repo.FindMessage(ctx, messageID)
}

// CreateRoom opens a room hosted by the actor.
func (s *Service) CreateRoom(ctx context.Context, actor Actor, in RoomInput) (*domain.Room, error) {
	if err := CanCreate(actor).Err(); err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	room, err := s.repo.CreateRoom(ctx, actor.UserID, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Room created", "roomID", room.ID, "hostID", actor.UserID, "topic", room.Topic.Name)
	s.publish("RoomCreated", func(bus mono.EventBus) error {
		return events.RoomCreatedV1.Publish(bus, events.RoomCreatedEvent{
			RoomID:    room.ID,
			Name:      room.Name,
			Topic:     room.Topic.Name,
			HostID:    room.HostID,
			CreatedAt: room.CreatedAt,
		}, nil)
	})
	return room, nil
}

// UpdateRoom edits a room. Only the host may do so, and the host stays
// the acting user whatever the input says.
func (s *Service) UpdateRoom(ctx context.Context, actor Actor, roomID string, in RoomInput) (*domain.Room, error) {
	room, err := s.repo.FindRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := CanModifyRoom(actor, room).Err(); err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateRoom(ctx, roomID, actor.UserID, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Room updated", "roomID", roomID, "hostID", actor.UserID)
	s.publish("RoomUpdated", func(bus mono.EventBus) error {
		return events.RoomUpdatedV1.Publish(bus, events.RoomUpdatedEvent{
			RoomID:    updated.ID,
			Name:      updated.Name,
			Topic:     updated.Topic.Name,
			HostID:    updated.HostID,
			UpdatedAt: updated.UpdatedAt,
		}, nil)
	})
	return updated, nil
}

// DeleteRoom removes a room with its messages. Only the host may do so.
func (s *Service) DeleteRoom(ctx context.Context, actor Actor, roomID string) error {
	room, err := s.repo.FindRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := CanModifyRoom(actor, room).Err(); err != nil {
		return err
	}
	if err := s.repo.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	s.logger.Info("Room deleted", "roomID", roomID, "hostID", actor.UserID)
	s.publish("RoomDeleted", func(bus mono.EventBus) error {
		return events.RoomDeletedV1.Publish(bus, events.RoomDeletedEvent{
			RoomID:    room.ID,
			Name:      room.Name,
			HostID:    room.HostID,
			DeletedAt: time.Now(),
		}, nil)
	})
	return nil
}

// PostMessage appends a message to a room and makes the author a participant.
func (s *Service) PostMessage(ctx context.Context, actor Actor, roomID string, in MessageInput) (*domain.Message, error) {
	if err := CanCreate(actor).Err(); err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	message, err := s.repo.CreateMessage(ctx, roomID, actor.UserID, in.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Message posted", "messageID", message.ID, "roomID", roomID, "userID", actor.UserID)
	s.publish("MessagePosted", func(bus mono.EventBus) error {
		return events.MessagePostedV1.Publish(bus, events.MessagePostedEvent{
			MessageID: message.ID,
			RoomID:    message.RoomID,
			UserID:    message.UserID,
			Body:      message.Body,
			CreatedAt: message.CreatedAt,
		}, nil)
	})
	return message, nil
}

// DeleteMessage removes a message. Only its author may do so.
func (s *Service) DeleteMessage(ctx context.Context, actor Actor, messageID string) error {
	message, err := s.repo.FindMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := CanDeleteMessage(actor, message).Err(); err != nil {
		return err
	}
	if err := s.repo.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.logger.Debug("Message deleted", "messageID", messageID, "userID", actor.UserID)
	s.publish("MessageDeleted", func(bus mono.EventBus) error {
		return events.MessageDeletedV1.Publish(bus, events.MessageDeletedEvent{
			MessageID: message.ID,
			RoomID:    message.RoomID,
			UserID:    message.UserID,
			DeletedAt: time.Now(),
		}, nil)
	})
	return nil
}

// publish sends an event when a bus is attached. Failures are logged only.
func (s *Service) publish(name string, send func(mono.EventBus) error) {
	if s.bus == nil {
		return
	}
	if err := send(s.bus); err != nil {
		s.logger.Warn("Failed to publish event", "event", name, "error", err)
	}
}

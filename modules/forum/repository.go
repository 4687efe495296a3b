package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/community-forum/domain/forum"
	"github.com/example/community-forum/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes %, _ and \ match literally under ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a LIKE pattern matching q anywhere. Queries fold
// it with LOWER(?) so pattern and column use the same case folding.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// Repository provides access to forum storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new forum repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SearchRooms returns rooms whose topic name, name or description contains
// q, ignoring case, in creation order. A blank q matches every room.
// Case folding is the database's LOWER: SQLite folds ASCII letters only, so
// non-ASCII text matches case-sensitively there.
func (r *Repository) SearchRooms(ctx context.Context, q string) ([]domain.Room, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Select("rooms.*").
		Joins("LEFT JOIN topics ON topics.id = rooms.topic_id").
		Preload("Host").
		Preload("Topic")

	if q = strings.TrimSpace(q); q != "" {
		p := containsPattern(q)
		query = query.Where(
			`LOWER(topics.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(rooms.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(rooms.description) LIKE LOWER(?) ESCAPE '\'`,
			p, p, p,
		)
	}

	var rooms []domain.Room
	if err := query.Order("rooms.created_at ASC").Order("rooms.id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to search rooms: %w", err)
	}
	return rooms, nil
}

// SearchMessages returns messages whose room name contains q, ignoring
// case, newest first. A blank q matches every message. Case folding follows
// SearchRooms.
func (r *Repository) SearchMessages(ctx context.Context, q string) ([]domain.Message, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.*").
		Joins("JOIN rooms ON rooms.id = messages.room_id").
		Preload("User").
		Preload("Room")

	if q = strings.TrimSpace(q); q != "" {
		query = query.Where(`LOWER(rooms.name) LIKE LOWER(?) ESCAPE '\'`, containsPattern(q))
	}

	var messages []domain.Message
	if err := query.Order("messages.created_at DESC").Order("messages.id DESC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return messages, nil
}

// FindRoom loads a room with its host and topic.
func (r *Repository) FindRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindMessage loads a message with its author and room.
func (r *Repository) FindMessage(ctx context.Context, id string) (*domain.Message, error) {
	var message domain.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &message, nil
}

// FindUser loads a user by id.
func (r *Repository) FindUser(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// RoomMessages returns a room's messages newest first.
func (r *Repository) RoomMessages(ctx context.Context, roomID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list room messages: %w", err)
	}
	return messages, nil
}

// RoomParticipants returns the users who posted in a room, in joining order.
func (r *Repository) RoomParticipants(ctx context.Context, roomID string) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).
		Model(&user.User{}).
		Select("users.*").
		Joins("JOIN room_participants ON room_participants.user_id = users.id").
		Where("room_participants.room_id = ?", roomID).
		Order("room_participants.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return users, nil
}

// RoomsHostedBy returns the rooms a user hosts in creation order.
func (r *Repository) RoomsHostedBy(ctx context.Context, userID string) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		Where("host_id = ?", userID).
		Order("created_at ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hosted rooms: %w", err)
	}
	return rooms, nil
}

// MessagesBy returns a user's messages newest first.
func (r *Repository) MessagesBy(ctx context.Context, userID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user messages: %w", err)
	}
	return messages, nil
}

// ListTopics returns every topic with its room count, ordered by name.
func (r *Repository) ListTopics(ctx context.Context) ([]TopicSummary, error) {
	var topics []TopicSummary
	err := r.db.WithContext(ctx).
		Model(&domain.Topic{}).
		Select("topics.name AS name, COUNT(rooms.id) AS room_count").
		Joins("LEFT JOIN rooms ON rooms.topic_id = topics.id").
		Group("topics.id, topics.name").
		Order("topics.name ASC").
		Scan(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// getOrCreateTopic returns the topic named name, inserting it when absent.
// The unique index on name plus DO NOTHING collapses concurrent inserts.
func getOrCreateTopic(tx *gorm.DB, name string) (*domain.Topic, error) {
	var topic domain.Topic
	err := tx.Where("name = ?", name).Take(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find topic: %w", err)
	}

	candidate := domain.Topic{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&candidate).Error; err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	if err := tx.Where("name = ?", name).Take(&topic).Error; err != nil {
		return nil, fmt.Errorf("failed to reload topic: %w", err)
	}
	return &topic, nil
}

// CreateRoom stores a room hosted by hostID under the named topic.
func (r *Repository) CreateRoom(ctx context.Context, hostID string, in RoomInput) (*domain.Room, error) {
	now := time.Now()
	room := domain.Room{
		ID:          uuid.New().String(),
		HostID:      hostID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		topic, err := getOrCreateTopic(tx, in.Topic)
		if err != nil {
			return err
		}
		room.TopicID = topic.ID
		if err := tx.Omit(clause.Associations).Create(&room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindRoom(ctx, room.ID)
}

// UpdateRoom rewrites a room's fields and re-affixes its host to hostID.
func (r *Repository) UpdateRoom(ctx context.Context, roomID, hostID string, in RoomInput) (*domain.Room, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		topic, err := getOrCreateTopic(tx, in.Topic)
		if err != nil {
			return err
		}
		// A map so that an emptied description is written too.
		result := tx.Model(&domain.Room{}).Where("id = ?", roomID).Updates(map[string]any{
			"name":        in.Name,
			"description": in.Description,
			"topic_id":    topic.ID,
			"host_id":     hostID,
			"updated_at":  time.Now(),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update room: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindRoom(ctx, roomID)
}

// DeleteRoom removes a room with its messages and participant rows.
func (r *Repository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&domain.RoomParticipant{}).Error; err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&domain.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		result := tx.Delete(&domain.Room{}, "id = ?", roomID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete room: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}

// CreateMessage stores a message and adds its author to the room's
// participants if not already there.
func (r *Repository) CreateMessage(ctx context.Context, roomID, userID, body string) (*domain.Message, error) {
	now := time.Now()
	message := domain.Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Room{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to find room: %w", err)
		}
		if count == 0 {
			return ErrRoomNotFound
		}

		if err := tx.Omit(clause.Associations).Create(&message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		participant := domain.RoomParticipant{RoomID: roomID, UserID: userID, CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error; err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindMessage(ctx, message.ID)
}

// DeleteMessage removes a single message.
func (r *Repository) DeleteMessage(ctx context.Context, messageID string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Message{}, "id = ?", messageID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/community-forum/database"
	"github.com/example/community-forum/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// Module owns rooms, topics and messages.
type Module struct {
	db      *gorm.DB
	service *Service
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the forum module over an already migrated database.
func NewModule(db *gorm.DB, logger types.Logger) *Module {
	logger = logger.WithModule("forum")
	return &Module{
		db:      db,
		service: NewService(NewRepository(db), logger),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "forum"
}

// Service returns the forum service used by in-process adapters.
func (m *Module) Service() *Service {
	return m.service
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.service.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.RoomUpdatedV1.ToBase(),
		events.RoomDeletedV1.ToBase(),
		events.MessagePostedV1.ToBase(),
		events.MessageDeletedV1.ToBase(),
	}
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Forum module started")
	return nil
}

// Stop shuts down the module. The database is closed by its owner.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Forum module stopped")
	return nil
}

// Health reports database reachability.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"dialect": m.db.Dialector.Name(),
		},
	}
}

// RegisterServices registers the read-only forum services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"search-rooms",
		json.Unmarshal,
		json.Marshal,
		m.handleSearchRooms,
	); err != nil {
		return fmt.Errorf("failed to register search-rooms service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"search-messages",
		json.Unmarshal,
		json.Marshal,
		m.handleSearchMessages,
	); err != nil {
		return fmt.Errorf("failed to register search-messages service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-room",
		json.Unmarshal,
		json.Marshal,
		m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register get-room service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", []string{"search-rooms", "search-messages", "get-room"})
	return nil
}

func (m *Module) handleSearchRooms(ctx context.Context, req SearchRoomsRequest, _ *mono.Msg) (SearchRoomsResponse, error) {
	rooms, err := m.service.SearchRooms(ctx, req.Query)
	if err != nil {
		return SearchRoomsResponse{}, err
	}

	resp := SearchRoomsResponse{Rooms: make([]RoomSummary, 0, len(rooms)), Count: len(rooms)}
	for _, r := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomSummary(r))
	}
	return resp, nil
}

func (m *Module) handleSearchMessages(ctx context.Context, req SearchMessagesRequest, _ *mono.Msg) (SearchMessagesResponse, error) {
	messages, err := m.service.SearchMessages(ctx, req.Query)
	if err != nil {
		return SearchMessagesResponse{}, err
	}

	resp := SearchMessagesResponse{Messages: make([]MessageSummary, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, toMessageSummary(msg))
	}
	return resp, nil
}

func (m *Module) handleGetRoom(ctx context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	view, err := m.service.RoomDetail(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return GetRoomResponse{Error: "room_not_found"}, nil
		}
		return GetRoomResponse{}, err
	}

	summary := toRoomSummary(view.Room)
	resp := GetRoomResponse{
		Room:         &summary,
		Messages:     make([]MessageSummary, 0, len(view.Messages)),
		Participants: make([]string, 0, len(view.Participants)),
	}
	for _, msg := range view.Messages {
		msg.Room = view.Room
		resp.Messages = append(resp.Messages, toMessageSummary(msg))
	}
	for _, p := range view.Participants {
		resp.Participants = append(resp.Participants, p.Username)
	}
	return resp, nil
}

package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/community-forum/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Module records forum events into a bounded activity log.
type Module struct {
	log    *Log
	events *prometheus.CounterVec
	logger types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates the activity module and registers its counter on reg.
func NewModule(reg prometheus.Registerer, logger types.Logger) (*Module, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_activity_events_total",
		Help: "Forum events consumed by the activity log, by kind.",
	}, []string{"kind"})
	if reg != nil {
		if err := reg.Register(counter); err != nil {
			return nil, fmt.Errorf("failed to register activity metrics: %w", err)
		}
	}

	return &Module{
		log:    NewLog(DefaultCapacity),
		events: counter,
		logger: logger.WithModule("activity"),
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// Log returns the activity log.
func (m *Module) Log() *Log {
	return m.log
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "capacity", DefaultCapacity)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped", "entries", m.log.Len())
	return nil
}

// RegisterEventConsumers subscribes to every forum event.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomCreatedV1, m.handleRoomCreated, m); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomUpdatedV1, m.handleRoomUpdated, m); err != nil {
		return fmt.Errorf("failed to register RoomUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomDeletedV1, m.handleRoomDeleted, m); err != nil {
		return fmt.Errorf("failed to register RoomDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.MessagePostedV1, m.handleMessagePosted, m); err != nil {
		return fmt.Errorf("failed to register MessagePosted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageDeletedV1, m.handleMessageDeleted, m); err != nil {
		return fmt.Errorf("failed to register MessageDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"RoomCreated.v1", "RoomUpdated.v1", "RoomDeleted.v1", "MessagePosted.v1", "MessageDeleted.v1"})
	return nil
}

func (m *Module) record(e Entry) {
	m.log.Add(e)
	m.events.WithLabelValues(e.Kind).Inc()
	m.logger.Debug("Recorded activity", "kind", e.Kind, "roomID", e.RoomID, "actorID", e.ActorID)
}

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Kind:    KindRoomCreated,
		RoomID:  event.RoomID,
		ActorID: event.HostID,
		Summary: fmt.Sprintf("Room %q created under %q", event.Name, event.Topic),
		At:      event.CreatedAt,
	})
	return nil
}

func (m *Module) handleRoomUpdated(_ context.Context, event events.RoomUpdatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Kind:    KindRoomUpdated,
		RoomID:  event.RoomID,
		ActorID: event.HostID,
		Summary: fmt.Sprintf("Room %q updated", event.Name),
		At:      event.UpdatedAt,
	})
	return nil
}

func (m *Module) handleRoomDeleted(_ context.Context, event events.RoomDeletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Kind:    KindRoomDeleted,
		RoomID:  event.RoomID,
		ActorID: event.HostID,
		Summary: fmt.Sprintf("Room %q deleted", event.Name),
		At:      event.DeletedAt,
	})
	return nil
}

func (m *Module) handleMessagePosted(_ context.Context, event events.MessagePostedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Kind:    KindMessagePosted,
		RoomID:  event.RoomID,
		ActorID: event.UserID,
		Summary: truncate(event.Body, 80),
		At:      event.CreatedAt,
	})
	return nil
}

func (m *Module) handleMessageDeleted(_ context.Context, event events.MessageDeletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		Kind:    KindMessageDeleted,
		RoomID:  event.RoomID,
		ActorID: event.UserID,
		Summary: "Message deleted",
		At:      event.DeletedAt,
	})
	return nil
}

// RegisterServices registers the recent-activity service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"recent-activity",
		json.Unmarshal,
		json.Marshal,
		m.handleRecentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}

	m.logger.Info("Registered services", "services", []string{"recent-activity"})
	return nil
}

func (m *Module) handleRecentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return RecentActivityResponse{Entries: m.log.Recent(limit)}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

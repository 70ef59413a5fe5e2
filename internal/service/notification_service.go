package service

import (
	"context"

	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/websocket"
	"github.com/ywqqqq/xuedong-ai/pkg/events"
	natspkg "github.com/ywqqqq/xuedong-ai/pkg/nats"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID string, push websocket.Push)
	Broadcast(push websocket.Push)
}

// NotificationService relays session events from the NATS bus to
// connected clients. Pushes are ephemeral; nothing is stored.
type NotificationService struct {
	subscriber *natspkg.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *natspkg.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("tutor.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("notification", "failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("notification", "notification service started, listening to tutor.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	userId, _ := payload["user_id"].(string)
	if userId == "" {
		return nil
	}

	s.delivery.Send(userId, websocket.Push{
		Type: event.EventType(),
		Data: payload,
	})
	return nil
}

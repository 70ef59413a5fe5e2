package events

import "time"

const (
	EventTypeTurnCompleted  = "TURN_COMPLETED"
	EventTypeSessionClosed  = "SESSION_CLOSED"
	EventTypeSessionCreated = "SESSION_CREATED"
)

func NewTurnCompletedEvent(sessionId, userId, question, answer string, turnIndex int) Event {
	return BaseEvent{
		Type: EventTypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
			"question":   question,
			"answer":     answer,
			"turn_index": turnIndex,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionCreatedEvent(sessionId, userId string) Event {
	return BaseEvent{
		Type: EventTypeSessionCreated,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionClosedEvent(sessionId, userId string) Event {
	return BaseEvent{
		Type: EventTypeSessionClosed,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
		},
		OccurredAt: time.Now(),
	}
}

package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToEntity(s *model.TutorSession) *entity.TutorSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.TutorSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		Status:       s.Status,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		LastActiveAt: s.LastActiveAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) SessionToModel(s *entity.TutorSession) *model.TutorSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.TutorSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Title:        s.Title,
		Status:       s.Status,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		LastActiveAt: s.LastActiveAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

// Message Mappers

func (m *SessionMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	var parts []entity.ContentPart
	if len(msg.Parts) > 0 {
		// Malformed parts degrade to plain text content.
		_ = json.Unmarshal(msg.Parts, &parts)
	}

	return &entity.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Parts:     parts,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *SessionMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	var parts datatypes.JSON
	if len(msg.Parts) > 0 {
		if raw, err := json.Marshal(msg.Parts); err == nil {
			parts = raw
		}
	}

	return &model.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Parts:     parts,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

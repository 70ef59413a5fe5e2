package mapper

import (
	"time"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/model"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) KnowledgePointToEntity(k *model.KnowledgePoint) *entity.KnowledgePoint {
	if k == nil {
		return nil
	}

	var updatedAt *time.Time
	if !k.UpdatedAt.IsZero() {
		t := k.UpdatedAt
		updatedAt = &t
	}

	return &entity.KnowledgePoint{
		Id:          k.Id,
		Name:        k.Name,
		Description: k.Description,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *KnowledgeMapper) KnowledgePointToModel(k *entity.KnowledgePoint) *model.KnowledgePoint {
	if k == nil {
		return nil
	}

	var updatedAt time.Time
	if k.UpdatedAt != nil {
		updatedAt = *k.UpdatedAt
	}

	return &model.KnowledgePoint{
		Id:          k.Id,
		Name:        k.Name,
		Description: k.Description,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *KnowledgeMapper) SessionKnowledgeToEntity(k *model.SessionKnowledge) *entity.SessionKnowledge {
	if k == nil {
		return nil
	}
	return &entity.SessionKnowledge{
		SessionId:          k.SessionId,
		KnowledgeId:        k.KnowledgeId,
		UnfamiliarCount:    k.UnfamiliarCount,
		FirstEncounteredAt: k.FirstEncounteredAt,
		LastEncounteredAt:  k.LastEncounteredAt,
	}
}

func (m *KnowledgeMapper) UserKnowledgeToEntity(k *model.UserKnowledge) *entity.UserKnowledge {
	if k == nil {
		return nil
	}
	return &entity.UserKnowledge{
		UserId:               k.UserId,
		KnowledgeId:          k.KnowledgeId,
		TotalUnfamiliarCount: k.TotalUnfamiliarCount,
		FirstEncounteredAt:   k.FirstEncounteredAt,
		LastEncounteredAt:    k.LastEncounteredAt,
	}
}

package mapper

import (
	"github.com/pgvector/pgvector-go"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/model"
)

type TurnMapper struct{}

func NewTurnMapper() *TurnMapper {
	return &TurnMapper{}
}

func (m *TurnMapper) TurnDocumentToEntity(d *model.TurnDocument) *entity.TurnDocument {
	if d == nil {
		return nil
	}

	var embeddingValues []float32
	if d.Embedding != nil {
		embeddingValues = d.Embedding.Slice()
	}

	return &entity.TurnDocument{
		Id:        d.Id,
		SessionId: d.SessionId,
		TurnIndex: d.TurnIndex,
		Question:  d.Question,
		Answer:    d.Answer,
		Embedding: embeddingValues,
		CreatedAt: d.CreatedAt,
	}
}

func (m *TurnMapper) TurnDocumentToModel(d *entity.TurnDocument) *model.TurnDocument {
	if d == nil {
		return nil
	}

	var embedding *pgvector.Vector
	if len(d.Embedding) > 0 {
		v := pgvector.NewVector(d.Embedding)
		embedding = &v
	}

	return &model.TurnDocument{
		Id:        d.Id,
		SessionId: d.SessionId,
		TurnIndex: d.TurnIndex,
		Question:  d.Question,
		Answer:    d.Answer,
		Embedding: embedding,
		CreatedAt: d.CreatedAt,
	}
}

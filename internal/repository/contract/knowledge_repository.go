package contract

import (
	"context"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
)

type KnowledgeRepository interface {
	// FindOrCreatePoint resolves a knowledge point by name, inserting
	// it when unseen.
	FindOrCreatePoint(ctx context.Context, name string) (*entity.KnowledgePoint, error)
	FindPoints(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgePoint, error)

	// IncrementSessionCount bumps the per-session unfamiliar counter.
	IncrementSessionCount(ctx context.Context, sessionId string, knowledgeId int64) error
	// IncrementUserCount bumps the per-user aggregate counter.
	IncrementUserCount(ctx context.Context, userId string, knowledgeId int64) error

	FindSessionKnowledge(ctx context.Context, sessionId string) ([]*entity.SessionKnowledge, error)
	FindUserKnowledge(ctx context.Context, userId string) ([]*entity.UserKnowledge, error)
}

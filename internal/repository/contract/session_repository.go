package contract

import (
	"context"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.TutorSession) error
	Update(ctx context.Context, session *entity.TutorSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TutorSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TutorSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

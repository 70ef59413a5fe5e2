package contract

import (
	"context"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
)

// ScoredTurnDocument pairs a turn with its cosine similarity to a
// query vector.
type ScoredTurnDocument struct {
	Turn       *entity.TurnDocument
	Similarity float64
}

type TurnDocumentRepository interface {
	Create(ctx context.Context, doc *entity.TurnDocument) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// NextTurnIndex returns the next dense 1-based turn index for the
	// session.
	NextTurnIndex(ctx context.Context, sessionId string) (int, error)

	// SearchSimilarWithScore runs a cosine similarity search scoped to
	// one session.
	SearchSimilarWithScore(ctx context.Context, sessionId string, embedding []float32, limit int) ([]*ScoredTurnDocument, error)
}

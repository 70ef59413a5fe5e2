package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/mapper"
	"github.com/ywqqqq/xuedong-ai/internal/model"
	"github.com/ywqqqq/xuedong-ai/internal/repository/contract"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
)

type TurnDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TurnMapper
}

func NewTurnDocumentRepository(db *gorm.DB) contract.TurnDocumentRepository {
	return &TurnDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewTurnMapper(),
	}
}

func (r *TurnDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TurnDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.TurnDocument) error {
	m := r.mapper.TurnDocumentToModel(doc)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.TurnDocumentToEntity(m)
	return nil
}

func (r *TurnDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnDocument, error) {
	var m model.TurnDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TurnDocumentToEntity(&m), nil
}

func (r *TurnDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnDocument, error) {
	var models []*model.TurnDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TurnDocument, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TurnDocumentToEntity(m)
	}
	return entities, nil
}

func (r *TurnDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TurnDocument{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TurnDocumentRepositoryImpl) NextTurnIndex(ctx context.Context, sessionId string) (int, error) {
	var maxIndex *int
	err := r.db.WithContext(ctx).
		Model(&model.TurnDocument{}).
		Select("MAX(turn_index)").
		Where("session_id = ?", sessionId).
		Scan(&maxIndex).Error
	if err != nil {
		return 0, err
	}
	if maxIndex == nil {
		return 1, nil
	}
	return *maxIndex + 1, nil
}

func (r *TurnDocumentRepositoryImpl) SearchSimilarWithScore(ctx context.Context, sessionId string, embedding []float32, limit int) ([]*contract.ScoredTurnDocument, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) = cosine_similarity.
	type result struct {
		model.TurnDocument
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("turn_documents").
		Select("turn_documents.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("session_id = ?", sessionId).
		Where("embedding IS NOT NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTurnDocument, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTurnDocument{
			Turn:       r.mapper.TurnDocumentToEntity(&res.TurnDocument),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

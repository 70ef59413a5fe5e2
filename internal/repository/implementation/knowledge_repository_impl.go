package implementation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/mapper"
	"github.com/ywqqqq/xuedong-ai/internal/model"
	"github.com/ywqqqq/xuedong-ai/internal/repository/contract"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
)

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeRepositoryImpl) FindOrCreatePoint(ctx context.Context, name string) (*entity.KnowledgePoint, error) {
	var m model.KnowledgePoint
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err == nil {
		return r.mapper.KnowledgePointToEntity(&m), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m = model.KnowledgePoint{Name: name}
	// Concurrent inserts of the same name race on the unique index.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&m).Error; err != nil {
		return nil, err
	}
	if m.Id == 0 {
		if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
			return nil, err
		}
	}
	return r.mapper.KnowledgePointToEntity(&m), nil
}

func (r *KnowledgeRepositoryImpl) FindPoints(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgePoint, error) {
	var models []*model.KnowledgePoint
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgePoint, len(models))
	for i, m := range models {
		entities[i] = r.mapper.KnowledgePointToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeRepositoryImpl) IncrementSessionCount(ctx context.Context, sessionId string, knowledgeId int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "knowledge_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"unfamiliar_count":    gorm.Expr("session_knowledge.unfamiliar_count + 1"),
				"last_encountered_at": now,
			}),
		}).
		Create(&model.SessionKnowledge{
			SessionId:         sessionId,
			KnowledgeId:       knowledgeId,
			UnfamiliarCount:   1,
			LastEncounteredAt: now,
		}).Error
}

func (r *KnowledgeRepositoryImpl) IncrementUserCount(ctx context.Context, userId string, knowledgeId int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "knowledge_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_unfamiliar_count": gorm.Expr("user_knowledge.total_unfamiliar_count + 1"),
				"last_encountered_at":    now,
			}),
		}).
		Create(&model.UserKnowledge{
			UserId:               userId,
			KnowledgeId:          knowledgeId,
			TotalUnfamiliarCount: 1,
			LastEncounteredAt:    now,
		}).Error
}

func (r *KnowledgeRepositoryImpl) FindSessionKnowledge(ctx context.Context, sessionId string) ([]*entity.SessionKnowledge, error) {
	var models []*model.SessionKnowledge
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("unfamiliar_count DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.SessionKnowledge, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionKnowledgeToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeRepositoryImpl) FindUserKnowledge(ctx context.Context, userId string) ([]*entity.UserKnowledge, error) {
	var models []*model.UserKnowledge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("total_unfamiliar_count DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.UserKnowledge, len(models))
	for i, m := range models {
		entities[i] = r.mapper.UserKnowledgeToEntity(m)
	}
	return entities, nil
}

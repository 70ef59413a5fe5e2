package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/contract"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/pkg/embedding"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

type fakeTurnRepo struct {
	turns         []*entity.TurnDocument
	similarities  []*contract.ScoredTurnDocument
	findAllErr    error
	similarityErr error
}

func (f *fakeTurnRepo) Create(ctx context.Context, doc *entity.TurnDocument) error { return nil }
func (f *fakeTurnRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnDocument, error) {
	return nil, nil
}
func (f *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnDocument, error) {
	return f.turns, f.findAllErr
}
func (f *fakeTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.turns)), nil
}
func (f *fakeTurnRepo) NextTurnIndex(ctx context.Context, sessionId string) (int, error) {
	return len(f.turns), nil
}
func (f *fakeTurnRepo) SearchSimilarWithScore(ctx context.Context, sessionId string, embedding []float32, limit int) ([]*contract.ScoredTurnDocument, error) {
	return f.similarities, f.similarityErr
}

type fakeUow struct {
	turnRepo *fakeTurnRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) SessionRepository() contract.SessionRepository {
	return nil
}
func (f *fakeUow) MessageRepository() contract.MessageRepository {
	return nil
}
func (f *fakeUow) TurnDocumentRepository() contract.TurnDocumentRepository {
	return f.turnRepo
}
func (f *fakeUow) KnowledgeRepository() contract.KnowledgeRepository {
	return nil
}

var _ unitofwork.UnitOfWork = (*fakeUow)(nil)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func turn(index int, question, answer string) *entity.TurnDocument {
	return &entity.TurnDocument{
		Id:        uuid.New(),
		SessionId: "sess_test",
		TurnIndex: index,
		Question:  question,
		Answer:    answer,
	}
}

func TestRetrieveEmptyPool(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, nopLogger{}, DefaultConfig())
	uow := &fakeUow{turnRepo: &fakeTurnRepo{}}

	got, err := r.Retrieve(context.Background(), uow, "sess_test", "之前的题")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if got == nil {
		t.Fatal("Retrieve returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Retrieve returned %d turns, want 0", len(got))
	}
}

func TestRetrieveRanksByLexicalScoreOnly(t *testing.T) {
	repo := &fakeTurnRepo{
		turns: []*entity.TurnDocument{
			turn(1, "什么是 分数 加法", "先 通分 再 相加"),
			turn(2, "三角形 面积 怎么 算", "底 乘 高 除以 二"),
			turn(3, "分数 加法 的 例子", "二分之一 加 三分之一"),
		},
	}
	// Vector search disagrees with BM25 on purpose: turn 2 gets the
	// highest similarity but must not move up.
	repo.similarities = []*contract.ScoredTurnDocument{
		{Turn: repo.turns[1], Similarity: 0.99},
		{Turn: repo.turns[0], Similarity: 0.42},
		{Turn: repo.turns[2], Similarity: 0.40},
	}

	r := NewRetriever(&fakeEmbedder{}, nopLogger{}, Config{TopK: 3})
	got, err := r.Retrieve(context.Background(), &fakeUow{turnRepo: repo}, "sess_test", "分数 加法")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Retrieve returned %d turns, want 3", len(got))
	}

	if got[0].TurnIndex == 2 {
		t.Error("similarity reordered results; lexical score must be the only sort key")
	}
	if got[2].TurnIndex != 2 {
		t.Errorf("unrelated turn should rank last, got turn %d", got[2].TurnIndex)
	}
	for _, st := range got {
		if st.TurnIndex == 2 && st.Similarity != 0.99 {
			t.Errorf("similarity not attached: got %f, want 0.99", st.Similarity)
		}
	}
}

func TestRetrieveTieBreaksOnTurnIndex(t *testing.T) {
	repo := &fakeTurnRepo{
		turns: []*entity.TurnDocument{
			turn(1, "质数 是 什么", "只能 被 一 和 自身 整除"),
			turn(2, "质数 是 什么", "只能 被 一 和 自身 整除"),
		},
	}

	r := NewRetriever(&fakeEmbedder{err: errors.New("no embedder")}, nopLogger{}, Config{TopK: 2})
	got, err := r.Retrieve(context.Background(), &fakeUow{turnRepo: repo}, "sess_test", "质数")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve returned %d turns, want 2", len(got))
	}
	if got[0].TurnIndex != 1 {
		t.Errorf("tie should go to the earlier turn, got turn %d first", got[0].TurnIndex)
	}
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	repo := &fakeTurnRepo{}
	for i := 1; i <= 5; i++ {
		repo.turns = append(repo.turns, turn(i, "方程 求解", "移项 合并"))
	}

	r := NewRetriever(&fakeEmbedder{}, nopLogger{}, Config{TopK: 3})
	got, err := r.Retrieve(context.Background(), &fakeUow{turnRepo: repo}, "sess_test", "方程")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Retrieve returned %d turns, want 3", len(got))
	}
}

func TestRetrieveDegradesWhenEmbeddingFails(t *testing.T) {
	repo := &fakeTurnRepo{
		turns: []*entity.TurnDocument{
			turn(1, "圆 的 周长", "直径 乘 圆周率"),
		},
	}

	r := NewRetriever(&fakeEmbedder{err: errors.New("provider down")}, nopLogger{}, DefaultConfig())
	got, err := r.Retrieve(context.Background(), &fakeUow{turnRepo: repo}, "sess_test", "圆 的 周长")
	if err != nil {
		t.Fatalf("embedding failure must not fail retrieval: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve returned %d turns, want 1", len(got))
	}
	if got[0].Similarity != 0 {
		t.Errorf("similarity should be zero when embedding fails, got %f", got[0].Similarity)
	}
}

func TestRetrieveDegradesWhenVectorSearchFails(t *testing.T) {
	repo := &fakeTurnRepo{
		turns: []*entity.TurnDocument{
			turn(1, "圆 的 面积", "半径 平方 乘 圆周率"),
		},
		similarityErr: errors.New("pgvector down"),
	}

	r := NewRetriever(&fakeEmbedder{}, nopLogger{}, DefaultConfig())
	got, err := r.Retrieve(context.Background(), &fakeUow{turnRepo: repo}, "sess_test", "面积")
	if err != nil {
		t.Fatalf("vector search failure must not fail retrieval: %v", err)
	}
	if got[0].Similarity != 0 {
		t.Errorf("similarity should be zero when vector search fails, got %f", got[0].Similarity)
	}
}

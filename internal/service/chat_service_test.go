package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/contract"
	"github.com/ywqqqq/xuedong-ai/internal/repository/memory"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/pkg/embedding"
	"github.com/ywqqqq/xuedong-ai/pkg/llm"
	"github.com/ywqqqq/xuedong-ai/pkg/retrieval"

	promptpkg "github.com/ywqqqq/xuedong-ai/pkg/prompt"
)

// ---- test doubles ----

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }
func (testLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (testLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

type fakeLLM struct {
	responses []string
	calls     [][]llm.Message
	err       error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls = append(f.calls, history)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.5, 0.5}},
	}, nil
}

// fakeStore backs all repositories with plain in-memory slices.
type fakeStore struct {
	sessions       map[string]*entity.TutorSession
	messages       []*entity.Message
	turns          []*entity.TurnDocument
	nextMessageId  int64
	failTurnCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*entity.TutorSession)}
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.TutorSession) error {
	r.store.sessions[session.Id] = session
	return nil
}
func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.TutorSession) error {
	r.store.sessions[session.Id] = session
	return nil
}
func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TutorSession, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if s, found := r.store.sessions[byID.ID.(string)]; found {
				return s, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}
func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TutorSession, error) {
	var out []*entity.TutorSession
	for _, s := range r.store.sessions {
		out = append(out, s)
	}
	return out, nil
}
func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.sessions)), nil
}

type fakeMessageRepo struct{ store *fakeStore }

func sessionIDOf(specs []specification.Specification) string {
	for _, spec := range specs {
		if bySession, ok := spec.(specification.BySessionID); ok {
			return bySession.SessionID
		}
	}
	return ""
}

func roleOf(specs []specification.Specification) string {
	for _, spec := range specs {
		if byRole, ok := spec.(specification.ByRole); ok {
			return byRole.Role
		}
	}
	return ""
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	r.store.nextMessageId++
	msg.Id = r.store.nextMessageId
	msg.CreatedAt = time.Now()
	r.store.messages = append(r.store.messages, msg)
	return nil
}
func (r *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	sessionId := sessionIDOf(specs)
	role := roleOf(specs)
	for _, m := range r.store.messages {
		if m.SessionId == sessionId && (role == "" || m.Role == role) {
			return m, nil
		}
	}
	return nil, nil
}
func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	sessionId := sessionIDOf(specs)
	var out []*entity.Message
	for _, m := range r.store.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, _ := r.FindAll(ctx, specs...)
	return int64(len(msgs)), nil
}

type fakeTurnDocRepo struct{ store *fakeStore }

func (r *fakeTurnDocRepo) Create(ctx context.Context, doc *entity.TurnDocument) error {
	if r.store.failTurnCreate {
		return errors.New("turn_documents insert failed")
	}
	doc.Id = uuid.New()
	r.store.turns = append(r.store.turns, doc)
	return nil
}
func (r *fakeTurnDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnDocument, error) {
	return nil, nil
}
func (r *fakeTurnDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnDocument, error) {
	sessionId := sessionIDOf(specs)
	var out []*entity.TurnDocument
	for _, d := range r.store.turns {
		if d.SessionId == sessionId {
			out = append(out, d)
		}
	}
	return out, nil
}
func (r *fakeTurnDocRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, _ := r.FindAll(ctx, specs...)
	return int64(len(docs)), nil
}
func (r *fakeTurnDocRepo) NextTurnIndex(ctx context.Context, sessionId string) (int, error) {
	next := 1
	for _, d := range r.store.turns {
		if d.SessionId == sessionId && d.TurnIndex >= next {
			next = d.TurnIndex + 1
		}
	}
	return next, nil
}
func (r *fakeTurnDocRepo) SearchSimilarWithScore(ctx context.Context, sessionId string, queryEmbedding []float32, limit int) ([]*contract.ScoredTurnDocument, error) {
	return nil, nil
}

type fakeKnowledgeRepo struct {
	points        map[string]*entity.KnowledgePoint
	sessionCounts map[string]int
	userCounts    map[string]int
	nextPointId   int64
}

func newFakeKnowledgeRepo() *fakeKnowledgeRepo {
	return &fakeKnowledgeRepo{
		points:        make(map[string]*entity.KnowledgePoint),
		sessionCounts: make(map[string]int),
		userCounts:    make(map[string]int),
	}
}

func (r *fakeKnowledgeRepo) FindOrCreatePoint(ctx context.Context, name string) (*entity.KnowledgePoint, error) {
	if p, ok := r.points[name]; ok {
		return p, nil
	}
	r.nextPointId++
	p := &entity.KnowledgePoint{Id: r.nextPointId, Name: name}
	r.points[name] = p
	return p, nil
}
func (r *fakeKnowledgeRepo) FindPoints(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgePoint, error) {
	var out []*entity.KnowledgePoint
	for _, p := range r.points {
		out = append(out, p)
	}
	return out, nil
}
func (r *fakeKnowledgeRepo) IncrementSessionCount(ctx context.Context, sessionId string, knowledgeId int64) error {
	r.sessionCounts[sessionId]++
	return nil
}
func (r *fakeKnowledgeRepo) IncrementUserCount(ctx context.Context, userId string, knowledgeId int64) error {
	r.userCounts[userId]++
	return nil
}
func (r *fakeKnowledgeRepo) FindSessionKnowledge(ctx context.Context, sessionId string) ([]*entity.SessionKnowledge, error) {
	return nil, nil
}
func (r *fakeKnowledgeRepo) FindUserKnowledge(ctx context.Context, userId string) ([]*entity.UserKnowledge, error) {
	return nil, nil
}

type fakeUnitOfWork struct {
	store     *fakeStore
	knowledge *fakeKnowledgeRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }
func (u *fakeUnitOfWork) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUnitOfWork) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUnitOfWork) TurnDocumentRepository() contract.TurnDocumentRepository {
	return &fakeTurnDocRepo{store: u.store}
}
func (u *fakeUnitOfWork) KnowledgeRepository() contract.KnowledgeRepository {
	return u.knowledge
}

type fakeFactory struct {
	store     *fakeStore
	knowledge *fakeKnowledgeRepo
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store, knowledge: f.knowledge}
}

func newTestChatService(store *fakeStore, provider *fakeLLM) IChatService {
	embedder := &stubEmbedder{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	return NewChatService(
		&fakeFactory{store: store, knowledge: newFakeKnowledgeRepo()},
		memory.NewSessionStateRepository(),
		provider,
		embedder,
		retrieval.NewRetriever(embedder, testLogger{}, retrieval.DefaultConfig()),
		promptpkg.NewBuilder(),
		nil, // no speech recognizer
		pubSub,
		nil, // no NATS in unit tests
		testLogger{},
		5*time.Second,
	)
}

func seedSession(store *fakeStore, id, userId, status string) *entity.TutorSession {
	now := time.Now()
	s := &entity.TutorSession{
		Id:           id,
		UserId:       userId,
		Title:        "测试会话",
		Status:       status,
		StartTime:    now,
		LastActiveAt: now,
	}
	store.sessions[id] = s
	return s
}

// ---- tests ----

func TestNewSessionId(t *testing.T) {
	id := NewSessionId()
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.Len(t, id, len("sess_")+32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewSessionId())
}

func TestSubmitTurnCreatesSessionAndPersists(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []string{
		"🔍 先审题：1+1 是最基本的加法。",
		"为什么加法满足交换律？\n2+2等于几？\n加法和乘法有什么关系？\n多余的第四行",
	}}
	svc := newTestChatService(store, provider)

	resp, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "1+1等于几",
	})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.SessionId, "sess_"))
	assert.Equal(t, "🔍 先审题：1+1 是最基本的加法。", resp.Response)
	assert.True(t, resp.Saved)
	assert.Empty(t, resp.SaveError)
	assert.Len(t, resp.FollowUpQuestions, 3)

	assert.Len(t, store.messages, 2)
	assert.Equal(t, "user", store.messages[0].Role)
	assert.Equal(t, "1+1等于几", store.messages[0].Content)
	assert.Equal(t, "assistant", store.messages[1].Role)

	assert.Len(t, store.turns, 1)
	assert.Equal(t, 1, store.turns[0].TurnIndex)
	assert.Equal(t, "1+1等于几", store.turns[0].Question)
	assert.NotEmpty(t, store.turns[0].Embedding)
}

func TestSubmitTurnNormalizesWhitespace(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []string{"好的。", "追问"}}
	svc := newTestChatService(store, provider)

	resp, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "  解方程\n\n x+1=2  ",
	})
	assert.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Equal(t, "解方程 x+1=2", store.messages[0].Content)
}

func TestSubmitTurnNormalizesAssistantReply(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []string{"答案  是\n\n2。", "追问"}}
	svc := newTestChatService(store, provider)

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "1+1等于几",
	})
	assert.NoError(t, err)

	// Both roles get the same whitespace treatment before storage.
	assert.Len(t, store.messages, 2)
	assert.Equal(t, "答案 是 2。", store.messages[1].Content)
	assert.Len(t, store.turns, 1)
	assert.Equal(t, "答案 是 2。", store.turns[0].Answer)
}

func TestSubmitTurnRejectsEmptyMessage(t *testing.T) {
	svc := newTestChatService(newFakeStore(), &fakeLLM{})

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "   \n\t ",
	})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestSubmitTurnImageOnlyGetsDefaultText(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []string{"这道题是分数加法。", "追问"}}
	svc := newTestChatService(store, provider)

	resp, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:    "user-1",
		ImageData: []byte{0xff, 0xd8, 0xff},
		ImageName: "photo.jpg",
	})
	assert.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Equal(t, "请帮我看看这道题。", store.messages[0].Content)
	assert.Len(t, store.messages[0].Parts, 2)
	assert.Equal(t, "image_url", store.messages[0].Parts[1].Type)
}

func TestSubmitTurnExistingSessionWithoutUserId(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_known", "user-1", entity.SessionStatusActive)
	provider := &fakeLLM{responses: []string{"好的。", "追问"}}
	svc := newTestChatService(store, provider)

	resp, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_known",
		Message:   "继续上一题",
	})
	assert.NoError(t, err)
	assert.Equal(t, "sess_known", resp.SessionId)
	assert.True(t, resp.Saved)
}

func TestSubmitTurnRequiresSomeIdentifier(t *testing.T) {
	svc := newTestChatService(newFakeStore(), &fakeLLM{})

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		Message: "1+1等于几",
	})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestSubmitTurnUnknownSession(t *testing.T) {
	svc := newTestChatService(newFakeStore(), &fakeLLM{})

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_missing",
		UserId:    "user-1",
		Message:   "你好",
	})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestSubmitTurnRejectsCompletedSession(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_done", "user-1", entity.SessionStatusCompleted)
	svc := newTestChatService(store, &fakeLLM{})

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_done",
		UserId:    "user-1",
		Message:   "继续讲",
	})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestSubmitTurnUpstreamFailure(t *testing.T) {
	svc := newTestChatService(newFakeStore(), &fakeLLM{err: errors.New("model unavailable")})

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "1+1等于几",
	})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestSubmitTurnSaveFailureStillReturnsAnswer(t *testing.T) {
	store := newFakeStore()
	store.failTurnCreate = true
	provider := &fakeLLM{responses: []string{"答案是 2。", "追问"}}
	svc := newTestChatService(store, provider)

	resp, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		UserId:  "user-1",
		Message: "1+1等于几",
	})
	assert.NoError(t, err, "a persist failure must not fail the request")
	assert.Equal(t, "答案是 2。", resp.Response)
	assert.False(t, resp.Saved)
	assert.NotEmpty(t, resp.SaveError)
	assert.Empty(t, resp.FollowUpQuestions)
}

func TestSubmitTurnInjectsRetrievedContext(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_ctx", "user-1", entity.SessionStatusActive)
	store.turns = append(store.turns, &entity.TurnDocument{
		Id:        uuid.New(),
		SessionId: "sess_ctx",
		TurnIndex: 1,
		Question:  "分数 加法 怎么 算",
		Answer:    "先 通分 再 把 分子 相加",
	})

	provider := &fakeLLM{responses: []string{"我们继续讲通分。", "追问"}}
	svc := newTestChatService(store, provider)

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_ctx",
		UserId:    "user-1",
		Message:   "之前讲的 通分 是 什么",
	})
	assert.NoError(t, err)

	if assert.NotEmpty(t, provider.calls) {
		system := provider.calls[0][0]
		assert.Equal(t, "system", system.Role)
		assert.Contains(t, system.Content, "=== 回合 1 ===")
		assert.Contains(t, system.Content, "先 通分 再 把 分子 相加")
	}
}

func TestSubmitTurnSkipsRetrievalWithoutTrigger(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_plain", "user-1", entity.SessionStatusActive)
	store.turns = append(store.turns, &entity.TurnDocument{
		Id:        uuid.New(),
		SessionId: "sess_plain",
		TurnIndex: 1,
		Question:  "分数 加法",
		Answer:    "先 通分",
	})

	provider := &fakeLLM{responses: []string{"好的。", "追问"}}
	svc := newTestChatService(store, provider)

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_plain",
		UserId:    "user-1",
		Message:   "三角形 面积 怎么 算",
	})
	assert.NoError(t, err)

	if assert.NotEmpty(t, provider.calls) {
		assert.NotContains(t, provider.calls[0][0].Content, "=== 回合")
	}
}

func TestGetHistoryReturnsMessagesInOrder(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_h", "user-1", entity.SessionStatusActive)
	provider := &fakeLLM{responses: []string{"第一轮回答。", "追问", "第二轮回答。", "追问"}}
	svc := newTestChatService(store, provider)

	for _, q := range []string{"第一问", "第二问"} {
		_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
			SessionId: "sess_h",
			UserId:    "user-1",
			Message:   q,
		})
		assert.NoError(t, err)
	}

	history, err := svc.GetHistory(context.Background(), "sess_h")
	assert.NoError(t, err)
	assert.Len(t, history.Messages, 4)
	assert.Equal(t, "第一问", history.Messages[0].Content)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "assistant", history.Messages[3].Role)
	assert.Equal(t, "第二轮回答。", history.Messages[3].Content)
}

func TestCloseSessionIdempotent(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_c", "user-1", entity.SessionStatusActive)
	svc := newTestChatService(store, &fakeLLM{})

	first, err := svc.CloseSession(context.Background(), "sess_c")
	assert.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, first.Status)
	endTime := store.sessions["sess_c"].EndTime
	assert.NotNil(t, endTime)

	second, err := svc.CloseSession(context.Background(), "sess_c")
	assert.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, second.Status)
	assert.Equal(t, endTime, store.sessions["sess_c"].EndTime, "repeat close must not move the end time")
}

func TestCloseSessionPreservesHistory(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "sess_keep", "user-1", entity.SessionStatusActive)
	provider := &fakeLLM{responses: []string{"回答。", "追问"}}
	svc := newTestChatService(store, provider)

	_, err := svc.SubmitTurn(context.Background(), SubmitTurnInput{
		SessionId: "sess_keep",
		UserId:    "user-1",
		Message:   "结束前的问题",
	})
	assert.NoError(t, err)

	_, err = svc.CloseSession(context.Background(), "sess_keep")
	assert.NoError(t, err)

	// Closing ends the session but keeps everything it accumulated.
	assert.Equal(t, entity.SessionStatusCompleted, store.sessions["sess_keep"].Status)
	assert.Len(t, store.messages, 2)
	assert.Len(t, store.turns, 1)

	history, err := svc.GetHistory(context.Background(), "sess_keep")
	assert.NoError(t, err)
	assert.Len(t, history.Messages, 2)
}

func TestParseFollowUps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want []string
	}{
		{
			name: "caps at max",
			raw:  "一\n二\n三\n四",
			max:  3,
			want: []string{"一", "二", "三"},
		},
		{
			name: "skips blank lines",
			raw:  "\n一\n\n  \n二\n",
			max:  3,
			want: []string{"一", "二"},
		},
		{
			name: "empty input",
			raw:  "",
			max:  3,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFollowUps(tt.raw, tt.max))
		})
	}
}

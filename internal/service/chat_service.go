package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/constant"
	"github.com/ywqqqq/xuedong-ai/internal/dto"
	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/memory"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/pkg/embedding"
	"github.com/ywqqqq/xuedong-ai/pkg/events"
	"github.com/ywqqqq/xuedong-ai/pkg/llm"
	natspkg "github.com/ywqqqq/xuedong-ai/pkg/nats"
	"github.com/ywqqqq/xuedong-ai/pkg/prompt"
	"github.com/ywqqqq/xuedong-ai/pkg/retrieval"
	"github.com/ywqqqq/xuedong-ai/pkg/speech"
	"github.com/ywqqqq/xuedong-ai/pkg/utils"
)

const TopicTurnCompleted = "turn.completed"

// TurnCompletedMessage is the internal bus payload consumed by the
// knowledge tracker.
type TurnCompletedMessage struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	TurnIndex int    `json:"turn_index"`
}

// SubmitTurnInput carries one student submission. Message, ImageData
// and AudioPCM are each optional, but text must be resolvable from
// Message or AudioPCM.
type SubmitTurnInput struct {
	SessionId string
	UserId    string
	Message   string
	ImageData []byte
	ImageName string
	AudioPCM  []byte
}

type IChatService interface {
	SubmitTurn(ctx context.Context, input SubmitTurnInput) (*dto.SubmitTurnResponse, error)
	ListSessions(ctx context.Context, userId string) (*dto.SessionListResponse, error)
	GetHistory(ctx context.Context, sessionId string) (*dto.SessionHistoryResponse, error)
	CloseSession(ctx context.Context, sessionId string) (*dto.CloseSessionResponse, error)
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	stateRepo         *memory.SessionStateRepository
	llmProvider       llm.LLMProvider
	embeddingProvider embedding.EmbeddingProvider
	retriever         *retrieval.Retriever
	promptBuilder     *prompt.Builder
	recognizer        speech.Recognizer
	pubSub            *gochannel.GoChannel
	natsPublisher     *natspkg.Publisher
	logger            logger.ILogger
	llmTimeout        time.Duration
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.SessionStateRepository,
	llmProvider llm.LLMProvider,
	embeddingProvider embedding.EmbeddingProvider,
	retriever *retrieval.Retriever,
	promptBuilder *prompt.Builder,
	recognizer speech.Recognizer,
	pubSub *gochannel.GoChannel,
	natsPublisher *natspkg.Publisher,
	log logger.ILogger,
	llmTimeout time.Duration,
) IChatService {
	if llmTimeout <= 0 {
		llmTimeout = 120 * time.Second
	}
	return &chatService{
		uowFactory:        uowFactory,
		stateRepo:         stateRepo,
		llmProvider:       llmProvider,
		embeddingProvider: embeddingProvider,
		retriever:         retriever,
		promptBuilder:     promptBuilder,
		recognizer:        recognizer,
		pubSub:            pubSub,
		natsPublisher:     natsPublisher,
		logger:            log,
		llmTimeout:        llmTimeout,
	}
}

func NewSessionId() string {
	return constant.SessionIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func (s *chatService) SubmitTurn(ctx context.Context, input SubmitTurnInput) (*dto.SubmitTurnResponse, error) {
	// A turn targets an existing session or opens a new one for a user.
	if input.SessionId == "" && input.UserId == "" {
		return nil, apperror.InvalidRequest("either session_id or user_id is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Audio first: a voice submission becomes the turn's text.
	text := input.Message
	if text == "" && len(input.AudioPCM) > 0 {
		if s.recognizer == nil {
			return nil, apperror.InvalidRequest("audio input is not supported")
		}
		transcribed, err := s.recognizer.Transcribe(ctx, input.AudioPCM)
		if err != nil {
			return nil, apperror.Upstream("speech recognition failed", err)
		}
		text = transcribed
	}

	text = utils.CleanText(text)
	if text == "" && len(input.ImageData) == 0 {
		return nil, apperror.InvalidRequest("message must not be empty")
	}
	if text == "" {
		text = "请帮我看看这道题。"
	}

	session, created, err := s.resolveSession(ctx, uow, input.SessionId, input.UserId, text)
	if err != nil {
		return nil, err
	}

	// One turn at a time per session.
	lock := s.stateRepo.Lock(session.Id)
	lock.Lock()
	defer lock.Unlock()

	history, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, apperror.Storage("failed to load session history", err)
	}

	retrieved := s.retrieveContext(ctx, uow, session.Id, text)

	currentMsg := llm.Message{Role: constant.ChatMessageRoleUser, Content: text}
	if len(input.ImageData) > 0 {
		currentMsg.Parts = []llm.Part{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: utils.ImageToDataURI(input.ImageData, input.ImageName)},
		}
	}

	messages := s.promptBuilder.BuildTurnMessages(history, retrieved, currentMsg)

	answer, err := s.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubmitTurnResponse{
		SessionId: session.Id,
		Response:  answer,
		Saved:     true,
	}

	if err := s.persistTurn(ctx, session, created, currentMsg, text, answer); err != nil {
		s.logger.Error("chat", "failed to persist turn", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
		resp.Saved = false
		resp.SaveError = err.Error()
		return resp, nil
	}

	resp.FollowUpQuestions = s.generateFollowUps(ctx, answer)
	s.stateRepo.SaveState(session.Id, &memory.SessionState{
		LastFollowUps: resp.FollowUpQuestions,
		LastTurnAt:    time.Now(),
	})

	return resp, nil
}

// resolveSession loads the target session or creates a fresh one when
// no id was supplied.
func (s *chatService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId, firstText string) (*entity.TutorSession, bool, error) {
	if sessionId == "" {
		now := time.Now()
		session := &entity.TutorSession{
			Id:           NewSessionId(),
			UserId:       userId,
			Title:        utils.Preview(firstText, constant.SessionPreviewRunes),
			Status:       entity.SessionStatusActive,
			StartTime:    now,
			LastActiveAt: now,
		}
		if err := uow.SessionRepository().Create(ctx, session); err != nil {
			return nil, false, apperror.Storage("failed to create session", err)
		}
		s.publishEvent(ctx, events.NewSessionCreatedEvent(session.Id, userId))
		return session, true, nil
	}

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, false, apperror.Storage("failed to load session", err)
	}
	if session == nil {
		return nil, false, apperror.NotFound(fmt.Sprintf("session %s not found", sessionId))
	}
	if session.IsCompleted() {
		return nil, false, apperror.InvalidRequest(fmt.Sprintf("session %s is already completed", sessionId))
	}
	return session, false, nil
}

// retrieveContext runs hybrid retrieval when the question points back
// at earlier turns. Any failure degrades to an empty context.
func (s *chatService) retrieveContext(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, text string) []retrieval.ScoredTurn {
	if !retrieval.ReferencesPast(text) {
		return nil
	}

	retrieved, err := s.retriever.Retrieve(ctx, uow, sessionId, text)
	if err != nil {
		s.logger.Warn("chat", "context retrieval failed, continuing without context", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil
	}
	return retrieved
}

func (s *chatService) generate(ctx context.Context, messages []llm.Message) (string, error) {
	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	answer, err := s.llmProvider.Chat(llmCtx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || llmCtx.Err() == context.DeadlineExceeded {
			return "", apperror.UpstreamTimeout("model generation timed out", err)
		}
		return "", apperror.Upstream("model generation failed", err)
	}
	return answer, nil
}

// persistTurn stores both messages and the retrieval document in one
// transaction, then announces the completed turn. Stored text is
// whitespace-normalized for both roles so indexed text stays stable.
func (s *chatService) persistTurn(ctx context.Context, session *entity.TutorSession, created bool, userMsg llm.Message, question, answer string) error {
	cleanAnswer := utils.CleanText(answer)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	var parts []entity.ContentPart
	for _, p := range userMsg.Parts {
		parts = append(parts, entity.ContentPart{Type: p.Type, Text: p.Text, ImageURL: p.ImageURL})
	}

	userEntity := &entity.Message{
		SessionId: session.Id,
		Role:      constant.ChatMessageRoleUser,
		Content:   question,
		Parts:     parts,
	}
	if err := uow.MessageRepository().Create(ctx, userEntity); err != nil {
		uow.Rollback()
		return err
	}

	assistantEntity := &entity.Message{
		SessionId: session.Id,
		Role:      constant.ChatMessageRoleAssistant,
		Content:   cleanAnswer,
	}
	if err := uow.MessageRepository().Create(ctx, assistantEntity); err != nil {
		uow.Rollback()
		return err
	}

	turnIndex, err := uow.TurnDocumentRepository().NextTurnIndex(ctx, session.Id)
	if err != nil {
		uow.Rollback()
		return err
	}

	doc := &entity.TurnDocument{
		SessionId: session.Id,
		TurnIndex: turnIndex,
		Question:  question,
		Answer:    cleanAnswer,
		Embedding: s.embedTurn(session.Id, question, cleanAnswer),
	}
	if err := uow.TurnDocumentRepository().Create(ctx, doc); err != nil {
		uow.Rollback()
		return err
	}

	if !created {
		now := time.Now()
		session.LastActiveAt = now
		if err := uow.SessionRepository().Update(ctx, session); err != nil {
			uow.Rollback()
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.announceTurn(ctx, session, question, answer, turnIndex)
	return nil
}

// embedTurn computes the document embedding. Failure yields nil, which
// persists as NULL and simply excludes the turn from vector search.
func (s *chatService) embedTurn(sessionId, question, answer string) []float32 {
	res, err := s.embeddingProvider.Generate(question+" "+answer, embedding.TaskTypeDocument)
	if err != nil {
		s.logger.Warn("chat", "turn embedding failed, storing without vector", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil
	}
	return res.Embedding.Values
}

func (s *chatService) announceTurn(ctx context.Context, session *entity.TutorSession, question, answer string, turnIndex int) {
	payload, err := json.Marshal(TurnCompletedMessage{
		SessionId: session.Id,
		UserId:    session.UserId,
		Question:  question,
		Answer:    answer,
		TurnIndex: turnIndex,
	})
	if err == nil {
		msg := message.NewMessage(uuid.New().String(), payload)
		if err := s.pubSub.Publish(TopicTurnCompleted, msg); err != nil {
			s.logger.Warn("chat", "failed to publish turn to internal bus", map[string]interface{}{
				"session_id": session.Id,
				"error":      err.Error(),
			})
		}
	}

	s.publishEvent(ctx, events.NewTurnCompletedEvent(session.Id, session.UserId, question, answer, turnIndex))
}

func (s *chatService) publishEvent(ctx context.Context, event events.Event) {
	if s.natsPublisher == nil {
		return
	}
	if err := s.natsPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("chat", "failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

// generateFollowUps asks the model for suggested next questions. This
// is best-effort; failures return no suggestions.
func (s *chatService) generateFollowUps(ctx context.Context, answer string) []string {
	followCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	raw, err := s.llmProvider.Chat(followCtx, s.promptBuilder.BuildFollowUpMessages(answer))
	if err != nil {
		s.logger.Warn("chat", "follow-up generation failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	return ParseFollowUps(raw, constant.DefaultFollowUpCount)
}

// ParseFollowUps splits the model output into trimmed, non-empty
// lines, capped at max.
func ParseFollowUps(raw string, max int) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if len(questions) == max {
			break
		}
	}
	return questions
}

func (s *chatService) ListSessions(ctx context.Context, userId string) (*dto.SessionListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "last_active_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Storage("failed to list sessions", err)
	}

	result := &dto.SessionListResponse{Sessions: make([]dto.SessionSummaryResponse, 0, len(sessions))}
	for _, session := range sessions {
		count, err := uow.MessageRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
		if err != nil {
			return nil, apperror.Storage("failed to count messages", err)
		}

		preview := ""
		firstMsg, err := uow.MessageRepository().FindOne(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.ByRole{Role: constant.ChatMessageRoleUser},
			specification.OrderBy{Field: "id"},
		)
		if err != nil {
			return nil, apperror.Storage("failed to load session preview", err)
		}
		if firstMsg != nil {
			preview = utils.Preview(firstMsg.Content, constant.SessionPreviewRunes)
		}

		result.Sessions = append(result.Sessions, dto.SessionSummaryResponse{
			SessionId:    session.Id,
			Title:        session.Title,
			Status:       session.Status,
			Preview:      preview,
			MessageCount: int(count),
			StartTime:    session.StartTime,
			EndTime:      session.EndTime,
			LastActiveAt: session.LastActiveAt,
		})
	}
	return result, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionId string) (*dto.SessionHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.Storage("failed to load session", err)
	}
	if session == nil {
		return nil, apperror.NotFound(fmt.Sprintf("session %s not found", sessionId))
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, apperror.Storage("failed to load messages", err)
	}

	resp := &dto.SessionHistoryResponse{
		SessionId: sessionId,
		Messages:  make([]dto.MessageResponse, len(messages)),
	}
	for i, m := range messages {
		resp.Messages[i] = dto.MessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return resp, nil
}

// CloseSession marks the session completed. Sessions are never
// deleted; both the close and delete routes land here. Closing an
// already completed session is a no-op acknowledgement.
func (s *chatService) CloseSession(ctx context.Context, sessionId string) (*dto.CloseSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.Storage("failed to load session", err)
	}
	if session == nil {
		return nil, apperror.NotFound(fmt.Sprintf("session %s not found", sessionId))
	}

	if !session.IsCompleted() {
		now := time.Now()
		session.Status = entity.SessionStatusCompleted
		session.EndTime = &now
		if err := uow.SessionRepository().Update(ctx, session); err != nil {
			return nil, apperror.Storage("failed to close session", err)
		}
		s.publishEvent(ctx, events.NewSessionClosedEvent(session.Id, session.UserId))
		// Completed sessions take no more turns; drop their lock and
		// cached follow-ups.
		s.stateRepo.Delete(sessionId)
	}

	return &dto.CloseSessionResponse{
		SessionId: session.Id,
		Status:    session.Status,
	}, nil
}

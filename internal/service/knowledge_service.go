package service

import (
	"context"
	"strings"
	"time"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/constant"
	"github.com/ywqqqq/xuedong-ai/internal/dto"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/pkg/llm"
	"github.com/ywqqqq/xuedong-ai/pkg/prompt"
)

type IKnowledgeService interface {
	GenerateByKnowledge(ctx context.Context, req *dto.GenerateByKnowledgeRequest) (*dto.GenerateByKnowledgeResponse, error)
	GetSessionKnowledge(ctx context.Context, sessionId string) (*dto.SessionKnowledgeResponse, error)
	GetUserKnowledge(ctx context.Context, userId string) (*dto.UserKnowledgeResponse, error)
}

type knowledgeService struct {
	uowFactory    unitofwork.RepositoryFactory
	llmProvider   llm.LLMProvider
	promptBuilder *prompt.Builder
	logger        logger.ILogger
	llmTimeout    time.Duration
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	promptBuilder *prompt.Builder,
	log logger.ILogger,
	llmTimeout time.Duration,
) IKnowledgeService {
	if llmTimeout <= 0 {
		llmTimeout = 120 * time.Second
	}
	return &knowledgeService{
		uowFactory:    uowFactory,
		llmProvider:   llmProvider,
		promptBuilder: promptBuilder,
		logger:        log,
		llmTimeout:    llmTimeout,
	}
}

// ExtractTaggedContent pulls the text between <tag> and </tag>,
// trimmed. Missing tags yield an empty string.
func ExtractTaggedContent(text, tag string) string {
	startTag := "<" + tag + ">"
	endTag := "</" + tag + ">"

	start := strings.Index(text, startTag)
	if start == -1 {
		return ""
	}
	start += len(startTag)
	end := strings.Index(text[start:], endTag)
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(text[start : start+end])
}

func (s *knowledgeService) GenerateByKnowledge(ctx context.Context, req *dto.GenerateByKnowledgeRequest) (*dto.GenerateByKnowledgeResponse, error) {
	if len(req.KnowledgePoints) == 0 {
		return nil, apperror.InvalidRequest("knowledge_points must not be empty")
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	messages := s.promptBuilder.BuildKnowledgeGenMessages(req.KnowledgePoints, req.HistoryQuestions)
	generated, err := s.llmProvider.Chat(llmCtx, messages)
	if err != nil {
		if llmCtx.Err() == context.DeadlineExceeded {
			return nil, apperror.UpstreamTimeout("problem generation timed out", err)
		}
		return nil, apperror.Upstream("problem generation failed", err)
	}

	resp := &dto.GenerateByKnowledgeResponse{
		Question:        ExtractTaggedContent(generated, constant.KnowledgeGenQuestionTag),
		Analysis:        ExtractTaggedContent(generated, constant.KnowledgeGenAnalysisTag),
		Answer:          ExtractTaggedContent(generated, constant.KnowledgeGenAnswerTag),
		KnowledgePoints: req.KnowledgePoints,
	}

	// Suggested next exercises are best-effort.
	followRaw, err := s.llmProvider.Chat(llmCtx, s.promptBuilder.BuildFollowUpMessages(generated))
	if err != nil {
		s.logger.Warn("knowledge", "follow-up generation failed", map[string]interface{}{"error": err.Error()})
	} else {
		resp.FollowUpSuggestions = ParseFollowUps(followRaw, constant.DefaultFollowUpCount)
	}

	return resp, nil
}

func (s *knowledgeService) GetSessionKnowledge(ctx context.Context, sessionId string) (*dto.SessionKnowledgeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stats, err := uow.KnowledgeRepository().FindSessionKnowledge(ctx, sessionId)
	if err != nil {
		return nil, apperror.Storage("failed to load session knowledge", err)
	}

	names, err := s.pointNames(ctx, uow)
	if err != nil {
		return nil, err
	}

	resp := &dto.SessionKnowledgeResponse{
		SessionId: sessionId,
		Points:    make([]dto.KnowledgeStatResponse, len(stats)),
	}
	for i, st := range stats {
		resp.Points[i] = dto.KnowledgeStatResponse{
			KnowledgeId:     st.KnowledgeId,
			Name:            names[st.KnowledgeId],
			UnfamiliarCount: st.UnfamiliarCount,
		}
	}
	return resp, nil
}

func (s *knowledgeService) GetUserKnowledge(ctx context.Context, userId string) (*dto.UserKnowledgeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stats, err := uow.KnowledgeRepository().FindUserKnowledge(ctx, userId)
	if err != nil {
		return nil, apperror.Storage("failed to load user knowledge", err)
	}

	names, err := s.pointNames(ctx, uow)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserKnowledgeResponse{
		UserId: userId,
		Points: make([]dto.KnowledgeStatResponse, len(stats)),
	}
	for i, st := range stats {
		resp.Points[i] = dto.KnowledgeStatResponse{
			KnowledgeId:     st.KnowledgeId,
			Name:            names[st.KnowledgeId],
			UnfamiliarCount: st.TotalUnfamiliarCount,
		}
	}
	return resp, nil
}

func (s *knowledgeService) pointNames(ctx context.Context, uow unitofwork.UnitOfWork) (map[int64]string, error) {
	points, err := uow.KnowledgeRepository().FindPoints(ctx)
	if err != nil {
		return nil, apperror.Storage("failed to load knowledge points", err)
	}
	names := make(map[int64]string, len(points))
	for _, p := range points {
		names[p.Id] = p.Name
	}
	return names, nil
}

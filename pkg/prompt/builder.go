package prompt

import (
	"fmt"
	"strings"

	"github.com/ywqqqq/xuedong-ai/internal/constant"
	"github.com/ywqqqq/xuedong-ai/internal/entity"
	"github.com/ywqqqq/xuedong-ai/pkg/llm"
	"github.com/ywqqqq/xuedong-ai/pkg/retrieval"
)

// Builder assembles the message list sent to the tutor model.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// BuildTurnMessages produces the full prompt for one turn: system
// persona, optional retrieved context, the session history, and the
// current user message.
func (b *Builder) BuildTurnMessages(history []*entity.Message, retrieved []ScoredContext, current llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+3)

	systemContent := constant.TutorSystemPrompt
	if block := b.FormatContextBlock(retrieved); block != "" {
		systemContent = systemContent + "\n\n" + block
	}
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: systemContent,
	})

	for _, m := range history {
		msg := llm.Message{Role: m.Role, Content: m.Content}
		for _, p := range m.Parts {
			msg.Parts = append(msg.Parts, llm.Part{Type: p.Type, Text: p.Text, ImageURL: p.ImageURL})
		}
		messages = append(messages, msg)
	}

	messages = append(messages, current)
	return messages
}

// ScoredContext aliases the retrieval result for prompt assembly.
type ScoredContext = retrieval.ScoredTurn

// FormatContextBlock renders retrieved turns as a reference block the
// model can cite. Empty input produces an empty string so the system
// prompt stays unchanged on cold sessions.
func (b *Builder) FormatContextBlock(retrieved []ScoredContext) string {
	if len(retrieved) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("以下是本次会话中与当前问题相关的历史回合，供你参考：\n")
	for _, turn := range retrieved {
		sb.WriteString(fmt.Sprintf("=== 回合 %d ===\n", turn.TurnIndex))
		sb.WriteString(fmt.Sprintf("学生：%s\n", turn.Question))
		sb.WriteString(fmt.Sprintf("老师：%s\n", turn.Answer))
	}
	sb.WriteString("如果学生的问题涉及这些历史回合，请保持讲解的连贯性。")
	return sb.String()
}

// BuildFollowUpMessages produces the prompt for follow-up question
// generation based on the answer just given.
func (b *Builder) BuildFollowUpMessages(answer string) []llm.Message {
	return []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.FollowUpSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.FollowUpUserPromptFormat, answer)},
	}
}

// BuildKnowledgeGenMessages produces the prompt for generating a
// practice problem from weak knowledge points.
func (b *Builder) BuildKnowledgeGenMessages(knowledgePoints, historyQuestions []string) []llm.Message {
	system := fmt.Sprintf(constant.KnowledgeGenSystemPrompt, strings.Join(knowledgePoints, ", "))

	userContent := "请根据以上知识点出一道新题。"
	if len(historyQuestions) > 0 {
		var sb strings.Builder
		sb.WriteString(userContent)
		sb.WriteString("\n\n历史题目参考（请避免重复）：\n")
		for i, q := range historyQuestions {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
		}
		userContent = sb.String()
	}

	return []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: system},
		{Role: constant.ChatMessageRoleUser, Content: userContent},
	}
}

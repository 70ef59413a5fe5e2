package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ywqqqq/xuedong-ai/internal/constant"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService tracks which knowledge points a student struggled
// with. It tails completed turns off the internal bus, extracts the
// knowledge point list the tutor emits, and bumps the per-session and
// per-user counters.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("knowledge-consumer", "failed to unmarshal turn message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	points := ExtractKnowledgePoints(payload.Answer)
	if len(points) == 0 {
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	for _, name := range points {
		point, err := uow.KnowledgeRepository().FindOrCreatePoint(ctx, name)
		if err != nil {
			cs.logger.Error("knowledge-consumer", "failed to resolve knowledge point", map[string]interface{}{
				"name":  name,
				"error": err.Error(),
			})
			msg.Nack()
			return
		}
		if err := uow.KnowledgeRepository().IncrementSessionCount(ctx, payload.SessionId, point.Id); err != nil {
			cs.logger.Error("knowledge-consumer", "failed to bump session counter", map[string]interface{}{
				"session_id": payload.SessionId,
				"error":      err.Error(),
			})
			msg.Nack()
			return
		}
		if err := uow.KnowledgeRepository().IncrementUserCount(ctx, payload.UserId, point.Id); err != nil {
			cs.logger.Error("knowledge-consumer", "failed to bump user counter", map[string]interface{}{
				"user_id": payload.UserId,
				"error":   err.Error(),
			})
			msg.Nack()
			return
		}
	}

	cs.logger.Info("knowledge-consumer", "tracked knowledge points", map[string]interface{}{
		"session_id": payload.SessionId,
		"points":     points,
	})
	msg.Ack()
}

var (
	knowledgeItemNumbering = regexp.MustCompile(`^\d+[.、)）]?\s*|[（(]\d+[)）]$`)
	knowledgeNumberedLine  = regexp.MustCompile(`^\d+[.、)）]`)
)

// ExtractKnowledgePoints parses the 📖 知识点 block out of a tutor
// answer. The tutor lists points after the marker, either inline
// separated by 、 or as numbered lines below it.
func ExtractKnowledgePoints(answer string) []string {
	lines := strings.Split(answer, "\n")
	var points []string

	for i, line := range lines {
		if !strings.Contains(line, constant.KnowledgePointMarker) {
			continue
		}

		// Inline form: "📖 知识点：分数加减（1）、通分（2）"
		if idx := strings.IndexAny(line, ":："); idx != -1 {
			_, width := utf8.DecodeRuneInString(line[idx:])
			points = append(points, splitKnowledgeItems(line[idx+width:])...)
		}

		// Numbered lines below the marker.
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(strings.TrimLeft(lines[j], " -\t"))
			if next == "" || strings.HasPrefix(next, "=") || strings.Contains(next, "📝") || strings.Contains(next, "🎯") {
				break
			}
			if !knowledgeNumberedLine.MatchString(next) {
				break
			}
			if item := cleanKnowledgeItem(next); item != "" {
				points = append(points, item)
			}
		}
		break
	}

	return dedupe(points)
}

func splitKnowledgeItems(text string) []string {
	var items []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '、' || r == ',' || r == '，' || r == ';' || r == '；'
	}) {
		if item := cleanKnowledgeItem(raw); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func cleanKnowledgeItem(raw string) string {
	item := strings.TrimSpace(raw)
	// Strip leading numbering and trailing parenthesized index.
	for {
		cleaned := knowledgeItemNumbering.ReplaceAllString(item, "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == item {
			break
		}
		item = cleaned
	}
	return item
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
)

func TestExtractKnowledgePoints(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{
			name:   "no marker",
			answer: "这道题用加法就可以了。",
			want:   nil,
		},
		{
			name:   "inline list with fullwidth colon",
			answer: "🎯 答案是 5/6。\n📖 知识点：分数加法（1）、通分（2）",
			want:   []string{"分数加法", "通分"},
		},
		{
			name:   "inline list with ascii colon and commas",
			answer: "📖 知识点: 一元一次方程, 移项",
			want:   []string{"一元一次方程", "移项"},
		},
		{
			name:   "numbered lines below the marker",
			answer: "📖 知识点\n1. 勾股定理\n2、直角三角形\n3）平方根",
			want:   []string{"勾股定理", "直角三角形", "平方根"},
		},
		{
			name:   "numbered block stops at next section",
			answer: "📖 知识点\n1. 通分\n📝 练习：试试 1/4+1/6",
			want:   []string{"通分"},
		},
		{
			name:   "duplicates removed",
			answer: "📖 知识点：通分、通分、分数加法",
			want:   []string{"通分", "分数加法"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKnowledgePoints(tt.answer))
		})
	}
}

func TestConsumerProcessMessageTracksCounters(t *testing.T) {
	knowledge := newFakeKnowledgeRepo()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	svc := NewConsumerService(pubSub, TopicTurnCompleted, &fakeFactory{store: newFakeStore(), knowledge: knowledge}, testLogger{})

	payload, err := json.Marshal(TurnCompletedMessage{
		SessionId: "sess_k",
		UserId:    "user-1",
		Question:  "1/2+1/3 等于几",
		Answer:    "🎯 答案是 5/6。\n📖 知识点：分数加法、通分",
		TurnIndex: 0,
	})
	assert.NoError(t, err)

	cs, ok := svc.(*consumerService)
	assert.True(t, ok)

	msg := message.NewMessage(watermill.NewUUID(), payload)
	cs.processMessage(context.Background(), msg)

	assert.Len(t, knowledge.points, 2)
	assert.Contains(t, knowledge.points, "分数加法")
	assert.Contains(t, knowledge.points, "通分")
	assert.Equal(t, 2, knowledge.sessionCounts["sess_k"])
	assert.Equal(t, 2, knowledge.userCounts["user-1"])
}

func TestConsumerProcessMessageIgnoresAnswersWithoutPoints(t *testing.T) {
	knowledge := newFakeKnowledgeRepo()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	svc := NewConsumerService(pubSub, TopicTurnCompleted, &fakeFactory{store: newFakeStore(), knowledge: knowledge}, testLogger{})

	payload, _ := json.Marshal(TurnCompletedMessage{
		SessionId: "sess_k",
		UserId:    "user-1",
		Answer:    "直接相加即可。",
	})

	cs := svc.(*consumerService)
	cs.processMessage(context.Background(), message.NewMessage(watermill.NewUUID(), payload))

	assert.Empty(t, knowledge.points)
}

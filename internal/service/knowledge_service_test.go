package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/dto"
	promptpkg "github.com/ywqqqq/xuedong-ai/pkg/prompt"
)

func TestExtractTaggedContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		tag  string
		want string
	}{
		{
			name: "basic extraction",
			text: "<timu>求 1/2 + 1/3 的值</timu>",
			tag:  "timu",
			want: "求 1/2 + 1/3 的值",
		},
		{
			name: "trims surrounding whitespace",
			text: "<daan>\n  5/6  \n</daan>",
			tag:  "daan",
			want: "5/6",
		},
		{
			name: "missing start tag",
			text: "只有正文没有标签",
			tag:  "timu",
			want: "",
		},
		{
			name: "missing end tag",
			text: "<jiexi>解析没有结束",
			tag:  "jiexi",
			want: "",
		},
		{
			name: "multiline content",
			text: "前导文本<jiexi>第一步：通分\n第二步：相加</jiexi>后续文本",
			tag:  "jiexi",
			want: "第一步：通分\n第二步：相加",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTaggedContent(tt.text, tt.tag))
		})
	}
}

func newTestKnowledgeService(provider *fakeLLM) IKnowledgeService {
	return NewKnowledgeService(
		&fakeFactory{store: newFakeStore(), knowledge: newFakeKnowledgeRepo()},
		provider,
		promptpkg.NewBuilder(),
		testLogger{},
		5*time.Second,
	)
}

func TestGenerateByKnowledge(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		"<timu>小明有 3 个苹果，又买了 5 个，一共几个？</timu>\n<jiexi>把两部分合起来，用加法。</jiexi>\n<daan>8 个</daan>",
		"类似的减法题怎么出？\n换成三位数呢？",
	}}
	svc := newTestKnowledgeService(provider)

	resp, err := svc.GenerateByKnowledge(context.Background(), &dto.GenerateByKnowledgeRequest{
		KnowledgePoints: []string{"整数加法"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "小明有 3 个苹果，又买了 5 个，一共几个？", resp.Question)
	assert.Equal(t, "把两部分合起来，用加法。", resp.Analysis)
	assert.Equal(t, "8 个", resp.Answer)
	assert.Equal(t, []string{"整数加法"}, resp.KnowledgePoints)
	assert.Len(t, resp.FollowUpSuggestions, 2)
}

func TestGenerateByKnowledgeEmptyPoints(t *testing.T) {
	svc := newTestKnowledgeService(&fakeLLM{})

	_, err := svc.GenerateByKnowledge(context.Background(), &dto.GenerateByKnowledgeRequest{})
	assert.Error(t, err)
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestGenerateByKnowledgeFollowUpFailureIsNonFatal(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		"<timu>题</timu><jiexi>解析</jiexi><daan>答案</daan>",
		// second call has no scripted response and fails
	}}
	svc := newTestKnowledgeService(provider)

	resp, err := svc.GenerateByKnowledge(context.Background(), &dto.GenerateByKnowledgeRequest{
		KnowledgePoints: []string{"通分"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "题", resp.Question)
	assert.Empty(t, resp.FollowUpSuggestions)
}

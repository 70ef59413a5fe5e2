package retrieval

import (
	"context"
	"sort"

	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/specification"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/pkg/embedding"
)

// ScoredTurn is one retrieved turn with both ranking signals attached.
// LexicalScore decides the ordering; Similarity is reported alongside
// for observability but never reorders results.
type ScoredTurn struct {
	TurnIndex    int
	Question     string
	Answer       string
	LexicalScore float64
	Similarity   float64
}

type Config struct {
	TopK int
}

func DefaultConfig() Config {
	return Config{TopK: 3}
}

// Retriever ranks a session's past turns against the current question.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
	config            Config
}

func NewRetriever(embeddingProvider embedding.EmbeddingProvider, log logger.ILogger, config Config) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &Retriever{
		embeddingProvider: embeddingProvider,
		logger:            log,
		config:            config,
	}
}

// Retrieve scores every completed turn of the session and returns the
// top K by BM25 over the concatenated question and answer text. An
// empty pool yields an empty result and no error.
func (r *Retriever) Retrieve(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, query string) ([]ScoredTurn, error) {
	turns, err := uow.TurnDocumentRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "turn_index"},
	)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return []ScoredTurn{}, nil
	}

	documents := make([]string, len(turns))
	for i, t := range turns {
		documents[i] = t.Question + " " + t.Answer
	}

	index := NewBM25Index(documents)
	lexicalScores := index.Scores(query)

	scored := make([]ScoredTurn, len(turns))
	for i, t := range turns {
		scored[i] = ScoredTurn{
			TurnIndex:    t.TurnIndex,
			Question:     t.Question,
			Answer:       t.Answer,
			LexicalScore: lexicalScores[i],
		}
	}

	r.attachSimilarity(ctx, uow, sessionId, query, scored)

	// BM25 is the sole sort key; ties go to the earlier turn.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].LexicalScore != scored[j].LexicalScore {
			return scored[i].LexicalScore > scored[j].LexicalScore
		}
		return scored[i].TurnIndex < scored[j].TurnIndex
	})

	if len(scored) > r.config.TopK {
		scored = scored[:r.config.TopK]
	}
	return scored, nil
}

// attachSimilarity annotates turns with cosine similarity from the
// vector store. Failures here degrade to zero similarity; they never
// affect ranking or abort retrieval.
func (r *Retriever) attachSimilarity(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, query string, scored []ScoredTurn) {
	embeddingRes, err := r.embeddingProvider.Generate(query, embedding.TaskTypeQuery)
	if err != nil {
		r.logger.Warn("retrieval", "query embedding failed, skipping similarity", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	results, err := uow.TurnDocumentRepository().SearchSimilarWithScore(ctx, sessionId, embeddingRes.Embedding.Values, len(scored))
	if err != nil {
		r.logger.Warn("retrieval", "vector search failed, skipping similarity", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	byIndex := make(map[int]float64, len(results))
	for _, res := range results {
		byIndex[res.Turn.TurnIndex] = res.Similarity
	}
	for i := range scored {
		scored[i].Similarity = byIndex[scored[i].TurnIndex]
	}
}

package retrieval

import (
	"math"
	"strings"
)

// BM25 ranking over whitespace-tokenized documents.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25Index holds term statistics for a fixed document set. Build one
// per query over the session's turn pool; pools are small.
type BM25Index struct {
	docs      [][]string
	docFreq   map[string]int
	docLen    []int
	avgDocLen float64
}

func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func NewBM25Index(documents []string) *BM25Index {
	idx := &BM25Index{
		docFreq: make(map[string]int),
	}

	totalLen := 0
	for _, doc := range documents {
		tokens := Tokenize(doc)
		idx.docs = append(idx.docs, tokens)
		idx.docLen = append(idx.docLen, len(tokens))
		totalLen += len(tokens)

		seen := make(map[string]struct{})
		for _, t := range tokens {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				idx.docFreq[t]++
			}
		}
	}

	if len(documents) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(documents))
	}
	return idx
}

// Scores returns the BM25 score of the query against every document,
// in document order.
func (idx *BM25Index) Scores(query string) []float64 {
	queryTokens := Tokenize(query)
	scores := make([]float64, len(idx.docs))
	n := float64(len(idx.docs))

	for i, doc := range idx.docs {
		termFreq := make(map[string]int, len(doc))
		for _, t := range doc {
			termFreq[t]++
		}

		var score float64
		for _, qt := range queryTokens {
			tf := float64(termFreq[qt])
			if tf == 0 {
				continue
			}
			df := float64(idx.docFreq[qt])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)

			norm := 1 - bm25B + bm25B*float64(idx.docLen[i])/idx.avgDocLen
			score += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
		scores[i] = score
	}
	return scores
}

// Package vectorspace compares two documents in a TF-IDF vector space fitted
// on just those two documents.
package vectorspace

import (
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
)

// Runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Engine holds only the stop word set and is safe for concurrent use.
type Engine struct {
	stopWords map[string]struct{}
	logger    *zap.Logger
}

// New builds an engine with the English stop word list plus extra words.
func New(log *zap.Logger, extraStopWords ...string) *Engine {
	stop := make(map[string]struct{}, len(englishStopWords)+len(extraStopWords))
	for _, w := range englishStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range extraStopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}

	return &Engine{
		stopWords: stop,
		logger:    logger.WithFields(log, zap.String("component", "vector_space")),
	}
}

// IsStopWord reports whether the lowercase token is ignored.
func (e *Engine) IsStopWord(token string) bool {
	_, ok := e.stopWords[token]
	return ok
}

// Tokens returns the analyzed terms of doc in order, stop words removed.
func (e *Engine) Tokens(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	out := raw[:0]
	for _, t := range raw {
		if e.IsStopWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Similarity returns the cosine similarity of the TF-IDF vectors of a and b,
// in [0, 1]. Documents without any term compare as 0.
func (e *Engine) Similarity(a, b string) float64 {
	tfA := termCounts(e.Tokens(a))
	tfB := termCounts(e.Tokens(b))
	if len(tfA) == 0 || len(tfB) == 0 {
		e.logger.Debug("empty vocabulary, similarity is zero",
			zap.Int("terms_a", len(tfA)),
			zap.Int("terms_b", len(tfB)),
		)
		return 0
	}

	var dot, normA, normB float64
	for term, countA := range tfA {
		countB := tfB[term]
		df := 1
		if countB > 0 {
			df = 2
		}
		w := idf(df)
		wa := float64(countA) * w
		normA += wa * wa
		if countB > 0 {
			dot += wa * float64(countB) * w
		}
	}
	for term, countB := range tfB {
		df := 1
		if tfA[term] > 0 {
			df = 2
		}
		wb := float64(countB) * idf(df)
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	sim = math.Max(0, math.Min(1, sim))

	e.logger.Debug("tfidf similarity computed",
		zap.Int("terms_a", len(tfA)),
		zap.Int("terms_b", len(tfB)),
		zap.Float64("similarity", sim),
	)

	return sim
}

// idf is the smoothed inverse document frequency over a two document corpus.
func idf(df int) float64 {
	const n = 2
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// Package textproc turns raw text into the normalized token stream used by
// the scoring pipeline.
package textproc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/logger"
)

const (
	previewLength  = 120
	normalizeOpTag = "normalize"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// StemFunc reduces a single lowercase token to its stem.
type StemFunc func(word string) (string, error)

// SnowballStem stems with the Snowball English (Porter2) algorithm. A panic
// inside the generated stemmer is reported as an error.
func SnowballStem(word string) (stem string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snowball english stemmer: %v", r)
		}
	}()

	env := snowballstem.NewEnv(word)
	english.Stem(env)
	return env.Current(), nil
}

type Normalizer struct {
	logger *zap.Logger
	stem   StemFunc
}

type Option func(*Normalizer)

// WithStemmer replaces the default Snowball stemmer.
func WithStemmer(stem StemFunc) Option {
	return func(n *Normalizer) {
		if stem != nil {
			n.stem = stem
		}
	}
}

func NewNormalizer(log *zap.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		logger: logger.WithFields(log, zap.String("component", "normalizer")),
		stem:   SnowballStem,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lowercases text, strips punctuation and stems every token.
// When stemming fails the unmodified input is returned together with a
// processing fault so the caller can continue with it.
func (n *Normalizer) Normalize(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	cleaned := punctuation.ReplaceAllString(strings.ToLower(text), "")
	words := strings.Fields(cleaned)

	stemmed := make([]string, 0, len(words))
	for _, word := range words {
		s, err := n.stem(word)
		if err != nil {
			n.logger.Warn("stemming failed, keeping original text",
				zap.String("token", word),
				zap.Error(err),
			)
			return text, fault.Processing(normalizeOpTag, fmt.Errorf("stem %q: %w", word, err))
		}
		if s == "" {
			continue
		}
		stemmed = append(stemmed, s)
	}

	result := strings.Join(stemmed, " ")
	n.logger.Debug("text normalized",
		zap.Int("tokens", len(stemmed)),
		zap.String("preview", logger.TruncateForLog(result, previewLength)),
	)

	return result, nil
}

// StemWord normalizes a single word and returns its stem, or the lowercased
// word when it cannot be stemmed.
func (n *Normalizer) StemWord(word string) string {
	lowered := strings.ToLower(strings.TrimSpace(word))
	if lowered == "" {
		return ""
	}
	s, err := n.stem(lowered)
	if err != nil || s == "" {
		return lowered
	}
	return s
}

// Tokens splits normalized text into its distinct tokens.
func Tokens(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Distinct returns the distinct tokens of normalized text in order of first
// appearance.
func Distinct(normalized string) []string {
	fields := strings.Fields(normalized)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

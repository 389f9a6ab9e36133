// Package scoring combines the lexical and keyword signals into one bounded
// relevance score of a résumé against a job description.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/sections"
	"github.com/spigell/ats-scorer/internal/textproc"
	"github.com/spigell/ats-scorer/internal/thesaurus"
)

const (
	MinScore = 0.0
	MaxScore = 100.0

	scoreOp = "score"
)

var errEmptyAfterFiltering = errors.New("empty after filtering")

type Normalizer interface {
	Normalize(text string) (string, error)
}

type SectionFilter interface {
	Apply(resumeText, jobDescription string) sections.Result
}

type VectorSpace interface {
	Similarity(a, b string) float64
}

// Deps are the read-only engines a Scorer delegates to.
type Deps struct {
	Normalizer Normalizer
	Filter     SectionFilter
	Vectors    VectorSpace
	// Thesaurus may be nil, in which case every token only matches itself.
	Thesaurus *thesaurus.Thesaurus
	Logger    *zap.Logger
}

// Breakdown is the detailed outcome of one scoring call.
type Breakdown struct {
	Score           float64             `json:"score"`
	TFIDFSimilarity float64             `json:"tfidf_similarity"`
	KeyMatchRatio   float64             `json:"key_match_ratio"`
	MatchedTerms    []string            `json:"matched_terms"`
	MissingTerms    []string            `json:"missing_terms"`
	KeyTerms        []string            `json:"key_terms,omitempty"`
	FilteredResume  string              `json:"filtered_resume,omitempty"`
	Decisions       []sections.Decision `json:"-"`
}

// Scorer is safe for concurrent use.
type Scorer struct {
	cfg        Config
	normalizer Normalizer
	filter     SectionFilter
	vectors    VectorSpace
	thesaurus  *thesaurus.Thesaurus
	logger     *zap.Logger
}

func New(cfg Config, deps Deps) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Normalizer == nil || deps.Filter == nil || deps.Vectors == nil {
		return nil, errors.New("scorer requires a normalizer, a section filter and a vector space")
	}

	return &Scorer{
		cfg:        cfg,
		normalizer: deps.Normalizer,
		filter:     deps.Filter,
		vectors:    deps.Vectors,
		thesaurus:  deps.Thesaurus,
		logger:     logger.WithFields(deps.Logger, zap.String("component", "scorer")),
	}, nil
}

// Similarity scores resumeText against jobDescription in [0, 100]. Any
// failure, a panicking engine included, is logged and reported as 0.
func (s *Scorer) Similarity(jobDescription, resumeText string) float64 {
	b, err := s.Score(jobDescription, resumeText)
	if err != nil {
		s.logger.Error("scoring failed, returning zero score",
			zap.String("kind", fault.KindOf(err).String()),
			zap.Error(err),
			zap.String("job_preview", logger.TruncateForLog(jobDescription, s.cfg.PreviewLength)),
			zap.String("resume_preview", logger.TruncateForLog(resumeText, s.cfg.PreviewLength)),
		)
		return MinScore
	}
	return b.Score
}

// Score runs the whole pipeline and returns every intermediate signal. A
// panic inside one of the engines is reported as a processing fault.
func (s *Scorer) Score(jobDescription, resumeText string) (b *Breakdown, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fault.Processing(scoreOp, fmt.Errorf("recovered: %v", r))
		}
	}()

	if strings.TrimSpace(jobDescription) == "" {
		return nil, fault.Validation(scoreOp, "job description is empty")
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, fault.Validation(scoreOp, "resume text is empty")
	}

	jobNorm := s.normalize("job_description", jobDescription)

	filtered := s.filter.Apply(resumeText, jobDescription)
	if strings.TrimSpace(filtered.Text) == "" {
		return nil, fault.Processing(scoreOp, errEmptyAfterFiltering)
	}
	resumeNorm := s.normalize("resume", filtered.Text)

	tfidf := s.vectors.Similarity(jobNorm, resumeNorm)

	jobTokens := textproc.Distinct(jobNorm)
	resumeTokens := textproc.Tokens(resumeNorm)
	expander := s.thesaurus.Expander()

	matched := make([]string, 0, len(jobTokens))
	missing := make([]string, 0)
	for _, token := range jobTokens {
		if anyIn(expander.Synonyms(token), resumeTokens) {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}

	ratio := 0.0
	if len(jobTokens) > 0 {
		ratio = float64(len(matched)) / float64(len(jobTokens))
	}

	b = &Breakdown{
		Score:           s.combine(tfidf, ratio),
		TFIDFSimilarity: tfidf,
		KeyMatchRatio:   ratio,
		MatchedTerms:    matched,
		MissingTerms:    missing,
		KeyTerms:        filtered.KeyTerms,
		FilteredResume:  filtered.Text,
		Decisions:       filtered.Decisions,
	}

	s.logger.Info("resume scored",
		zap.Float64("score", b.Score),
		zap.Float64("tfidf_similarity", tfidf),
		zap.Float64("key_match_ratio", ratio),
		zap.Int("job_tokens", len(jobTokens)),
		zap.Int("matched", len(matched)),
	)

	return b, nil
}

// normalize continues with whatever text the normalizer hands back when it
// reports a fault.
func (s *Scorer) normalize(field, text string) string {
	out, err := s.normalizer.Normalize(text)
	if err != nil {
		s.logger.Warn("normalization degraded",
			zap.String("field", field),
			zap.Error(err),
		)
	}
	return out
}

func (s *Scorer) combine(tfidf, ratio float64) float64 {
	raw := (tfidf*s.cfg.TFIDFWeight + ratio*s.cfg.KeywordWeight) * MaxScore
	return math.Min(MaxScore, math.Max(MinScore, round2(raw)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func anyIn(variants, set map[string]struct{}) bool {
	for v := range variants {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

package scoring

import (
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/sections"
	"github.com/spigell/ats-scorer/internal/textproc"
	"github.com/spigell/ats-scorer/internal/thesaurus"
	"github.com/spigell/ats-scorer/internal/vectorspace"
)

const resumeShaped = "Summary\nPython developer with AWS and Docker experience\nSkills\nKubernetes Terraform"

func newScorer(t *testing.T, th *thesaurus.Thesaurus, log *zap.Logger) *Scorer {
	t.Helper()

	filter, err := sections.New(sections.DefaultVocabulary(), log)
	if err != nil {
		t.Fatalf("creating filter: %v", err)
	}
	s, err := New(DefaultConfig(), Deps{
		Normalizer: textproc.NewNormalizer(log),
		Filter:     filter,
		Vectors:    vectorspace.New(log),
		Thesaurus:  th,
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("creating scorer: %v", err)
	}
	return s
}

func TestIdenticalTextScoresHundred(t *testing.T) {
	t.Parallel()

	s := newScorer(t, nil, zap.NewNop())
	b, err := s.Score(resumeShaped, resumeShaped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Score != 100.0 {
		t.Fatalf("expected 100, got %v (tfidf %v, ratio %v)", b.Score, b.TFIDFSimilarity, b.KeyMatchRatio)
	}
	if b.KeyMatchRatio != 1 {
		t.Fatalf("expected full key match, got %v", b.KeyMatchRatio)
	}
	if len(b.MissingTerms) != 0 {
		t.Fatalf("expected no missing terms, got %v", b.MissingTerms)
	}
}

func TestEmptyInputsScoreZero(t *testing.T) {
	t.Parallel()

	s := newScorer(t, nil, zap.NewNop())

	tests := []struct {
		name   string
		jd     string
		resume string
	}{
		{name: "empty job description", jd: "", resume: resumeShaped},
		{name: "blank job description", jd: "  \n ", resume: resumeShaped},
		{name: "empty resume", jd: resumeShaped, resume: ""},
		{name: "both empty", jd: "", resume: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Similarity(tt.jd, tt.resume); got != 0 {
				t.Fatalf("expected 0, got %v", got)
			}
			_, err := s.Score(tt.jd, tt.resume)
			if !errors.Is(err, fault.ErrValidation) {
				t.Fatalf("expected validation fault, got %v", err)
			}
		})
	}
}

func TestFilteredAwayResumeIsProcessingFault(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.ErrorLevel)
	s := newScorer(t, nil, zap.New(core))

	resume := "Education\nSpringfield State University\nHobbies\nChess"
	_, err := s.Score("Backend engineer", resume)
	if !errors.Is(err, fault.ErrProcessing) {
		t.Fatalf("expected processing fault, got %v", err)
	}

	if got := s.Similarity("Backend engineer", resume); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if observed.Len() != 1 {
		t.Fatalf("expected one error entry, got %d", observed.Len())
	}
	fields := observed.All()[0].ContextMap()
	if fields["kind"] != "processing" {
		t.Fatalf("expected processing kind in log, got %v", fields["kind"])
	}
	if _, ok := fields["resume_preview"]; !ok {
		t.Fatalf("expected resume preview in log fields")
	}
}

func TestRegisteredSynonymIncreasesScore(t *testing.T) {
	t.Parallel()

	jd := "We need a quick learner"
	withSynonym := "Summary\nfast learner"
	without := "Summary\nslow learner"

	th := thesaurus.New([]thesaurus.Synset{{Lemmas: []string{"quick", "fast"}}})
	s := newScorer(t, th, zap.NewNop())

	a := s.Similarity(jd, withSynonym)
	b := s.Similarity(jd, without)
	if a <= b {
		t.Fatalf("expected synonym to raise the score: %v <= %v", a, b)
	}

	plain := newScorer(t, nil, zap.NewNop())
	if plain.Similarity(jd, withSynonym) != plain.Similarity(jd, without) {
		t.Fatalf("without a thesaurus both resumes should score the same")
	}
}

func TestBreakdownTerms(t *testing.T) {
	t.Parallel()

	s := newScorer(t, nil, zap.NewNop())
	b, err := s.Score("Python developer with AWS experience", strings.Join([]string{
		"Skills",
		"Python, AWS, Docker",
		"Education",
		"Springfield State University",
	}, "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(b.FilteredResume, "Springfield") {
		t.Fatalf("education leaked into filtered resume: %q", b.FilteredResume)
	}
	if len(b.MatchedTerms)+len(b.MissingTerms) == 0 {
		t.Fatalf("expected job tokens to be classified")
	}
	if !contains(b.MatchedTerms, "python") {
		t.Fatalf("expected python to be matched, got %v", b.MatchedTerms)
	}
	if !contains(b.MissingTerms, "develop") {
		t.Fatalf("expected develop to be missing, got %v", b.MissingTerms)
	}
	if strings.Join(b.KeyTerms, ",") != "python,aws" {
		t.Fatalf("unexpected key terms %v", b.KeyTerms)
	}
	want := float64(len(b.MatchedTerms)) / float64(len(b.MatchedTerms)+len(b.MissingTerms))
	if math.Abs(b.KeyMatchRatio-want) > 1e-12 {
		t.Fatalf("expected ratio %v, got %v", want, b.KeyMatchRatio)
	}
}

func TestScoresStayWithinBounds(t *testing.T) {
	t.Parallel()

	s := newScorer(t, nil, zap.NewNop())
	docs := []string{
		resumeShaped,
		"Skills\nGo",
		"Experience\nthe and of",
		"Summary\n!!! ??? ...",
		"Projects\nKubernetes operator in Go, Terraform modules, AWS Lambda, Python tooling",
		"random words without sections",
	}
	for _, jd := range docs {
		for _, resume := range docs {
			score := s.Similarity(jd, resume)
			if score < MinScore || score > MaxScore {
				t.Fatalf("score %v out of bounds for %q vs %q", score, jd, resume)
			}
			if round2(score) != score {
				t.Fatalf("score %v not rounded to two decimals", score)
			}
		}
	}
}

type failingNormalizer struct{}

func (failingNormalizer) Normalize(text string) (string, error) {
	return text, fault.Processing("normalize", errors.New("stemmer unavailable"))
}

func TestNormalizerFaultDegradesGracefully(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	log := zap.New(core)
	filter, err := sections.New(sections.DefaultVocabulary(), log)
	if err != nil {
		t.Fatalf("creating filter: %v", err)
	}
	s, err := New(DefaultConfig(), Deps{
		Normalizer: failingNormalizer{},
		Filter:     filter,
		Vectors:    vectorspace.New(log),
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("creating scorer: %v", err)
	}

	b, err := s.Score(resumeShaped, resumeShaped)
	if err != nil {
		t.Fatalf("expected degraded scoring to succeed, got %v", err)
	}
	if b.Score != 100 {
		t.Fatalf("expected identical raw text to score 100, got %v", b.Score)
	}
	if observed.FilterMessage("normalization degraded").Len() != 2 {
		t.Fatalf("expected a warning per document, got %d", observed.Len())
	}
}

func TestCombineWeights(t *testing.T) {
	t.Parallel()

	s := &Scorer{cfg: DefaultConfig()}
	tests := []struct {
		tfidf, ratio, want float64
	}{
		{tfidf: 0, ratio: 0, want: 0},
		{tfidf: 1, ratio: 1, want: 100},
		{tfidf: 1, ratio: 0, want: 25},
		{tfidf: 0, ratio: 1, want: 75},
		{tfidf: 0.123456, ratio: 0.5, want: 40.59},
	}
	for _, tt := range tests {
		if got := s.combine(tt.tfidf, tt.ratio); got != tt.want {
			t.Fatalf("combine(%v, %v) = %v, want %v", tt.tfidf, tt.ratio, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultConfig()},
		{name: "lexical only", cfg: Config{TFIDFWeight: 1}},
		{name: "weights do not sum to one", cfg: Config{TFIDFWeight: 0.5, KeywordWeight: 0.6}, wantErr: true},
		{name: "negative weight", cfg: Config{TFIDFWeight: -0.5, KeywordWeight: 1.5}, wantErr: true},
		{name: "negative preview", cfg: Config{TFIDFWeight: 0.5, KeywordWeight: 0.5, PreviewLength: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	if _, err := New(Config{TFIDFWeight: 2}, Deps{}); err == nil {
		t.Fatalf("expected New to reject invalid config")
	}
	if _, err := New(DefaultConfig(), Deps{}); err == nil {
		t.Fatalf("expected New to reject missing engines")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestDefaultThesaurusKeepsToolsApart(t *testing.T) {
	t.Parallel()

	synsets, err := thesaurus.Default()
	if err != nil {
		t.Fatalf("loading default synsets: %v", err)
	}
	normalizer := textproc.NewNormalizer(zap.NewNop())
	s := newScorer(t, thesaurus.New(synsets, thesaurus.WithStemmer(normalizer.StemWord)), zap.NewNop())

	tests := []struct {
		jd     string
		resume string
	}{
		{jd: "AWS", resume: "Skills\nAzure"},
		{jd: "Azure", resume: "Skills\nGCP"},
		{jd: "Docker", resume: "Skills\nKubernetes"},
		{jd: "Kubernetes", resume: "Skills\nDocker"},
		{jd: "Senior", resume: "Skills\nLead"},
		{jd: "Degree", resume: "Education\nSkills\nCertification"},
	}

	for _, tt := range tests {
		b, err := s.Score(tt.jd, tt.resume)
		if err != nil {
			t.Fatalf("%s vs %q: unexpected error: %v", tt.jd, tt.resume, err)
		}
		if b.KeyMatchRatio != 0 || len(b.MatchedTerms) != 0 {
			t.Fatalf("%s vs %q: expected no key match, got ratio %v matched %v", tt.jd, tt.resume, b.KeyMatchRatio, b.MatchedTerms)
		}
	}

	b, err := s.Score("k8s", "Skills\nKubernetes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.KeyMatchRatio != 1 {
		t.Fatalf("expected k8s to match kubernetes, got ratio %v", b.KeyMatchRatio)
	}
}

type panickingFilter struct{}

func (panickingFilter) Apply(string, string) sections.Result {
	panic("vocabulary not loaded")
}

func TestEnginePanicIsProcessingFault(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.ErrorLevel)
	log := zap.New(core)
	s, err := New(DefaultConfig(), Deps{
		Normalizer: textproc.NewNormalizer(log),
		Filter:     panickingFilter{},
		Vectors:    vectorspace.New(log),
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("creating scorer: %v", err)
	}

	b, err := s.Score(resumeShaped, resumeShaped)
	if b != nil || !errors.Is(err, fault.ErrProcessing) {
		t.Fatalf("expected processing fault, got %+v, %v", b, err)
	}
	if !strings.Contains(err.Error(), "vocabulary not loaded") {
		t.Fatalf("expected panic value in error, got %v", err)
	}

	if got := s.Similarity(resumeShaped, resumeShaped); got != MinScore {
		t.Fatalf("expected zero score, got %v", got)
	}
	if observed.FilterMessage("scoring failed, returning zero score").Len() != 1 {
		t.Fatalf("expected the failure to be logged once, got %d", observed.Len())
	}
}

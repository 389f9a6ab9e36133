package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/thesaurus"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, systemInstruction, message string) (string, error)
	Model() string
}

// Suggester asks Gemini for synonym groups covering a job description.
type Suggester struct {
	generator  contentGenerator
	maxSynsets int
	logger     *zap.Logger
	maxLogLen  int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxSynsets    = 30
	defaultMaxLogLength  = 200
	maxJobDescriptionLen = 20000
)

func NewSuggester(generator contentGenerator, log *zap.Logger, maxSynsets, maxLogLength int) *Suggester {
	if maxSynsets <= 0 {
		maxSynsets = defaultMaxSynsets
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Suggester{
		generator:  generator,
		maxSynsets: maxSynsets,
		logger:     logger.WithAIFields(log, Provider, generator.Model()),
		maxLogLen:  maxLogLength,
	}
}

// SuggestSynsets returns cleaned synonym groups: lowercase lemmas, no
// duplicates and at least two lemmas per group.
func (s *Suggester) SuggestSynsets(ctx context.Context, jobDescription string) ([]thesaurus.Synset, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, errors.New("job description is required")
	}
	if utf8.RuneCountInString(jobDescription) > maxJobDescriptionLen {
		jobDescription = string([]rune(jobDescription)[:maxJobDescriptionLen])
	}

	instruction := buildPrompt(s.maxSynsets)
	message := "Job description:\n" + jobDescription

	s.logger.Debug("gemini synset request",
		zap.Int("prompt_length", utf8.RuneCountInString(instruction)+utf8.RuneCountInString(message)),
		zap.String("job_preview", logger.TruncateForLog(jobDescription, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, instruction, message)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini synset response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	synsets, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	if len(synsets) > s.maxSynsets {
		s.logger.Debug("trim synsets to limit", zap.Int("got", len(synsets)), zap.Int("limit", s.maxSynsets))
		synsets = synsets[:s.maxSynsets]
	}

	s.logger.Info("synsets suggested", zap.Int("synsets", len(synsets)))
	return synsets, nil
}

func buildPrompt(maxSynsets int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Propose at most {{MAX_SYNSETS}} synonym groups for the job description. Reply with JSON: {\"synsets\": [{\"lemmas\": [], \"gloss\": \"\"}]}"
	}
	return strings.ReplaceAll(template, "{{MAX_SYNSETS}}", strconv.Itoa(maxSynsets))
}

// parseResponse accepts {"synsets": [...]} or a bare list. Each entry is
// either an object with lemmas or a plain list of lemmas.
func parseResponse(raw string) ([]thesaurus.Synset, error) {
	cleaned := extractJSON(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var entries []any
	switch val := data.(type) {
	case map[string]any:
		list, ok := val["synsets"].([]any)
		if !ok {
			return nil, errors.New("parse gemini response: synsets list is missing")
		}
		entries = list
	case []any:
		entries = val
	default:
		return nil, fmt.Errorf("parse gemini response: unexpected %T", data)
	}

	synsets := make([]thesaurus.Synset, 0, len(entries))
	for _, entry := range entries {
		var set thesaurus.Synset
		switch val := entry.(type) {
		case map[string]any:
			set.Lemmas = coerceLemmas(val["lemmas"])
			set.Gloss = coerceString(val["gloss"])
		default:
			set.Lemmas = coerceLemmas(val)
		}
		if len(set.Lemmas) < 2 {
			continue
		}
		synsets = append(synsets, set)
	}

	return synsets, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceLemmas(v any) []string {
	var values []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			values = append(values, coerceString(item))
		}
	case string:
		values = strings.Split(val, ",")
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	lemmas := make([]string, 0, len(values))
	for _, value := range values {
		lemma := strings.Join(strings.Fields(strings.ToLower(value)), " ")
		if lemma == "" {
			continue
		}
		if _, ok := seen[lemma]; ok {
			continue
		}
		seen[lemma] = struct{}{}
		lemmas = append(lemmas, lemma)
	}
	return lemmas
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}
}

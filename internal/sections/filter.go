// Package sections keeps the parts of a résumé that matter for matching and
// drops personal and administrative sections.
package sections

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
)

const (
	RuleRelevantHeading   = "relevant_heading"
	RuleIrrelevantHeading = "irrelevant_heading"
	RuleRelevantSection   = "relevant_section"
	RuleKeyTerm           = "key_term"
	RuleDiscarded         = "discarded"

	// Fuzzy heading matching only considers lines this short.
	maxFuzzyHeadingWords = 4
	previewLength        = 200
)

// DefaultKeyTermPattern matches the technical terms rescued outside relevant sections.
const DefaultKeyTermPattern = `\b(python|java|c\+\+|sql|aws|azure|tensorflow|pytorch|git|ml|ai|cloud|docker|kubernetes)\b`

type Vocabulary struct {
	RelevantHeadings   []string `mapstructure:"relevant-headings"`
	IrrelevantHeadings []string `mapstructure:"irrelevant-headings"`
	KeyTermPatterns    []string `mapstructure:"key-term-patterns"`
	RescueKeyTerms     bool     `mapstructure:"rescue-key-terms"`
	HeadingTolerance   int      `mapstructure:"heading-tolerance"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		RelevantHeadings: []string{
			"professional summary", "profile", "summary", "objective", "about me",
			"skills", "technical skills", "core competencies", "experience",
			"projects", "achievements", "qualifications", "training",
		},
		IrrelevantHeadings: []string{
			"education", "personal details", "contact information", "references",
			"interests", "hobbies", "volunteering", "languages", "publications", "awards",
		},
		KeyTermPatterns: []string{DefaultKeyTermPattern},
		RescueKeyTerms:  true,
	}
}

// Decision records why a résumé line was kept or dropped.
type Decision struct {
	Line string `json:"line"`
	Kept bool   `json:"kept"`
	Rule string `json:"rule"`
}

type Result struct {
	Text      string
	KeyTerms  []string
	Decisions []Decision
}

// Filter is safe for concurrent use.
type Filter struct {
	relevant   []string
	irrelevant []string
	patterns   []*regexp.Regexp
	rescue     bool
	tolerance  int
	logger     *zap.Logger
}

func New(vocab Vocabulary, log *zap.Logger) (*Filter, error) {
	if vocab.HeadingTolerance < 0 {
		return nil, fmt.Errorf("heading tolerance must not be negative, got %d", vocab.HeadingTolerance)
	}

	f := &Filter{
		relevant:   lowerAll(vocab.RelevantHeadings),
		irrelevant: lowerAll(vocab.IrrelevantHeadings),
		rescue:     vocab.RescueKeyTerms,
		tolerance:  vocab.HeadingTolerance,
		logger:     logger.WithFields(log, zap.String("component", "section_filter")),
	}

	for _, p := range vocab.KeyTermPatterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling key term pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// KeyTerms extracts the distinct lowercase key terms mentioned in a job
// description. Patterns match case-insensitively.
// Patterns with a capture group contribute the first group when it matched,
// others the whole match.
func (f *Filter) KeyTerms(jobDescription string) []string {
	if jobDescription == "" {
		return nil
	}

	text := strings.ToLower(jobDescription)
	seen := make(map[string]struct{})
	var terms []string
	for _, re := range f.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			term := m[0]
			if len(m) > 1 && m[1] != "" {
				term = m[1]
			}
			if term == "" {
				continue
			}
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}

	return terms
}

// Apply walks the résumé line by line. A relevant heading opens a kept
// section, an irrelevant heading closes it, and lines outside kept sections
// survive only when they mention a key term of the job description.
func (f *Filter) Apply(resumeText, jobDescription string) Result {
	keyTerms := f.KeyTerms(jobDescription)

	lines := strings.Split(resumeText, "\n")
	kept := make([]string, 0, len(lines))
	decisions := make([]Decision, 0, len(lines))
	inRelevantSection := false

	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))

		var rule string
		switch {
		case f.isHeading(lower, f.relevant):
			inRelevantSection = true
			rule = RuleRelevantHeading
		case f.isHeading(lower, f.irrelevant):
			inRelevantSection = false
			rule = RuleIrrelevantHeading
		case inRelevantSection:
			rule = RuleRelevantSection
		case f.rescue && containsAny(lower, keyTerms):
			rule = RuleKeyTerm
		default:
			rule = RuleDiscarded
		}

		keep := rule == RuleRelevantHeading || rule == RuleRelevantSection || rule == RuleKeyTerm
		if keep {
			kept = append(kept, line)
		}
		decisions = append(decisions, Decision{Line: line, Kept: keep, Rule: rule})
	}

	text := strings.TrimSpace(strings.Join(kept, "\n"))
	f.logger.Debug("resume filtered",
		zap.Int("lines", len(lines)),
		zap.Int("kept", len(kept)),
		zap.Strings("key_terms", keyTerms),
		zap.String("preview", logger.TruncateForLog(text, previewLength)),
	)

	return Result{Text: text, KeyTerms: keyTerms, Decisions: decisions}
}

func (f *Filter) isHeading(line string, headings []string) bool {
	if containsAny(line, headings) {
		return true
	}
	if f.tolerance == 0 || line == "" {
		return false
	}

	candidate := strings.TrimRight(line, ": ")
	if len(strings.Fields(candidate)) > maxFuzzyHeadingWords {
		return false
	}
	for _, h := range headings {
		if levenshtein.ComputeDistance(candidate, h) <= f.tolerance {
			return true
		}
	}
	return false
}

func containsAny(line string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(line, p) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

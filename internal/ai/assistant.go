// Package ai declares what the scorer delegates to a language model.
package ai

import (
	"context"

	"github.com/spigell/ats-scorer/internal/thesaurus"
)

// SynsetSuggester proposes synonym groups for the vocabulary of a job
// description. The result feeds thesaurus files.
type SynsetSuggester interface {
	SuggestSynsets(ctx context.Context, jobDescription string) ([]thesaurus.Synset, error)
}

// Package thesaurus holds the lexical database used to expand job description
// tokens with their synonyms.
package thesaurus

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const synsetsKey = "synsets"

//go:embed default.yaml
var defaultSynsets []byte

// Synset is a group of lemmas sharing one meaning.
type Synset struct {
	Lemmas []string `mapstructure:"lemmas" json:"lemmas"`
	Gloss  string   `mapstructure:"gloss" json:"gloss,omitempty"`
}

// Thesaurus maps lemmas to the synsets containing them. It is read-only after
// construction and safe for concurrent use.
type Thesaurus struct {
	synsets [][]string
	index   map[string][]int
	stem    func(string) string
}

type Option func(*Thesaurus)

// WithStemmer indexes the stem of every lemma as well, so that stemmed tokens
// find their synsets. Expansions then contain the stemmed lemmas too.
func WithStemmer(stem func(string) string) Option {
	return func(t *Thesaurus) {
		t.stem = stem
	}
}

func New(synsets []Synset, opts ...Option) *Thesaurus {
	t := &Thesaurus{index: make(map[string][]int)}
	for _, opt := range opts {
		opt(t)
	}

	for _, s := range synsets {
		lemmas := make([]string, 0, len(s.Lemmas))
		seen := make(map[string]struct{}, len(s.Lemmas))
		for _, l := range s.Lemmas {
			key := lemmaKey(l)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			lemmas = append(lemmas, key)
		}
		if len(lemmas) == 0 {
			continue
		}

		id := len(t.synsets)
		t.synsets = append(t.synsets, lemmas)
		for _, l := range lemmas {
			t.add(l, id)
			if t.stem != nil {
				if st := t.stem(l); st != "" && st != l {
					t.add(st, id)
				}
			}
		}
	}

	return t
}

func (t *Thesaurus) add(key string, id int) {
	ids := t.index[key]
	if len(ids) > 0 && ids[len(ids)-1] == id {
		return
	}
	t.index[key] = append(ids, id)
}

// Len reports the number of synsets.
func (t *Thesaurus) Len() int {
	if t == nil {
		return 0
	}
	return len(t.synsets)
}

// Synonyms returns the lowercased word together with every lemma of every
// synset containing it. A nil thesaurus or an unknown word yields only the
// word itself.
func (t *Thesaurus) Synonyms(word string) map[string]struct{} {
	lowered := strings.ToLower(word)
	out := map[string]struct{}{lowered: {}}
	if t == nil {
		return out
	}

	for _, id := range t.index[lemmaKey(word)] {
		for _, l := range t.synsets[id] {
			out[l] = struct{}{}
			if t.stem != nil {
				if st := t.stem(l); st != "" {
					out[st] = struct{}{}
				}
			}
		}
	}

	return out
}

// Expander memoizes expansions for the lifetime of one scoring call.
type Expander struct {
	thesaurus *Thesaurus
	memo      map[string]map[string]struct{}
}

func (t *Thesaurus) Expander() *Expander {
	return &Expander{thesaurus: t, memo: make(map[string]map[string]struct{})}
}

func (e *Expander) Synonyms(word string) map[string]struct{} {
	if cached, ok := e.memo[word]; ok {
		return cached
	}
	syn := e.thesaurus.Synonyms(word)
	e.memo[word] = syn
	return syn
}

// Default returns the synsets bundled with the binary.
func Default() ([]Synset, error) {
	return Parse(defaultSynsets, "yaml")
}

// ReadFile loads synsets from a YAML or JSON file, or from a WordNet data
// file or dict directory.
func ReadFile(path string) ([]Synset, error) {
	if IsWordNet(path) {
		return ReadWordNet(path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading thesaurus %q: %w", path, err)
	}

	synsets, err := decode(v.Get(synsetsKey))
	if err != nil {
		return nil, fmt.Errorf("decoding thesaurus %q: %w", path, err)
	}
	return synsets, nil
}

// Parse decodes synsets from data in the given format (yaml or json).
func Parse(data []byte, format string) ([]Synset, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing thesaurus: %w", err)
	}
	return decode(v.Get(synsetsKey))
}

// WriteFile stores synsets in path; the format follows the file extension.
func WriteFile(path string, synsets []Synset) error {
	items := make([]map[string]any, 0, len(synsets))
	for _, s := range synsets {
		item := map[string]any{"lemmas": s.Lemmas}
		if s.Gloss != "" {
			item["gloss"] = s.Gloss
		}
		items = append(items, item)
	}

	v := viper.New()
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	v.Set(synsetsKey, items)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing thesaurus %q: %w", path, err)
	}
	return nil
}

// decode accepts both a bare list of lemmas and a {lemmas, gloss} mapping for
// every synset.
func decode(raw any) ([]Synset, error) {
	if raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list, got %T", synsetsKey, raw)
	}

	synsets := make([]Synset, 0, len(items))
	for i, item := range items {
		var s Synset
		switch typed := item.(type) {
		case []any:
			if err := mapstructure.Decode(typed, &s.Lemmas); err != nil {
				return nil, fmt.Errorf("synset %d: %w", i, err)
			}
		case map[string]any:
			if err := mapstructure.Decode(typed, &s); err != nil {
				return nil, fmt.Errorf("synset %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("synset %d: unsupported type %T", i, item)
		}
		synsets = append(synsets, s)
	}

	return synsets, nil
}

func lemmaKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

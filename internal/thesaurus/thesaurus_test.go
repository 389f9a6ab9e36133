package thesaurus

import (
	"path/filepath"
	"strings"
	"testing"
)

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func TestSynonymsContainsWord(t *testing.T) {
	t.Parallel()

	synsets, err := Default()
	if err != nil {
		t.Fatalf("loading default synsets: %v", err)
	}
	th := New(synsets)

	for _, word := range []string{"big", "Big", "zzzunknownzzz", ""} {
		got := th.Synonyms(word)
		if _, ok := got[strings.ToLower(word)]; !ok {
			t.Fatalf("expected %q in %v", word, keys(got))
		}
	}

	big := th.Synonyms("big")
	if _, ok := big["large"]; !ok {
		t.Fatalf("expected large among synonyms of big: %v", keys(big))
	}
}

func TestSynonymsNilThesaurus(t *testing.T) {
	t.Parallel()

	var th *Thesaurus
	got := th.Synonyms("Quick")
	if len(got) != 1 {
		t.Fatalf("expected singleton, got %v", keys(got))
	}
	if _, ok := got["quick"]; !ok {
		t.Fatalf("expected lowercased word, got %v", keys(got))
	}
	if th.Len() != 0 {
		t.Fatalf("expected zero length")
	}
}

func TestSynonymsWithStemmer(t *testing.T) {
	t.Parallel()

	stem := func(s string) string { return strings.TrimSuffix(s, "y") + "i" }
	th := New([]Synset{{Lemmas: []string{"Speedy", "fast"}}}, WithStemmer(stem))

	got := th.Synonyms("speedi")
	for _, want := range []string{"speedi", "speedy", "fast", "fasti"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("expected %q in %v", want, keys(got))
		}
	}
}

func TestMultiWordLemmas(t *testing.T) {
	t.Parallel()

	th := New([]Synset{{Lemmas: []string{"Machine Learning", "ML"}}, {Lemmas: []string{" ", ""}}})
	if th.Len() != 1 {
		t.Fatalf("expected empty synsets to be skipped, got %d", th.Len())
	}

	got := th.Synonyms("machine learning")
	if _, ok := got["ml"]; !ok {
		t.Fatalf("expected ml in %v", keys(got))
	}
	if _, ok := got["machine_learning"]; !ok {
		t.Fatalf("expected machine_learning in %v", keys(got))
	}
}

func TestExpanderMemoizes(t *testing.T) {
	t.Parallel()

	th := New([]Synset{{Lemmas: []string{"big", "large"}}})
	e := th.Expander()

	first := e.Synonyms("big")
	first["mutated"] = struct{}{}
	second := e.Synonyms("big")
	if _, ok := second["mutated"]; !ok {
		t.Fatalf("expected memoized set to be returned")
	}

	fresh := th.Expander().Synonyms("big")
	if _, ok := fresh["mutated"]; ok {
		t.Fatalf("memo leaked across expanders")
	}
}

func TestParseFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		data   string
		want   int
	}{
		{
			name:   "yaml lists",
			format: "yaml",
			data:   "synsets:\n  - [big, large]\n  - [quick, fast]\n",
			want:   2,
		},
		{
			name:   "yaml mappings",
			format: "yaml",
			data:   "synsets:\n  - lemmas: [lead, manage]\n    gloss: be in charge\n",
			want:   1,
		},
		{
			name:   "json mixed",
			format: "json",
			data:   `{"synsets": [["big", "large"], {"lemmas": ["quick", "fast"]}]}`,
			want:   2,
		},
		{
			name:   "missing key",
			format: "yaml",
			data:   "other: true\n",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d synsets, got %d", tt.want, len(got))
			}
		})
	}
}

func TestParseRejectsScalar(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("synsets: nope\n"), "yaml"); err == nil {
		t.Fatalf("expected error for scalar synsets")
	}
}

func TestWriteAndReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"generated.yaml", "generated.json"} {
		path := filepath.Join(dir, name)
		in := []Synset{
			{Lemmas: []string{"deploy", "release"}, Gloss: "put into production"},
			{Lemmas: []string{"big", "large"}},
		}
		if err := WriteFile(path, in); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}

		out, err := ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 synsets in %s, got %d", name, len(out))
		}
		if out[0].Gloss != "put into production" || len(out[0].Lemmas) != 2 {
			t.Fatalf("unexpected first synset in %s: %+v", name, out[0])
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

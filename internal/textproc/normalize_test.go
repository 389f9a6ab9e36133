package textproc

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-scorer/internal/fault"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "", expect: ""},
		{name: "whitespace only", input: "  \n\t ", expect: ""},
		{name: "lowercases and stems", input: "Running DEVELOPERS", expect: "run develop"},
		{name: "strips punctuation", input: "Python, SQL; (Docker)!", expect: "python sql docker"},
		{name: "drops underscore", input: "ci_cd", expect: "cicd"},
		{name: "collapses whitespace", input: "docker\n\n  kubernetes", expect: "docker kubernet"},
	}

	n := NewNormalizer(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := n.Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalizeOutputHasNoPunctuationOrUppercase(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Senior C++ / Go Engineer — 5+ years; CI/CD, K8s & AWS.",
		"Über-cool Café résumé: Ärzte, naïve façade!",
		"e-mail: john.doe@example.com | tel: +1 (555) 010-0000",
	}

	n := NewNormalizer(nil)
	for _, in := range inputs {
		got, err := n.Normalize(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		for _, r := range got {
			if unicode.IsUpper(r) {
				t.Fatalf("uppercase rune %q in %q", r, got)
			}
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
				t.Fatalf("unexpected rune %q in %q", r, got)
			}
		}
		if strings.Contains(got, "  ") {
			t.Fatalf("double space in %q", got)
		}
	}
}

func TestNormalizeStemFailureReturnsOriginal(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	broken := func(string) (string, error) { return "", errors.New("stemmer unavailable") }
	n := NewNormalizer(zap.New(core), WithStemmer(broken))

	input := "Python Developer!"
	got, err := n.Normalize(input)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, fault.ErrProcessing) {
		t.Fatalf("expected processing fault, got %v", err)
	}
	if got != input {
		t.Fatalf("expected original text back, got %q", got)
	}
	if observed.Len() != 1 {
		t.Fatalf("expected one warning, got %d", observed.Len())
	}
}

func TestStemWord(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	if got := n.StemWord("  Running "); got != "run" {
		t.Fatalf("expected run, got %q", got)
	}
	if got := n.StemWord(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	got := Distinct("python aws python docker aws")
	want := []string{"python", "aws", "docker"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if len(Tokens("a b a")) != 2 {
		t.Fatalf("expected two distinct tokens")
	}
}

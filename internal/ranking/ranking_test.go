package ranking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/scoring"
)

type stubScorer struct {
	scores map[string]float64
	calls  atomic.Int32
}

func (s *stubScorer) Score(_ string, resume string) (*scoring.Breakdown, error) {
	s.calls.Add(1)
	score, ok := s.scores[resume]
	if !ok {
		return nil, fault.Processing("score", errors.New("empty after filtering"))
	}
	return &scoring.Breakdown{Score: score}, nil
}

func newCandidates(scores ...float64) *Candidates {
	c := &Candidates{}
	for i, s := range scores {
		c.Items = append(c.Items, &Candidate{ID: fmt.Sprintf("c%d", i), Score: s})
	}
	return c
}

func TestRankSortsAndKeepsFailures(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{scores: map[string]float64{"a": 40, "b": 90.5, "c": 40}}
	r := NewRanker(scorer, 2, zap.NewNop())

	docs := []*document.Document{
		{ID: "low", Text: "a"},
		{ID: "broken", Text: "???"},
		{ID: "best", Text: "b"},
		{ID: "also-low", Text: "c"},
	}

	got, err := r.Rank(context.Background(), "jd", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RunID == "" {
		t.Fatalf("expected run id")
	}
	if ids := strings.Join(got.IDs(), ","); ids != "best,also-low,low,broken" {
		t.Fatalf("unexpected order %s", ids)
	}
	broken := got.FindByID("broken")
	if broken == nil || broken.Score != 0 || broken.Error == "" {
		t.Fatalf("expected failed candidate with error, got %+v", broken)
	}
	if scorer.calls.Load() != 4 {
		t.Fatalf("expected 4 scoring calls, got %d", scorer.calls.Load())
	}
}

func TestRankValidatesAndHonoursCancellation(t *testing.T) {
	t.Parallel()

	r := NewRanker(&stubScorer{}, 0, nil)
	if _, err := r.Rank(context.Background(), "jd", nil); !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Rank(ctx, "jd", []*document.Document{{ID: "x", Text: "x"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	excludePath := filepath.Join(dir, "exclude.json")
	reviewed := &Candidates{Items: []*Candidate{{ID: "c1"}}}
	if err := reviewed.ToExcluded().ToFile(excludePath); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	p := NewPipeline([]Filter{
		NewMinScore(50, log),
		NewExcludeFile(excludePath, log),
		NewTop(2, log),
	}, log)

	c := newCandidates(10, 95, 70, 60, 80)
	got, err := p.Run(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids := strings.Join(got.IDs(), ","); ids != "c4,c2" {
		t.Fatalf("unexpected survivors %s", ids)
	}
	if steps := observed.FilterMessage("filter step").Len(); steps != 3 {
		t.Fatalf("expected 3 step logs, got %d", steps)
	}

	statuses := p.Describe()
	if len(statuses) != 3 || statuses[0].Details["min_score"] != "50.00" || statuses[2].Details["limit"] != "2" {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestPipelineDisabledAndInvalidSteps(t *testing.T) {
	t.Parallel()

	p := NewPipeline([]Filter{NewMinScore(150, nil)}, nil)
	if _, err := p.Run(context.Background(), newCandidates(10)); err == nil {
		t.Fatalf("expected validation error")
	}

	p.DisableByName("min_score", "not requested")
	got, err := p.Run(context.Background(), newCandidates(10, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected disabled filter to keep everyone, got %d", got.Len())
	}
	if st := p.Describe()[0]; st.Enabled || st.Reason != "not requested" {
		t.Fatalf("unexpected status %+v", st)
	}

	if _, err := NewPipeline([]Filter{NewTop(-1, nil)}, nil).Run(context.Background(), newCandidates()); err == nil {
		t.Fatalf("expected negative top limit to be rejected")
	}
}

func TestPipelineDisableEveryFilter(t *testing.T) {
	t.Parallel()

	excludePath := filepath.Join(t.TempDir(), "exclude.json")
	if err := newCandidates(0, 0).ToExcluded().ToFile(excludePath); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	core, observed := observer.New(zapcore.WarnLevel)
	log := zap.New(core)
	p := NewPipeline([]Filter{NewExcludeFile(excludePath, log), NewTop(1, log)}, log)

	p.DisableByName("exclude_file", "reviewing everyone again")
	p.DisableByName("top", "show all")
	p.DisableByName("unknown", "typo")

	got, err := p.Run(context.Background(), newCandidates(10, 20, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected disabled filters to keep everyone, got %v", got.IDs())
	}

	for _, st := range p.Describe() {
		if st.Enabled || st.Reason == "" {
			t.Fatalf("expected %s to be reported as disabled, got %+v", st.Name, st)
		}
	}
	if observed.FilterMessage("no filter to disable").Len() != 1 {
		t.Fatalf("expected a warning for the unknown filter name")
	}
}

func TestExcludeFileMissingMeansNothingExcluded(t *testing.T) {
	t.Parallel()

	f := NewExcludeFile(filepath.Join(t.TempDir(), "absent.json"), nil)
	got, step, err := f.Apply(context.Background(), newCandidates(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 2 || step.Dropped != 0 {
		t.Fatalf("unexpected result %+v", step)
	}

	broken := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, _, err := NewExcludeFile(broken, nil).Apply(context.Background(), newCandidates(1)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestExcludedFileAppendTruncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	first := newCandidates(1, 2, 3).ToExcluded()
	if err := first.ToFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	stored, err := ReadExcludedFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	stored.Items = stored.Items[:1]
	if err := stored.ToFile(path); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	again, err := ReadExcludedFile(path)
	if err != nil {
		t.Fatalf("read after shrink: %v", err)
	}
	if len(again.Items) != 1 {
		t.Fatalf("expected shrunk file to decode cleanly, got %d items", len(again.Items))
	}

	again.Append(&ExcludedCandidates{Items: []*ExcludedCandidate{{ID: "new"}}})
	if strings.Join(again.IDs(), ",") != "c0,new" {
		t.Fatalf("unexpected ids %v", again.IDs())
	}
}

func TestCandidatesHelpers(t *testing.T) {
	t.Parallel()

	c := newCandidates(5, 5, 9)
	removed := c.Exclude([]string{"c1", "missing"})
	if strings.Join(removed, ",") != "c1" {
		t.Fatalf("unexpected removed %v", removed)
	}
	if c.FindByID("c1") != nil || c.FindByID("c2") == nil {
		t.Fatalf("unexpected lookup results")
	}

	c.Sort()
	if strings.Join(c.IDs(), ",") != "c2,c0" {
		t.Fatalf("unexpected order %v", c.IDs())
	}

	path, err := c.DumpToTmpFile()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	if !strings.Contains(string(data), `"id": "c2"`) {
		t.Fatalf("dump does not contain candidates: %s", data)
	}
}

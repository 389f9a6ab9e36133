package ranking

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/spigell/ats-scorer/internal/scoring"
)

type Candidates struct {
	RunID string       `json:"run_id,omitempty"`
	Items []*Candidate `json:"items"`
}

type Candidate struct {
	ID        string             `json:"id"`
	Path      string             `json:"path,omitempty"`
	Score     float64            `json:"score"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
	// Error is set when the résumé could not be scored; Score is 0 then.
	Error string `json:"error,omitempty"`
}

type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	Path       string
	Score      float64
	ExcludedAt time.Time
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) IDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (c *Candidates) FindByID(id string) *Candidate {
	for _, item := range c.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Exclude removes candidates with the given ids keeping the order of the
// rest and returns the removed ids.
func (c *Candidates) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return c.removeIf(func(item *Candidate) bool {
		_, ok := drop[item.ID]
		return ok
	})
}

func (c *Candidates) removeIf(match func(*Candidate) bool) []string {
	var removed []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if match(item) {
			removed = append(removed, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return removed
}

// Sort orders candidates by descending score, then by id.
func (c *Candidates) Sort() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		if c.Items[i].Score != c.Items[j].Score {
			return c.Items[i].Score > c.Items[j].Score
		}
		return c.Items[i].ID < c.Items[j].ID
	})
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (c *Candidates) ToExcluded() *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, item := range c.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         item.ID,
			Path:       item.Path,
			Score:      item.Score,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// ReadExcludedFile loads already reviewed candidates. A missing or empty file
// means nothing is excluded yet.
func ReadExcludedFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedCandidates{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(other *ExcludedCandidates) {
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedCandidates) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

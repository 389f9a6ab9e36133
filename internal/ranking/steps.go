package ranking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/scoring"
)

type minScoreFilter struct {
	min      float64
	disabled bool
	reason   string
	logger   *zap.Logger
}

// NewMinScore creates a filter that drops candidates scoring below threshold.
func NewMinScore(threshold float64, log *zap.Logger) Filter {
	return &minScoreFilter{min: threshold, logger: logger.WithFields(log, zap.String("filter", "min_score"))}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate() error {
	if f.min < scoring.MinScore || f.min > scoring.MaxScore {
		return fmt.Errorf("minimum score must be within [%.0f, %.0f], got %.2f", scoring.MinScore, scoring.MaxScore, f.min)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	removed := c.removeIf(func(item *Candidate) bool { return item.Score < f.min })
	if len(removed) > 0 {
		f.logger.Info("excluding candidates below minimum score",
			zap.Float64("min_score", f.min),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}
	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.FormatFloat(f.min, 'f', 2, 64)},
	}
}

type excludeFileFilter struct {
	path     string
	disabled bool
	reason   string
	logger   *zap.Logger
}

// NewExcludeFile creates a filter that removes candidates listed in the
// exclude file.
func NewExcludeFile(path string, log *zap.Logger) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path), logger: logger.WithFields(log, zap.String("filter", "exclude_file"))}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded, err := ReadExcludedFile(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := c.Exclude(excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type topFilter struct {
	limit    int
	disabled bool
	reason   string
	logger   *zap.Logger
}

// NewTop creates a filter that keeps the best limit candidates. A limit of
// zero keeps everyone.
func NewTop(limit int, log *zap.Logger) Filter {
	return &topFilter{limit: limit, logger: logger.WithFields(log, zap.String("filter", "top"))}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *topFilter) IsEnabled() bool { return !f.disabled }

func (f *topFilter) Validate() error {
	if f.limit < 0 {
		return fmt.Errorf("top limit must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *topFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.limit == 0 || initial <= f.limit {
		return c, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	c.Sort()
	dropped := c.Items[f.limit:]
	ids := make([]string, 0, len(dropped))
	for _, item := range dropped {
		ids = append(ids, item.ID)
	}
	c.Items = c.Items[:f.limit]

	f.logger.Debug("keeping top candidates",
		zap.Int("limit", f.limit),
		zap.Strings("dropped_candidates", ids),
	)

	return c, Step{Initial: initial, Dropped: len(ids), Left: c.Len()}, nil
}

func (f *topFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"limit": strconv.Itoa(f.limit)},
	}
}

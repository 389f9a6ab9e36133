package ranking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
)

// Filter represents a single step applied to ranked candidates.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, c *Candidates) (*Candidates, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

type Pipeline struct {
	steps  []Filter
	logger *zap.Logger
}

func NewPipeline(steps []Filter, log *zap.Logger) *Pipeline {
	return &Pipeline{steps: steps, logger: logger.WithFields(log)}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func (p *Pipeline) DisableByName(name, reason string) {
	found := false
	for _, step := range p.steps {
		if step.Name() == name {
			step.Disable(reason)
			found = true
		}
	}
	if !found {
		p.logger.Warn("no filter to disable", zap.String("name", name))
	}
}

// Run validates every enabled step and then applies them in order.
func (p *Pipeline) Run(ctx context.Context, c *Candidates) (*Candidates, error) {
	for _, step := range p.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range p.steps {
		if !step.IsEnabled() {
			p.logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		c = next
	}

	return c, nil
}

// Describe returns status entries for the pipeline steps.
func (p *Pipeline) Describe() []Status {
	statuses := make([]Status, 0, len(p.steps))
	for _, step := range p.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

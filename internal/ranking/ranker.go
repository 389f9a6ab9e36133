// Package ranking scores many résumés against one job description and narrows
// the result down with a pipeline of filters.
package ranking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/scoring"
)

const DefaultWorkers = 4

type Scorer interface {
	Score(jobDescription, resumeText string) (*scoring.Breakdown, error)
}

type Ranker struct {
	scorer  Scorer
	workers int
	logger  *zap.Logger
}

func NewRanker(scorer Scorer, workers int, log *zap.Logger) *Ranker {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Ranker{
		scorer:  scorer,
		workers: workers,
		logger:  logger.WithFields(log, zap.String("component", "ranker")),
	}
}

// Rank scores every résumé concurrently and returns the candidates sorted by
// score. A résumé that cannot be scored stays in the list with a zero score
// and its error; only cancellation of ctx aborts the run.
func (r *Ranker) Rank(ctx context.Context, jobDescription string, resumes []*document.Document) (*Candidates, error) {
	if len(resumes) == 0 {
		return nil, fault.Validation("rank", "no resumes to rank")
	}

	runID := uuid.NewString()
	log := logger.WithFields(r.logger, logger.CandidateFields(runID, "")...)
	log.Info("ranking started", zap.Int("resumes", len(resumes)), zap.Int("workers", r.workers))

	items := make([]*Candidate, len(resumes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, doc := range resumes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			c := &Candidate{ID: doc.ID, Path: doc.Path}
			b, err := r.scorer.Score(jobDescription, doc.Text)
			if err != nil {
				log.Warn("resume could not be scored",
					zap.String(logger.FieldCandidate, doc.ID),
					zap.String("kind", fault.KindOf(err).String()),
					zap.Error(err),
				)
				c.Error = err.Error()
			} else {
				c.Score = b.Score
				c.Breakdown = b
			}
			items[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking interrupted: %w", err)
	}

	candidates := &Candidates{RunID: runID, Items: items}
	candidates.Sort()

	log.Info("ranking finished", zap.Int("candidates", candidates.Len()))
	return candidates, nil
}

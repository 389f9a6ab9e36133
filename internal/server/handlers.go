package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/ranking"
)

type scoreRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	ResumeText     string `json:"resume_text" validate:"required"`
	Details        bool   `json:"details"`
}

type scoreResponse struct {
	Score           float64  `json:"score"`
	TFIDFSimilarity float64  `json:"tfidf_similarity"`
	KeyMatchRatio   float64  `json:"key_match_ratio"`
	MatchedTerms    []string `json:"matched_terms"`
	MissingTerms    []string `json:"missing_terms"`
	KeyTerms        []string `json:"key_terms,omitempty"`
	FilteredResume  string   `json:"filtered_resume,omitempty"`
	// Degraded explains a zero score caused by a processing fault.
	Degraded string `json:"degraded,omitempty"`
}

type rankResume struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}

type rankRequest struct {
	JobDescription string       `json:"job_description" validate:"required"`
	Resumes        []rankResume `json:"resumes" validate:"required,min=1,dive"`
	MinScore       float64      `json:"min_score" validate:"gte=0,lte=100"`
	Top            int          `json:"top" validate:"gte=0"`
}

type rankedCandidate struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

type rankResponse struct {
	RunID      string            `json:"run_id"`
	Candidates []rankedCandidate `json:"candidates"`
	Filters    []ranking.Status  `json:"filters"`
}

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) score(c fiber.Ctx) error {
	var req scoreRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	b, err := s.scorer.Score(req.JobDescription, req.ResumeText)
	switch {
	case err == nil:
	case errors.Is(err, fault.ErrProcessing):
		s.logger.Warn("resume scored as zero", zap.Error(err))
		s.record(c.Context(), history.NewRecord("", "http", req.JobDescription, nil, err))
		return c.JSON(scoreResponse{MatchedTerms: []string{}, MissingTerms: []string{}, Degraded: err.Error()})
	default:
		return err
	}

	s.record(c.Context(), history.NewRecord("", "http", req.JobDescription, b, nil))

	resp := scoreResponse{
		Score:           b.Score,
		TFIDFSimilarity: b.TFIDFSimilarity,
		KeyMatchRatio:   b.KeyMatchRatio,
		MatchedTerms:    b.MatchedTerms,
		MissingTerms:    b.MissingTerms,
	}
	if req.Details {
		resp.KeyTerms = b.KeyTerms
		resp.FilteredResume = b.FilteredResume
	}
	return c.JSON(resp)
}

func (s *Server) rank(c fiber.Ctx) error {
	var req rankRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	docs := make([]*document.Document, 0, len(req.Resumes))
	for _, r := range req.Resumes {
		docs = append(docs, &document.Document{ID: r.ID, Text: r.Text})
	}

	ctx := c.Context()
	candidates, err := s.ranker.Rank(ctx, req.JobDescription, docs)
	if err != nil {
		return err
	}

	records := make([]*history.Record, 0, candidates.Len())
	for _, item := range candidates.Items {
		r := history.NewRecord(candidates.RunID, item.ID, req.JobDescription, item.Breakdown, nil)
		r.Error = item.Error
		records = append(records, r)
	}
	s.record(ctx, records...)

	minScore := ranking.NewMinScore(req.MinScore, s.logger)
	if req.MinScore == 0 {
		minScore.Disable("not requested")
	}
	pipeline := ranking.NewPipeline([]ranking.Filter{minScore, ranking.NewTop(req.Top, s.logger)}, s.logger)

	filtered, err := pipeline.Run(ctx, candidates)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	resp := rankResponse{
		RunID:      filtered.RunID,
		Candidates: make([]rankedCandidate, 0, filtered.Len()),
		Filters:    pipeline.Describe(),
	}
	for _, item := range filtered.Items {
		resp.Candidates = append(resp.Candidates, rankedCandidate{ID: item.ID, Score: item.Score, Error: item.Error})
	}
	return c.JSON(resp)
}

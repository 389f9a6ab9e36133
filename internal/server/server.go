// Package server exposes the scorer over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/ranking"
	"github.com/spigell/ats-scorer/internal/scoring"
)

const appName = "ats-scorer"

type Scorer interface {
	Score(jobDescription, resumeText string) (*scoring.Breakdown, error)
}

type Ranker interface {
	Rank(ctx context.Context, jobDescription string, resumes []*document.Document) (*ranking.Candidates, error)
}

// Recorder persists scoring outcomes. It is optional.
type Recorder interface {
	Save(ctx context.Context, records ...*history.Record) error
}

type Server struct {
	app      *fiber.App
	scorer   Scorer
	ranker   Ranker
	recorder Recorder
	logger   *zap.Logger
}

type structValidator struct {
	validate *validator.Validate
}

func (v structValidator) Validate(out any) error {
	return v.validate.Struct(out)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// New wires the routes. recorder may be nil.
func New(scorer Scorer, ranker Ranker, recorder Recorder, log *zap.Logger) *Server {
	s := &Server{
		scorer:   scorer,
		ranker:   ranker,
		recorder: recorder,
		logger:   logger.WithFields(log, zap.String("component", "server")),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      appName,
		ErrorHandler: s.handleError,
		StructValidator: structValidator{
			validate: validator.New(validator.WithRequiredStructEnabled()),
		},
	})

	s.app.Use(s.logRequest)
	s.app.Get("/healthz", s.health)

	v1 := s.app.Group("/v1")
	v1.Post("/score", s.score)
	v1.Post("/rank", s.rank)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr, fiber.ListenConfig{
		DisableStartupMessage: true,
		GracefulContext:       ctx,
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequest(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Debug("request handled", fields...)

	return err
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &ve), errors.Is(err, fault.ErrValidation):
		code = fiber.StatusBadRequest
	case errors.Is(err, fault.ErrResourceUnavailable):
		code = fiber.StatusServiceUnavailable
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error(), Kind: fault.KindOf(err).String()})
}

// bind decodes and validates the JSON body. Decoding failures become 400.
func bind(c fiber.Ctx, out any) error {
	err := c.Bind().Body(out)
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	var ve validator.ValidationErrors
	if errors.As(err, &fe) || errors.As(err, &ve) {
		return err
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

func (s *Server) record(ctx context.Context, records ...*history.Record) {
	if s.recorder == nil || len(records) == 0 {
		return
	}
	if err := s.recorder.Save(ctx, records...); err != nil {
		s.logger.Warn("history not saved", zap.Error(err))
	}
}

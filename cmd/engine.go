package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/fault"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/jobsource"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/secrets"
	"github.com/spigell/ats-scorer/internal/sections"
	"github.com/spigell/ats-scorer/internal/textproc"
	"github.com/spigell/ats-scorer/internal/thesaurus"
	"github.com/spigell/ats-scorer/internal/vectorspace"
)

// engine holds the reference data loaded once per process.
type engine struct {
	normalizer *textproc.Normalizer
	filter     *sections.Filter
	thesaurus  *thesaurus.Thesaurus
	scorer     *scoring.Scorer
}

func newEngine(config *Config, logger *zap.Logger) (*engine, error) {
	normalizer := textproc.NewNormalizer(logger)

	filter, err := sections.New(config.Vocabulary, logger)
	if err != nil {
		return nil, fmt.Errorf("building section filter: %w", err)
	}

	th := loadThesaurus(config.Thesaurus, normalizer, logger)

	scorer, err := scoring.New(config.Scoring, scoring.Deps{
		Normalizer: normalizer,
		Filter:     filter,
		Vectors:    vectorspace.New(logger),
		Thesaurus:  th,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}

	return &engine{normalizer: normalizer, filter: filter, thesaurus: th, scorer: scorer}, nil
}

// loadThesaurus never fails: files that cannot be read are skipped and an
// empty result leaves every word matching only itself.
func loadThesaurus(cfg ThesaurusConfig, normalizer *textproc.Normalizer, logger *zap.Logger) *thesaurus.Thesaurus {
	var synsets []thesaurus.Synset

	if cfg.UseDefault {
		bundled, err := thesaurus.Default()
		if err != nil {
			logger.Warn("bundled thesaurus unavailable", zap.Error(fault.Unavailable("thesaurus", err)))
		}
		synsets = append(synsets, bundled...)
	}

	for _, path := range cfg.Files {
		loaded, err := thesaurus.ReadFile(path)
		if err != nil {
			logger.Warn("skipping thesaurus file", zap.String("path", path), zap.Error(fault.Unavailable("thesaurus", err)))
			continue
		}
		synsets = append(synsets, loaded...)
	}

	if len(synsets) == 0 {
		logger.Warn("thesaurus is empty, synonym matching is off")
		return nil
	}

	var opts []thesaurus.Option
	if cfg.StemLemmas {
		opts = append(opts, thesaurus.WithStemmer(normalizer.StemWord))
	}

	th := thesaurus.New(synsets, opts...)
	logger.Debug("thesaurus loaded", zap.Int("synsets", th.Len()), zap.Int("files", len(cfg.Files)))
	return th
}

// jobSource describes where the job description comes from.
type jobSource struct {
	File    string
	Vacancy string
}

func (s jobSource) validate() error {
	file, vacancy := strings.TrimSpace(s.File), strings.TrimSpace(s.Vacancy)
	switch {
	case file == "" && vacancy == "":
		return errors.New("either --job or --vacancy is required")
	case file != "" && vacancy != "":
		return errors.New("--job and --vacancy are mutually exclusive")
	}
	return nil
}

func loadJobDescription(ctx context.Context, src jobSource, config *Config, logger *zap.Logger) (string, error) {
	if err := src.validate(); err != nil {
		return "", err
	}

	if src.File != "" {
		doc, err := document.Load(src.File)
		if err != nil {
			return "", fmt.Errorf("loading job description: %w", err)
		}
		return doc.Text, nil
	}

	token, err := secrets.Load(secrets.Source{
		Name:     "headhunter token",
		Value:    config.HH.Token,
		File:     config.HH.TokenFile,
		Optional: true,
	})
	if err != nil {
		return "", err
	}

	client := jobsource.New(logger, token)
	if config.HH.UserAgent != "" {
		client.UserAgent = config.HH.UserAgent
	}

	vacancy, err := client.GetVacancy(ctx, src.Vacancy)
	if err != nil {
		return "", err
	}

	logger.Info("vacancy fetched",
		zap.String("vacancy_id", vacancy.ID),
		zap.String("name", vacancy.Name),
		zap.String("url", vacancy.AlternateURL),
	)
	return vacancy.JobDescription()
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context, config *Config, logger *zap.Logger) (*history.Store, error) {
	if !config.History.Enabled {
		return nil, nil
	}
	return history.Open(ctx, config.History.Path, logger)
}

func readResume(path string) (*document.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--resume is required")
	}
	return document.Load(path)
}

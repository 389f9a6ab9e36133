package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/ai/gemini"
	"github.com/spigell/ats-scorer/internal/secrets"
	"github.com/spigell/ats-scorer/internal/thesaurus"
)

var thesaurusCmd = &cobra.Command{
	Use:   "thesaurus",
	Short: "Manage synonym files",
}

var thesaurusGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask Gemini for synonym groups covering a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		generateThesaurus(cmd)
	},
}

func init() {
	rootCmd.AddCommand(thesaurusCmd)
	thesaurusCmd.AddCommand(thesaurusGenerateCmd)

	thesaurusGenerateCmd.Flags().String("job", "", "file with the job description (txt, md, pdf, docx)")
	thesaurusGenerateCmd.Flags().String("vacancy", "", "hh.ru vacancy id to use as the job description")
	thesaurusGenerateCmd.Flags().StringP("out", "o", "", "thesaurus file to write (yaml or json)")
	thesaurusGenerateCmd.Flags().Bool("merge", false, "keep the synonym groups already stored in --out")
}

func generateThesaurus(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	out := flagString(cmd, "out")
	if out == "" {
		logger.Fatal("--out is required")
	}

	src := jobSource{File: flagString(cmd, "job"), Vacancy: flagString(cmd, "vacancy")}
	jd, err := loadJobDescription(ctx, src, config, logger)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	suggester, err := newSynsetSuggester(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building synset suggester", zap.Error(err))
	}

	synsets, err := suggester.SuggestSynsets(ctx, jd)
	if err != nil {
		logger.Fatal("suggesting synsets", zap.Error(err))
	}

	if flagBool(cmd, "merge") {
		if _, err := os.Stat(out); err == nil {
			existing, err := thesaurus.ReadFile(out)
			if err != nil {
				logger.Fatal("reading existing thesaurus", zap.String("path", out), zap.Error(err))
			}
			synsets = append(existing, synsets...)
		} else if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal("reading existing thesaurus", zap.String("path", out), zap.Error(err))
		}
	}

	if err := thesaurus.WriteFile(out, synsets); err != nil {
		logger.Fatal("writing thesaurus", zap.Error(err))
	}

	logger.Info("thesaurus written",
		zap.String("path", out),
		zap.Int("synsets", len(synsets)),
		zap.String("hint", "add the file to thesaurus.files in the config"),
	)
}

func newSynsetSuggester(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.SynsetSuggester, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger)
	if err != nil {
		return nil, err
	}

	return gemini.NewSuggester(generator, logger, cfg.MaxSynsets, cfg.Gemini.MaxLogLength), nil
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/scoring"
)

const (
	PromptBreakdown      = "Show breakdown"
	PromptFilteredResume = "Show filtered résumé"
	PromptReportToFile   = "Dump report to file"
	PromptExit           = "Exit"
)

var errExit = errors.New("exit requested")

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one résumé against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job", "", "file with the job description (txt, md, pdf, docx)")
	scoreCmd.Flags().String("vacancy", "", "hh.ru vacancy id to use as the job description")
	scoreCmd.Flags().StringP("resume", "r", "", "résumé file (txt, md, pdf, docx)")
	scoreCmd.Flags().Bool("details", false, "print the full breakdown as JSON")
	scoreCmd.Flags().BoolP("interactive", "i", false, "explore the result in an interactive menu")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	src := jobSource{File: flagString(cmd, "job"), Vacancy: flagString(cmd, "vacancy")}
	jd, err := loadJobDescription(ctx, src, config, logger)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	resume, err := readResume(flagString(cmd, "resume"))
	if err != nil {
		logger.Fatal("loading résumé", zap.Error(err))
	}

	eng, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("preparing scorer", zap.Error(err))
	}

	b, scoreErr := eng.scorer.Score(jd, resume.Text)
	if scoreErr != nil {
		logger.Warn("résumé scored as zero", zap.String("candidate", resume.ID), zap.Error(scoreErr))
		b = &scoring.Breakdown{MatchedTerms: []string{}, MissingTerms: []string{}}
	}

	store, err := openHistory(ctx, config, logger)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		if err := store.Save(ctx, history.NewRecord("", resume.ID, jd, b, scoreErr)); err != nil {
			logger.Warn("history not saved", zap.Error(err))
		}
	}

	if flagBool(cmd, "details") {
		if err := printJSON(b); err != nil {
			logger.Fatal("printing breakdown", zap.Error(err))
		}
	} else {
		fmt.Printf("%.2f\n", b.Score)
	}

	if !flagBool(cmd, "interactive") {
		return
	}

	menu := promptui.Select{
		Label: fmt.Sprintf("%s scored %.2f", resume.ID, b.Score),
		Items: []string{PromptBreakdown, PromptFilteredResume, PromptReportToFile, PromptExit},
	}
	for {
		_, action, err := menu.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if err := handleScoreAction(action, b, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleScoreAction(action string, b *scoring.Breakdown, logger *zap.Logger) error {
	switch action {
	case PromptBreakdown:
		fmt.Printf("score:            %.2f\n", b.Score)
		fmt.Printf("tf-idf:           %.4f\n", b.TFIDFSimilarity)
		fmt.Printf("key match ratio:  %.4f\n", b.KeyMatchRatio)
		fmt.Printf("matched terms:    %v\n", b.MatchedTerms)
		fmt.Printf("missing terms:    %v\n", b.MissingTerms)
		fmt.Printf("key terms:        %v\n", b.KeyTerms)
		return nil
	case PromptFilteredResume:
		fmt.Println(b.FilteredResume)
		return nil
	case PromptReportToFile:
		filename, err := dumpToTmpFile("score_*.json", b)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

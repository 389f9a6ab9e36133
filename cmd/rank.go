package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/history"
	"github.com/spigell/ats-scorer/internal/ranking"
)

const (
	PromptShowCandidates      = "Show candidates"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
	PromptCandidatesToFile    = "Dump candidates to file"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank many résumés against one job description",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "file with the job description (txt, md, pdf, docx)")
	rankCmd.Flags().String("vacancy", "", "hh.ru vacancy id to use as the job description")
	rankCmd.Flags().StringSlice("resumes", nil, "résumé files or directories")
	rankCmd.Flags().Float64("min-score", 0, "drop candidates scoring below this value")
	rankCmd.Flags().Int("top", 0, "keep only the best N candidates, 0 keeps all")
	rankCmd.Flags().Int("workers", 0, "number of résumés scored concurrently")
	rankCmd.Flags().StringP("exclude-file", "e", "", "file with already reviewed candidates. Default is unset.")
	rankCmd.Flags().BoolP("interactive", "i", false, "review the ranking in an interactive menu")

	viper.BindPFlag("rank.min-score", rankCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("rank.top", rankCmd.Flags().Lookup("top"))
	viper.BindPFlag("rank.workers", rankCmd.Flags().Lookup("workers"))
	viper.BindPFlag("exclude-file", rankCmd.Flags().Lookup("exclude-file"))
}

func rank(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, config := setup()

	src := jobSource{File: flagString(cmd, "job"), Vacancy: flagString(cmd, "vacancy")}
	jd, err := loadJobDescription(ctx, src, config, logger)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	paths, _ := cmd.Flags().GetStringSlice("resumes")
	if len(paths) == 0 {
		logger.Fatal("--resumes is required")
	}
	docs, err := document.LoadAll(paths)
	if err != nil {
		logger.Fatal("loading résumés", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Info("exiting", zap.String("reason", "no supported résumé files found"))
		return
	}

	eng, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("preparing scorer", zap.Error(err))
	}

	candidates, err := ranking.NewRanker(eng.scorer, config.Rank.Workers, logger).Rank(ctx, jd, docs)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}

	saveRanking(ctx, config, candidates, jd, logger)

	pipeline := rankingPipeline(config, logger)
	candidates, err = pipeline.Run(ctx, candidates)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	printCandidates(candidates)

	if !flagBool(cmd, "interactive") {
		return
	}

	for {
		items := []string{PromptShowCandidates, PromptCandidatesToFile}
		if config.ExcludeFile != "" && candidates.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}
		menu := promptui.Select{
			Label: fmt.Sprintf("%d candidates", candidates.Len()),
			Items: append(items, PromptExit),
		}

		_, action, err := menu.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if err := handleRankAction(action, config, candidates, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func rankingPipeline(config *Config, logger *zap.Logger) *ranking.Pipeline {
	minScore := ranking.NewMinScore(config.Rank.MinScore, logger)
	if config.Rank.MinScore == 0 {
		minScore.Disable("minimum score is not set")
	}

	return ranking.NewPipeline([]ranking.Filter{
		ranking.NewExcludeFile(config.ExcludeFile, logger),
		minScore,
		ranking.NewTop(config.Rank.Top, logger),
	}, logger)
}

func saveRanking(ctx context.Context, config *Config, candidates *ranking.Candidates, jd string, logger *zap.Logger) {
	store, err := openHistory(ctx, config, logger)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	records := make([]*history.Record, 0, candidates.Len())
	for _, item := range candidates.Items {
		r := history.NewRecord(candidates.RunID, item.ID, jd, item.Breakdown, nil)
		r.Error = item.Error
		records = append(records, r)
	}
	if err := store.Save(ctx, records...); err != nil {
		logger.Warn("history not saved", zap.Error(err))
	}
}

func printCandidates(candidates *ranking.Candidates) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tCANDIDATE\tNOTE")
	for i, item := range candidates.Items {
		note := item.Error
		if note == "" && item.Breakdown != nil && len(item.Breakdown.MissingTerms) > 0 {
			note = "missing: " + strings.Join(item.Breakdown.MissingTerms, ", ")
		}
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n", i+1, item.Score, item.ID, note)
	}
	w.Flush()
}

func handleRankAction(action string, config *Config, candidates *ranking.Candidates, logger *zap.Logger) error {
	switch action {
	case PromptShowCandidates:
		printCandidates(candidates)
		return nil
	case PromptCandidatesToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump candidates to file: %w", err)
		}
		logger.Info("dumping candidates to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excluded, err := ranking.ReadExcludedFile(config.ExcludeFile)
		if err != nil {
			return err
		}

		excluded.Append(candidates.ToExcluded())
		if err := excluded.ToFile(config.ExcludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", config.ExcludeFile))
		candidates.Exclude(excluded.IDs())
		if candidates.Len() == 0 {
			return errExit
		}
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

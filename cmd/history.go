package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently computed scores",
	Run: func(cmd *cobra.Command, _ []string) {
		showHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of records to show")
}

func showHistory(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	if !config.History.Enabled {
		logger.Info("exiting", zap.String("reason", "history is disabled"), zap.String("hint", "set history.enabled in the config"))
		return
	}

	store, err := openHistory(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening history", zap.Error(err))
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.Recent(ctx, limit)
	if err != nil {
		logger.Fatal("reading history", zap.Error(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tCANDIDATE\tJOB\tSCORE\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.RunID, r.Candidate, r.JobHash, r.Score, r.Error)
	}
	w.Flush()
}

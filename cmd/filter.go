package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/sections"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the résumé lines that take part in scoring",
	Run: func(cmd *cobra.Command, _ []string) {
		filter(cmd)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringP("resume", "r", "", "résumé file (txt, md, pdf, docx)")
	filterCmd.Flags().String("job", "", "optional job description file; its key terms rescue lines in irrelevant sections")
	filterCmd.Flags().Bool("decisions", false, "print every line with the rule that kept or dropped it")
}

func filter(cmd *cobra.Command) {
	logger, config := setup()

	resume, err := readResume(flagString(cmd, "resume"))
	if err != nil {
		logger.Fatal("loading résumé", zap.Error(err))
	}

	var jd string
	if path := flagString(cmd, "job"); path != "" {
		doc, err := document.Load(path)
		if err != nil {
			logger.Fatal("loading job description", zap.Error(err))
		}
		jd = doc.Text
	}

	f, err := sections.New(config.Vocabulary, logger)
	if err != nil {
		logger.Fatal("building section filter", zap.Error(err))
	}

	result := f.Apply(resume.Text, jd)
	if len(result.KeyTerms) > 0 {
		logger.Info("job key terms", zap.Strings("terms", result.KeyTerms))
	}

	if !flagBool(cmd, "decisions") {
		fmt.Println(result.Text)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, d := range result.Decisions {
		mark := "-"
		if d.Kept {
			mark = "+"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", mark, d.Rule, d.Line)
	}
	w.Flush()
}

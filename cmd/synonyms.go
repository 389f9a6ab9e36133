package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/ats-scorer/internal/textproc"
)

var synonymsCmd = &cobra.Command{
	Use:   "synonyms WORD...",
	Short: "Show the words that count as a match for each given word",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		synonyms(args)
	},
}

func init() {
	rootCmd.AddCommand(synonymsCmd)
}

func synonyms(words []string) {
	logger, config := setup()

	th := loadThesaurus(config.Thesaurus, textproc.NewNormalizer(logger), logger)
	expander := th.Expander()

	for _, word := range words {
		set := expander.Synonyms(word)
		out := make([]string, 0, len(set))
		for s := range set {
			out = append(out, s)
		}
		sort.Strings(out)
		fmt.Printf("%s: %s\n", strings.ToLower(word), strings.Join(out, ", "))
	}
}

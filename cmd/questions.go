package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/valuation-cli/internal/questionnaire"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the value driver questionnaire",
	Long:  "Lists every question with its option indexes and weights. Pass answers to value and batch as question-id=option-index.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		qs, err := questionnaire.Load()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(qs.Questions())
		}
		formatQuestions(cmd.OutOrStdout(), qs.Questions())
		return nil
	},
}

func formatQuestions(out io.Writer, questions []questionnaire.Question) {
	for i, q := range questions {
		if i > 0 {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintf(out, "%s [%s]\n  %s\n", q.ID, q.Category, q.Text)
		for _, o := range q.WeightedOptions() {
			_, _ = fmt.Fprintf(out, "    %d) %s (weight %d)\n", o.Index, o.Label, o.Weight)
		}
	}
}

func init() {
	questionsCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(questionsCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/report"
	"github.com/sells-group/valuation-cli/internal/store"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

var assessmentsCmd = &cobra.Command{
	Use:     "assessments",
	Aliases: []string{"a"},
	Short:   "Inspect saved assessments",
	Long:    "Commands for listing, viewing, and deleting saved valuations.",
}

// -- assessments list --

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved assessments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		list, err := st.ListAssessments(ctx, assessmentFilterFromFlags(cmd))
		if err != nil {
			return eris.Wrap(err, "assessments list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No assessments found.")
			return nil
		}

		formatAssessmentsList(cmd.OutOrStdout(), list)
		return nil
	},
}

// -- assessments show --

var assessmentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		a, err := st.GetAssessment(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "assessments show")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		}
		if err := report.Summary(cmd.OutOrStdout(), a); err != nil {
			return err
		}
		if all := a.Result.Recommendations; len(all) > valuation.DisplayedRecommendations {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  (%d more with --json)\n", len(all)-valuation.DisplayedRecommendations)
		}
		return nil
	},
}

// -- assessments delete --

var assessmentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteAssessment(ctx, args[0]); err != nil {
			return eris.Wrap(err, "assessments delete")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

func assessmentFilterFromFlags(cmd *cobra.Command) store.AssessmentFilter {
	company, _ := cmd.Flags().GetString("company")
	code, _ := cmd.Flags().GetString("industry")
	grade, _ := cmd.Flags().GetString("grade")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	return store.AssessmentFilter{
		Company:      company,
		IndustryCode: code,
		Grade:        valuation.Grade(grade),
		Source:       model.Source(source),
		Limit:        limit,
	}
}

func addFilterFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().String("company", "", "filter by company name (substring)")
	cmd.Flags().String("industry", "", "filter by NAICS code")
	cmd.Flags().String("grade", "", "filter by grade (A-F)")
	cmd.Flags().String("source", "", "filter by source (api, cli, batch)")
	cmd.Flags().Int("limit", defaultLimit, "max number of assessments")
}

// formatAssessmentsList writes a table of assessments to out.
func formatAssessmentsList(out io.Writer, list []model.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tNAICS\tMEAN\tMULTIPLE\tGRADE\tSOURCE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t----\t--------\t-----\t------\t-------")

	for _, a := range list {
		company := a.Company
		if company == "" {
			company = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(a.ID),
			truncate(company, 30),
			a.IndustryCode(),
			report.FormatCompact(a.Result.Valuation.Mean),
			report.FormatMultiple(a.Result.Multiplier),
			a.Result.Grade,
			a.Source,
			a.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID shortens a UUID to its first 8 characters for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	addFilterFlags(assessmentsListCmd, 50)
	assessmentsShowCmd.Flags().Bool("json", false, "print the full record as JSON")

	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsShowCmd)
	assessmentsCmd.AddCommand(assessmentsDeleteCmd)
	rootCmd.AddCommand(assessmentsCmd)
}

package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/valuation-cli/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved assessments to XLSX",
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
			return eris.Wrap(err, "export")
		}

		output, _ := cmd.Flags().GetString("output")
		if err := report.WriteXLSX(output, list); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d assessments to %s.\n", len(list), output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "valuations.xlsx", "XLSX file to write")
	addFilterFlags(exportCmd, 1000)
	rootCmd.AddCommand(exportCmd)
}

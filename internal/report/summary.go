package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// Summary writes a plain-text report of a: the valuation range, earnings,
// driver scores and the top recommendations.
func Summary(w io.Writer, a *model.Assessment) error {
	r := a.Result
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	title := a.Company
	if title == "" {
		title = "Valuation"
	}
	fmt.Fprintf(tw, "%s\n", title)
	if a.ID != "" {
		fmt.Fprintf(tw, "ID:\t%s\n", a.ID)
	}
	if code := a.IndustryCode(); code != "" {
		fmt.Fprintf(tw, "Industry:\t%s\n", code)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Estimated value:\t%s\n", FormatCurrency(r.Valuation.Mean))
	fmt.Fprintf(tw, "Range:\t%s - %s\n", FormatCurrency(r.Valuation.Low), FormatCurrency(r.Valuation.High))
	fmt.Fprintf(tw, "Multiple:\t%s (industry %s / %s / %s)\n",
		FormatMultiple(r.Multiplier),
		FormatMultiple(r.Industry.Low), FormatMultiple(r.Industry.Avg), FormatMultiple(r.Industry.High))
	fmt.Fprintf(tw, "EBITDA:\t%s\n", FormatCurrency(r.EBITDA))
	fmt.Fprintf(tw, "Adjusted EBITDA:\t%s\n", FormatCurrency(r.AdjustedEBITDA))
	fmt.Fprintf(tw, "Value driver score:\t%s (grade %s)\n", FormatScore(r.OverallScore), r.Grade)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Category\tAverage")
	for _, c := range valuation.Categories {
		fmt.Fprintf(tw, "%s\t%.1f\n", c, r.CategoryScores[c])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	top := valuation.TopRecommendations(r)
	if len(top) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nRecommendations:"); err != nil {
		return err
	}
	for i, rec := range top {
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, rec); err != nil {
			return err
		}
	}
	return nil
}

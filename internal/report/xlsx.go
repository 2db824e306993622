package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

const (
	valuationsSheet = "Valuations"
	driversSheet    = "Drivers"
)

var valuationHeader = []string{
	"ID", "Company", "Industry", "Source", "Revenue", "EBITDA", "Adjusted EBITDA",
	"Multiple", "Low", "Mean", "High", "Score", "Grade", "Recommendation 1", "Recommendation 2", "Created",
}

// WriteXLSX writes assessments to path with one row per assessment on the
// "Valuations" sheet and category averages on the "Drivers" sheet.
func WriteXLSX(path string, assessments []model.Assessment) error {
	f := xlsx.NewFile()

	vs, err := f.AddSheet(valuationsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add valuations sheet")
	}
	addStringRow(vs, valuationHeader)
	for _, a := range assessments {
		r := a.Result
		row := vs.AddRow()
		row.AddCell().SetString(a.ID)
		row.AddCell().SetString(a.Company)
		row.AddCell().SetString(a.IndustryCode())
		row.AddCell().SetString(string(a.Source))
		row.AddCell().SetFloat(a.Input.Financials.Revenue)
		row.AddCell().SetFloat(r.EBITDA)
		row.AddCell().SetFloat(r.AdjustedEBITDA)
		row.AddCell().SetFloat(r.Multiplier)
		row.AddCell().SetFloat(r.Valuation.Low)
		row.AddCell().SetFloat(r.Valuation.Mean)
		row.AddCell().SetFloat(r.Valuation.High)
		row.AddCell().SetFloat(r.OverallScore)
		row.AddCell().SetString(string(r.Grade))
		top := valuation.TopRecommendations(r)
		for i := 0; i < valuation.DisplayedRecommendations; i++ {
			if i < len(top) {
				row.AddCell().SetString(top[i])
			} else {
				row.AddCell().SetString("")
			}
		}
		if a.CreatedAt.IsZero() {
			row.AddCell().SetString("")
		} else {
			row.AddCell().SetDateTime(a.CreatedAt)
		}
	}

	ds, err := f.AddSheet(driversSheet)
	if err != nil {
		return eris.Wrap(err, "report: add drivers sheet")
	}
	header := []string{"ID", "Company"}
	for _, c := range valuation.Categories {
		header = append(header, string(c))
	}
	addStringRow(ds, header)
	for _, a := range assessments {
		row := ds.AddRow()
		row.AddCell().SetString(a.ID)
		row.AddCell().SetString(a.Company)
		for _, c := range valuation.Categories {
			row.AddCell().SetFloat(a.Result.CategoryScores[c])
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

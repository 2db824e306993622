package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// Batch input columns. Any other header must be a question ID whose cells
// hold the selected option index (0-4); blank cells are unanswered.
const (
	ColCompany          = "company"
	ColNAICS            = "naics"
	ColRevenue          = "revenue"
	ColCOGS             = "cogs"
	ColOpex             = "opex"
	ColOwnerSalary      = "owner_salary"
	ColPersonalExpenses = "personal_expenses"
	ColOneTimeExpenses  = "one_time_expenses"
	ColOtherAdjustments = "other_adjustments"
)

var knownColumns = map[string]bool{
	ColCompany: true, ColNAICS: true, ColRevenue: true, ColCOGS: true, ColOpex: true,
	ColOwnerSalary: true, ColPersonalExpenses: true, ColOneTimeExpenses: true, ColOtherAdjustments: true,
}

// BatchRow is one parsed input row. Err is set when the row's answers could
// not be translated; the rest of the file is still usable.
type BatchRow struct {
	Line    int
	Company string
	Input   valuation.Input
	Err     error
}

// ReadBatch parses a .csv or .xlsx batch file. Financial cells are coerced
// like any other amount, so malformed numbers become 0.
func ReadBatch(path string, qs *questionnaire.Set) ([]BatchRow, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSVFile(path)
	case ".xlsx":
		records, err = readXLSXFile(path)
	default:
		return nil, eris.Errorf("report: unsupported batch file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseBatch(records, qs)
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return readCSV(f)
}

// readCSV strips a UTF-8 or UTF-16 byte order mark, which spreadsheet
// exports commonly add.
func readCSV(r io.Reader) ([][]string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "report: read csv")
	}
	return records, nil
}

func readXLSXFile(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("report: %s has no sheets", path)
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func parseBatch(records [][]string, qs *questionnaire.Set) ([]BatchRow, error) {
	if len(records) == 0 {
		return nil, eris.New("report: batch file is empty")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		header[i] = h
		if h == "" || knownColumns[h] {
			continue
		}
		if _, ok := qs.Get(h); !ok {
			return nil, eris.Errorf("report: unknown batch column %q", records[0][i])
		}
	}

	rows := make([]BatchRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(header))
		for i, h := range header {
			if h != "" && i < len(rec) {
				fields[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, parseBatchRow(n+2, fields, qs))
	}
	return rows, nil
}

func parseBatchRow(line int, fields map[string]string, qs *questionnaire.Set) BatchRow {
	row := BatchRow{
		Line:    line,
		Company: fields[ColCompany],
		Input: valuation.Input{
			IndustryCode: fields[ColNAICS],
			Financials: valuation.FinancialInputs{
				Revenue:           valuation.ParseAmount(fields[ColRevenue]),
				COGS:              valuation.ParseAmount(fields[ColCOGS]),
				OperatingExpenses: valuation.ParseAmount(fields[ColOpex]),
			},
			Adjustments: valuation.AdjustmentInputs{
				OwnerSalary:      valuation.ParseAmount(fields[ColOwnerSalary]),
				PersonalExpenses: valuation.ParseAmount(fields[ColPersonalExpenses]),
				OneTimeExpenses:  valuation.ParseAmount(fields[ColOneTimeExpenses]),
				OtherAdjustments: valuation.ParseAmount(fields[ColOtherAdjustments]),
			},
		},
	}

	answers := make(map[string]int)
	for col, v := range fields {
		if knownColumns[col] || v == "" {
			continue
		}
		idx, err := cast.ToIntE(v)
		if err != nil {
			row.Err = eris.Errorf("report: line %d: %s: option %q is not a number", line, col, v)
			return row
		}
		answers[col] = idx
	}
	responses, err := qs.AnswerAll(answers)
	if err != nil {
		row.Err = eris.Wrapf(err, "report: line %d", line)
		return row
	}
	row.Input.Responses = responses
	return row
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/config"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/report"
)

var valueFlags struct {
	input            string
	company          string
	naics            string
	revenue          string
	cogs             string
	opex             string
	ownerSalary      string
	personalExpenses string
	oneTimeExpenses  string
	otherAdjustments string
	answers          map[string]int
	save             bool
	json             bool
}

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Value a single business",
	Long: "Computes a valuation from flags or an --input YAML/JSON file. Amount flags accept " +
		"formatted values such as \"$1,200,000\"; anything unparsable counts as zero.\n\n" +
		"The multiplier adjustment is (total weight / valuation.max_score - 0.5) x 2. With the default " +
		"max_score of 20 and no valuation.adjustment_questions, answering all 20 questions can move the " +
		"multiplier by up to +9.0; set adjustment_questions to four IDs or max_score to 100 to bound it to +/-1.",
	Example: `  valuation-cli value --company "Acme" --naics 541512 --revenue 1000000 --cogs 400000 --opex 350000 \
    --owner-salary 100000 --answer financial_performance_1=4 --answer owner_dependency_1=2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := valueRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, config.ModeLocal, valueFlags.save)
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := req.toInput(env.Questions)
		if err != nil {
			return eris.Wrap(err, "value")
		}

		res, err := env.Service.Value(ctx, string(model.SourceCLI), in)
		if err != nil {
			return eris.Wrap(err, "value")
		}

		a := model.NewAssessment(req.Company, model.SourceCLI, in, *res)
		if valueFlags.save {
			if err := env.Store.CreateAssessment(ctx, &a); err != nil {
				return eris.Wrap(err, "value: save")
			}
			zap.L().Info("assessment saved", zap.String("id", a.ID))
		} else {
			a.ID = ""
		}

		return writeAssessment(cmd.OutOrStdout(), &a, valueFlags.json)
	},
}

// valueRequestFromFlags starts from --input when given and lets explicit
// flags override it.
func valueRequestFromFlags(cmd *cobra.Command) (valuationRequest, error) {
	var req valuationRequest
	if valueFlags.input != "" {
		r, err := readRequestFile(valueFlags.input)
		if err != nil {
			return req, err
		}
		req = r
	}

	flags := cmd.Flags()
	set := func(name string, dst *any, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	if flags.Changed("company") {
		req.Company = valueFlags.company
	}
	set("naics", &req.IndustryCode, valueFlags.naics)
	set("revenue", &req.Financials.Revenue, valueFlags.revenue)
	set("cogs", &req.Financials.COGS, valueFlags.cogs)
	set("opex", &req.Financials.OperatingExpenses, valueFlags.opex)
	set("owner-salary", &req.Adjustments.OwnerSalary, valueFlags.ownerSalary)
	set("personal-expenses", &req.Adjustments.PersonalExpenses, valueFlags.personalExpenses)
	set("one-time-expenses", &req.Adjustments.OneTimeExpenses, valueFlags.oneTimeExpenses)
	set("other-adjustments", &req.Adjustments.OtherAdjustments, valueFlags.otherAdjustments)

	if len(valueFlags.answers) > 0 {
		if req.Answers == nil {
			req.Answers = make(map[string]int, len(valueFlags.answers))
		}
		for id, idx := range valueFlags.answers {
			req.Answers[id] = idx
		}
	}
	return req, nil
}

func writeAssessment(w io.Writer, a *model.Assessment, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if a.ID == "" {
			return enc.Encode(a.Result)
		}
		return enc.Encode(a)
	}
	return report.Summary(w, a)
}

func init() {
	f := valueCmd.Flags()
	f.StringVar(&valueFlags.input, "input", "", "YAML or JSON file with the valuation inputs")
	f.StringVar(&valueFlags.company, "company", "", "company name")
	f.StringVar(&valueFlags.naics, "naics", "", "NAICS industry code")
	f.StringVar(&valueFlags.revenue, "revenue", "", "annual revenue")
	f.StringVar(&valueFlags.cogs, "cogs", "", "cost of goods sold")
	f.StringVar(&valueFlags.opex, "opex", "", "operating expenses")
	f.StringVar(&valueFlags.ownerSalary, "owner-salary", "", "owner salary above market rate")
	f.StringVar(&valueFlags.personalExpenses, "personal-expenses", "", "personal expenses run through the business")
	f.StringVar(&valueFlags.oneTimeExpenses, "one-time-expenses", "", "non-recurring expenses")
	f.StringVar(&valueFlags.otherAdjustments, "other-adjustments", "", "other add-backs (negative to deduct)")
	f.StringToIntVar(&valueFlags.answers, "answer", nil, "question answer as id=option-index (0-4), repeatable")
	f.BoolVar(&valueFlags.save, "save", false, "save the assessment to the store")
	f.BoolVar(&valueFlags.json, "json", false, "print JSON instead of a text summary")
	rootCmd.AddCommand(valueCmd)
}

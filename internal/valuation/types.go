// Package valuation computes EBITDA-multiple business valuations from
// financial inputs and weighted value-driver answers.
//
// Everything in this package is pure: no I/O, no shared state. Industry
// multiplier ranges are resolved by an industry.Provider before Compute is
// called.
package valuation

import "github.com/sells-group/valuation-cli/internal/industry"

// Category is one of the ten value-driver categories.
type Category string

const (
	CategoryFinancialPerformance    Category = "Financial Performance"
	CategoryRecurringRevenue        Category = "Recurring Revenue"
	CategoryGrowthPotential         Category = "Growth Potential"
	CategoryOwnerDependency         Category = "Owner Dependency"
	CategoryRevenueDiversity        Category = "Revenue Diversity"
	CategoryCustomerSatisfaction    Category = "Customer Satisfaction"
	CategoryOperationalIndependence Category = "Operational Independence"
	CategoryScalability             Category = "Scalability"
	CategoryTeamTalent              Category = "Team & Talent"
	CategoryDifferentiation         Category = "Differentiation & Brand Strength"
)

// Categories lists the value-driver categories in canonical order.
var Categories = []Category{
	CategoryFinancialPerformance,
	CategoryRecurringRevenue,
	CategoryGrowthPotential,
	CategoryOwnerDependency,
	CategoryRevenueDiversity,
	CategoryCustomerSatisfaction,
	CategoryOperationalIndependence,
	CategoryScalability,
	CategoryTeamTalent,
	CategoryDifferentiation,
}

// Valid reports whether c is one of the ten known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FinancialInputs holds the annual income statement figures.
type FinancialInputs struct {
	Revenue           float64 `json:"revenue" yaml:"revenue"`
	COGS              float64 `json:"costOfGoodsSold" yaml:"cost_of_goods_sold"`
	OperatingExpenses float64 `json:"operatingExpenses" yaml:"operating_expenses"`
}

// AdjustmentInputs holds the add-backs used to normalize EBITDA.
type AdjustmentInputs struct {
	OwnerSalary      float64 `json:"ownerSalary" yaml:"owner_salary"`           // above market rate
	PersonalExpenses float64 `json:"personalExpenses" yaml:"personal_expenses"` // run through the business
	OneTimeExpenses  float64 `json:"oneTimeExpenses" yaml:"one_time_expenses"`
	OtherAdjustments float64 `json:"otherAdjustments" yaml:"other_adjustments"`
}

// DriverResponse is one answered value-driver question. Weight is expected
// to be one of 0, 1, 2, 3 or 5 but is not validated here.
type DriverResponse struct {
	QuestionID string   `json:"questionId" yaml:"question_id"`
	Category   Category `json:"valueDriverCategory" yaml:"category"`
	Weight     float64  `json:"weight" yaml:"weight"`
}

// Input is everything needed for one valuation.
type Input struct {
	IndustryCode string           `json:"industryCode" yaml:"industry_code"`
	Financials   FinancialInputs  `json:"financials" yaml:"financials"`
	Adjustments  AdjustmentInputs `json:"adjustments" yaml:"adjustments"`
	Responses    []DriverResponse `json:"responses" yaml:"responses"`
}

// Range is the three-point valuation estimate.
type Range struct {
	Low  float64 `json:"low"`
	Mean float64 `json:"mean"`
	High float64 `json:"high"`
}

// Grade summarizes the overall driver score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Result is the engine output consumed by the preview panel, the results
// screens and report export. The first five fields are a stable contract.
type Result struct {
	EBITDA          float64  `json:"ebitda"`
	AdjustedEBITDA  float64  `json:"adjustedEbitda"`
	OverallScore    float64  `json:"overallScore"`
	Valuation       Range    `json:"valuation"`
	Recommendations []string `json:"recommendations"`

	Grade                Grade                `json:"grade"`
	Multiplier           float64              `json:"multiplier"`
	MultiplierAdjustment float64              `json:"multiplierAdjustment"`
	ScorePercentage      float64              `json:"scorePercentage"`
	Industry             industry.Multiplier  `json:"industry"`
	CategoryScores       map[Category]float64 `json:"categoryScores"`
}

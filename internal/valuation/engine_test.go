package valuation

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/industry"
)

func responses(weights ...float64) []DriverResponse {
	out := make([]DriverResponse, len(weights))
	for i, w := range weights {
		out[i] = DriverResponse{
			QuestionID: fmt.Sprintf("q%d", i+1),
			Category:   Categories[i%len(Categories)],
			Weight:     w,
		}
	}
	return out
}

func TestComputeEBITDA(t *testing.T) {
	got := ComputeEBITDA(FinancialInputs{Revenue: 1_000_000, COGS: 400_000, OperatingExpenses: 350_000})
	assert.Equal(t, 250_000.0, got)
}

func TestComputeEBITDA_Loss(t *testing.T) {
	got := ComputeEBITDA(FinancialInputs{Revenue: 100_000, COGS: 80_000, OperatingExpenses: 50_000})
	assert.Equal(t, -30_000.0, got)
}

func TestComputeAdjustedEBITDA(t *testing.T) {
	got := ComputeAdjustedEBITDA(250_000, AdjustmentInputs{
		OwnerSalary:      50_000,
		PersonalExpenses: 25_000,
		OneTimeExpenses:  15_000,
		OtherAdjustments: 10_000,
	})
	assert.Equal(t, 350_000.0, got)
}

func TestScoreDrivers_Averages(t *testing.T) {
	scores := ScoreDrivers([]DriverResponse{
		{QuestionID: "fp1", Category: CategoryFinancialPerformance, Weight: 3},
		{QuestionID: "fp2", Category: CategoryFinancialPerformance, Weight: 5},
		{QuestionID: "rr1", Category: CategoryRecurringRevenue, Weight: 2},
	})

	assert.Len(t, scores, len(Categories))
	assert.Equal(t, 4.0, scores[CategoryFinancialPerformance])
	assert.Equal(t, 2.0, scores[CategoryRecurringRevenue], "average over answered questions only")
	assert.Equal(t, 0.0, scores[CategoryScalability])
}

func TestScoreDrivers_Empty(t *testing.T) {
	scores := ScoreDrivers(nil)
	assert.Len(t, scores, len(Categories))
	for _, c := range Categories {
		assert.Equal(t, 0.0, scores[c], string(c))
	}
}

func TestComputeMultiplierAdjustment(t *testing.T) {
	tests := []struct {
		name      string
		responses []DriverResponse
		want      float64
	}{
		{"no responses", nil, -1.0},
		{"all zero", responses(0, 0, 0, 0), -1.0},
		{"midpoint", responses(5, 5), 0.0},
		{"midpoint uneven", responses(3, 2, 5, 0), 0.0},
		{"max", responses(5, 5, 5, 5), 1.0},
		{"quarter", responses(5), -0.5},
		{"over max is not clamped", responses(5, 5, 5, 5, 5, 5, 5, 5), 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeMultiplierAdjustment(tt.responses), 1e-9)
		})
	}
}

func TestComputeFinalMultiplier_Floor(t *testing.T) {
	assert.Equal(t, 1.0, ComputeFinalMultiplier(1.5, -1.0))
	assert.Equal(t, 1.0, ComputeFinalMultiplier(0.2, 0.3))
	assert.Equal(t, 1.0, ComputeFinalMultiplier(-4, 0))
	assert.Equal(t, 4.5, ComputeFinalMultiplier(3.5, 1.0))
	assert.Equal(t, 1.0, ComputeFinalMultiplier(2.0, -1.0))
}

func TestComputeValuationRange(t *testing.T) {
	ind := industry.Multiplier{Low: 3.0, Avg: 4.5, High: 6.5}

	r := ComputeValuationRange(350_000, ind, 0.5)
	assert.InDelta(t, 1_050_000, r.Low, 1e-6)
	assert.InDelta(t, 1_575_000, r.Mean, 1e-6)
	assert.InDelta(t, 2_275_000, r.High, 1e-6)
}

func TestComputeValuationRange_OrderingWhenNotFloored(t *testing.T) {
	ind := industry.Multiplier{Low: 3.0, Avg: 4.5, High: 6.5}
	for _, pct := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0} {
		r := ComputeValuationRange(200_000, ind, pct)
		assert.LessOrEqual(t, r.Low, r.Mean, "pct=%v", pct)
		assert.LessOrEqual(t, r.Mean, r.High, "pct=%v", pct)
	}
}

func TestComputeValuationRange_FlooredMeanBelowLow(t *testing.T) {
	ind := industry.Multiplier{Low: 1.8, Avg: 1.9, High: 3.8}
	r := ComputeValuationRange(100_000, ind, 0)

	// 1.9 - 1.0 floors at 1.0, under the 1.8 industry low; mean is left unclamped.
	assert.InDelta(t, 100_000, r.Mean, 1e-6)
	assert.InDelta(t, 180_000, r.Low, 1e-6)
	assert.Less(t, r.Mean, r.Low)
}

func TestAssignGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{100, GradeA},
		{80, GradeA},
		{79.9, GradeB},
		{60, GradeB},
		{59.99, GradeC},
		{40, GradeC},
		{39, GradeD},
		{20, GradeD},
		{19.9, GradeF},
		{0, GradeF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AssignGrade(tt.score), "score %v", tt.score)
	}
}

func TestOverallScore(t *testing.T) {
	all := make(map[Category]float64)
	for _, c := range Categories {
		all[c] = 5
	}
	assert.InDelta(t, 100, OverallScore(all), 1e-9)

	all[CategoryScalability] = 0
	assert.InDelta(t, 90, OverallScore(all), 1e-9)

	assert.Equal(t, 0.0, OverallScore(ScoreDrivers(nil)))
}

func TestCompute_EmptyInput(t *testing.T) {
	res := Compute(Input{}, industry.DefaultMultiplier)

	assert.Equal(t, 0.0, res.EBITDA)
	assert.Equal(t, 0.0, res.AdjustedEBITDA)
	assert.Equal(t, 0.0, res.Valuation.Low)
	assert.Equal(t, 0.0, res.Valuation.Mean)
	assert.Equal(t, 0.0, res.Valuation.High)
	assert.Equal(t, -1.0, res.MultiplierAdjustment)
	assert.Equal(t, 2.5, res.Multiplier)
	assert.Equal(t, GradeF, res.Grade)
	assert.Equal(t, 0.0, res.OverallScore)
}

func TestCompute_FullScenario(t *testing.T) {
	in := Input{
		IndustryCode: "541512",
		Financials:   FinancialInputs{Revenue: 1_000_000, COGS: 400_000, OperatingExpenses: 350_000},
		Adjustments: AdjustmentInputs{
			OwnerSalary:      50_000,
			PersonalExpenses: 25_000,
			OneTimeExpenses:  15_000,
			OtherAdjustments: 10_000,
		},
		Responses: []DriverResponse{
			{QuestionID: "financial_performance_1", Category: CategoryFinancialPerformance, Weight: 3},
			{QuestionID: "financial_performance_2", Category: CategoryFinancialPerformance, Weight: 5},
			{QuestionID: "recurring_revenue_1", Category: CategoryRecurringRevenue, Weight: 1},
			{QuestionID: "recurring_revenue_2", Category: CategoryRecurringRevenue, Weight: 3},
		},
	}
	ind := industry.Multiplier{Low: 4.0, Avg: 5.8, High: 8.0}

	res := Compute(in, ind)

	assert.Equal(t, 250_000.0, res.EBITDA)
	assert.Equal(t, 350_000.0, res.AdjustedEBITDA)
	// total 12 / 20 = 0.6 -> adjustment +0.2 -> 6.0x
	assert.InDelta(t, 0.6, res.ScorePercentage, 1e-9)
	assert.InDelta(t, 0.2, res.MultiplierAdjustment, 1e-9)
	assert.InDelta(t, 6.0, res.Multiplier, 1e-9)
	assert.InDelta(t, 1_400_000, res.Valuation.Low, 1e-6)
	assert.InDelta(t, 2_100_000, res.Valuation.Mean, 1e-6)
	assert.InDelta(t, 2_800_000, res.Valuation.High, 1e-6)
	assert.Equal(t, 4.0, res.CategoryScores[CategoryFinancialPerformance])
	assert.Equal(t, 2.0, res.CategoryScores[CategoryRecurringRevenue])
	// (4 + 2) / 10 / 5 * 100
	assert.InDelta(t, 12.0, res.OverallScore, 1e-9)
	assert.Equal(t, GradeF, res.Grade)
	assert.Equal(t, ind, res.Industry)
	require.NotEmpty(t, res.Recommendations)
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Financials: FinancialInputs{Revenue: 2_400_000, COGS: 1_100_000, OperatingExpenses: 700_000},
		Responses:  responses(5, 3, 2, 0, 1, 5, 3, 3, 2, 1, 0, 5),
	}
	ind := industry.Multiplier{Low: 2.5, Avg: 3.8, High: 5.0}

	first, err := json.Marshal(Compute(in, ind))
	require.NoError(t, err)
	second, err := json.Marshal(Compute(in, ind))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_AdjustmentQuestions(t *testing.T) {
	e := NewEngine(Options{AdjustmentQuestions: []string{"a", "b", "c", "d"}})
	in := Input{Responses: []DriverResponse{
		{QuestionID: "a", Category: CategoryFinancialPerformance, Weight: 5},
		{QuestionID: "b", Category: CategoryFinancialPerformance, Weight: 5},
		{QuestionID: "c", Category: CategoryRecurringRevenue, Weight: 5},
		{QuestionID: "d", Category: CategoryRecurringRevenue, Weight: 5},
		{QuestionID: "e", Category: CategoryScalability, Weight: 5},
		{QuestionID: "f", Category: CategoryScalability, Weight: 5},
	}}

	res := e.Compute(in, industry.DefaultMultiplier)
	assert.InDelta(t, 1.0, res.MultiplierAdjustment, 1e-9, "only the four listed questions count")
	assert.InDelta(t, 4.5, res.Multiplier, 1e-9)
	assert.Equal(t, 5.0, res.CategoryScores[CategoryScalability], "category scores still use every response")
}

func TestEngine_MaxScoreOverride(t *testing.T) {
	e := NewEngine(Options{MaxScore: 100})
	res := e.Compute(Input{Responses: responses(5, 5, 5, 5, 5, 5, 5, 5, 5, 5)}, industry.DefaultMultiplier)
	assert.InDelta(t, 0.0, res.MultiplierAdjustment, 1e-9)

	zero := NewEngine(Options{})
	res = zero.Compute(Input{Responses: responses(5, 5)}, industry.DefaultMultiplier)
	assert.InDelta(t, 0.0, res.MultiplierAdjustment, 1e-9, "zero MaxScore falls back to 20")
}

func TestCompute_PermissiveWeights(t *testing.T) {
	res := Compute(Input{Responses: []DriverResponse{
		{QuestionID: "x", Category: CategoryScalability, Weight: 4},
		{QuestionID: "y", Category: CategoryScalability, Weight: -2},
	}}, industry.DefaultMultiplier)
	assert.Equal(t, 1.0, res.CategoryScores[CategoryScalability])
}

func TestCompute_OverflowIsZero(t *testing.T) {
	in := Input{
		Financials:  FinancialInputs{Revenue: 1e308},
		Adjustments: AdjustmentInputs{OwnerSalary: 1e308},
		Responses: []DriverResponse{
			{QuestionID: "x", Category: CategoryScalability, Weight: 1e308},
			{QuestionID: "y", Category: CategoryScalability, Weight: 1e308},
		},
	}
	ind := industry.Multiplier{Low: 5.0, Avg: 7.5, High: 11.0}

	res := Compute(in, ind)

	assert.Equal(t, 1e308, res.EBITDA)
	assert.Equal(t, 0.0, res.AdjustedEBITDA, "sum overflows")
	assert.Equal(t, Range{}, res.Valuation)
	assert.Equal(t, 0.0, res.CategoryScores[CategoryScalability])
	assert.Equal(t, 0.0, res.ScorePercentage)

	_, err := json.Marshal(res)
	require.NoError(t, err, "every figure must be JSON encodable")
}

func TestCompute_HugeRevenueRangeIsZero(t *testing.T) {
	res := Compute(Input{Financials: FinancialInputs{Revenue: 1e308}}, industry.Multiplier{Low: 5.0, Avg: 7.5, High: 11.0})

	assert.Equal(t, 1e308, res.AdjustedEBITDA)
	assert.Equal(t, 0.0, res.Valuation.Low)
	assert.Equal(t, 0.0, res.Valuation.Mean)
	assert.Equal(t, 0.0, res.Valuation.High)
}

func TestCompute_FullFormWithDefaultMaxScore(t *testing.T) {
	// Twenty answers at the top weight total 100 against a MaxScore of 20.
	w := make([]float64, 2*len(Categories))
	for i := range w {
		w[i] = 5
	}
	res := Compute(Input{Responses: responses(w...)}, industry.DefaultMultiplier)

	assert.InDelta(t, 5.0, res.ScorePercentage, 1e-9)
	assert.InDelta(t, 9.0, res.MultiplierAdjustment, 1e-9)
	assert.InDelta(t, 12.5, res.Multiplier, 1e-9)
}

package valuation

import (
	"math"

	"github.com/sells-group/valuation-cli/internal/industry"
)

const (
	// MaxScore is the raw driver total that maps to a +1.0 multiplier
	// adjustment (four questions at the top weight of 5).
	MaxScore = 20.0

	// MultiplierFloor is the lowest EBITDA multiple ever reported.
	MultiplierFloor = 1.0

	// MaxWeight is the top of the ordinal answer scale.
	MaxWeight = 5.0
)

// Options tunes the engine. The zero value behaves like DefaultOptions.
type Options struct {
	// MaxScore overrides the adjustment denominator. Zero means MaxScore.
	MaxScore float64 `yaml:"max_score" mapstructure:"max_score"`

	// AdjustmentQuestions restricts which responses feed the multiplier
	// adjustment. Empty means every response: with the default MaxScore a
	// fully answered 20-question form totals up to 100 and moves the
	// multiplier by up to +9.0. List four question IDs, or set MaxScore to
	// 100, to keep the adjustment within [-1, +1].
	AdjustmentQuestions []string `yaml:"adjustment_questions" mapstructure:"adjustment_questions"`
}

// DefaultOptions returns the reference engine settings.
func DefaultOptions() Options {
	return Options{MaxScore: MaxScore}
}

// Engine computes valuations. It holds only immutable options and is safe
// for concurrent use.
type Engine struct {
	maxScore  float64
	adjustIDs map[string]bool
}

// NewEngine creates an Engine from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{maxScore: opts.MaxScore}
	if e.maxScore <= 0 {
		e.maxScore = MaxScore
	}
	if len(opts.AdjustmentQuestions) > 0 {
		e.adjustIDs = make(map[string]bool, len(opts.AdjustmentQuestions))
		for _, id := range opts.AdjustmentQuestions {
			e.adjustIDs[id] = true
		}
	}
	return e
}

// Compute runs the full valuation pipeline for in against the resolved
// industry range. It never fails; missing input is treated as zero and any
// figure that overflows float64 is reported as zero.
func (e *Engine) Compute(in Input, ind industry.Multiplier) Result {
	ebitda := finite(ComputeEBITDA(in.Financials))
	adjusted := finite(ComputeAdjustedEBITDA(ebitda, in.Adjustments))

	scores := ScoreDrivers(in.Responses)
	for c, v := range scores {
		scores[c] = finite(v)
	}
	overall := finite(OverallScore(scores))

	pct := finite(scorePercentage(e.adjustmentResponses(in.Responses), e.maxScore))
	adjustment := adjustmentFromPercentage(pct)
	multiplier := ComputeFinalMultiplier(ind.Avg, adjustment)

	rng := ComputeValuationRange(adjusted, ind, pct)
	rng = Range{Low: finite(rng.Low), Mean: finite(rng.Mean), High: finite(rng.High)}

	return Result{
		EBITDA:          ebitda,
		AdjustedEBITDA:  adjusted,
		OverallScore:    overall,
		Valuation:       rng,
		Recommendations: GenerateRecommendations(scores, IndustryComparison{Multiplier: multiplier, Industry: ind}),

		Grade:                AssignGrade(overall),
		Multiplier:           multiplier,
		MultiplierAdjustment: adjustment,
		ScorePercentage:      pct,
		Industry:             ind,
		CategoryScores:       scores,
	}
}

func (e *Engine) adjustmentResponses(responses []DriverResponse) []DriverResponse {
	if e.adjustIDs == nil {
		return responses
	}
	subset := make([]DriverResponse, 0, len(e.adjustIDs))
	for _, r := range responses {
		if e.adjustIDs[r.QuestionID] {
			subset = append(subset, r)
		}
	}
	return subset
}

// Compute values in with the default engine.
func Compute(in Input, ind industry.Multiplier) Result {
	return NewEngine(DefaultOptions()).Compute(in, ind)
}

// ComputeEBITDA returns revenue less cost of goods sold and operating expenses.
func ComputeEBITDA(f FinancialInputs) float64 {
	return f.Revenue - f.COGS - f.OperatingExpenses
}

// ComputeAdjustedEBITDA adds every adjustment back onto ebitda.
func ComputeAdjustedEBITDA(ebitda float64, a AdjustmentInputs) float64 {
	return ebitda + a.OwnerSalary + a.PersonalExpenses + a.OneTimeExpenses + a.OtherAdjustments
}

// ScoreDrivers averages response weights per category over the questions
// actually answered. All ten categories are present in the result; a
// category with no answers scores 0.
func ScoreDrivers(responses []DriverResponse) map[Category]float64 {
	sums := make(map[Category]float64, len(Categories))
	counts := make(map[Category]int, len(Categories))
	for _, r := range responses {
		sums[r.Category] += r.Weight
		counts[r.Category]++
	}

	scores := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		scores[c] = 0
	}
	for c, n := range counts {
		scores[c] = sums[c] / float64(n)
	}
	return scores
}

// OverallScore maps the ten category averages onto 0-100. Categories
// outside the known set are ignored.
func OverallScore(scores map[Category]float64) float64 {
	var total float64
	for _, c := range Categories {
		total += scores[c]
	}
	return total / float64(len(Categories)) / MaxWeight * 100
}

// ComputeMultiplierAdjustment maps the summed response weights linearly
// onto [-1, +1] around the midpoint of MaxScore. Totals above MaxScore are
// not clamped.
func ComputeMultiplierAdjustment(responses []DriverResponse) float64 {
	return adjustmentFromPercentage(scorePercentage(responses, MaxScore))
}

func scorePercentage(responses []DriverResponse, maxScore float64) float64 {
	var total float64
	for _, r := range responses {
		total += r.Weight
	}
	return total / maxScore
}

func adjustmentFromPercentage(pct float64) float64 {
	return (pct - 0.5) * 2
}

// ComputeFinalMultiplier applies adjustment to base, never going below
// MultiplierFloor.
func ComputeFinalMultiplier(base, adjustment float64) float64 {
	return math.Max(base+adjustment, MultiplierFloor)
}

// ComputeValuationRange prices adjustedEBITDA. Low and high use the
// industry bounds directly; mean uses the driver-adjusted multiplier and
// may fall outside [low, high] when the floor applies.
func ComputeValuationRange(adjustedEBITDA float64, ind industry.Multiplier, scorePercentage float64) Range {
	multiplier := ComputeFinalMultiplier(ind.Avg, adjustmentFromPercentage(scorePercentage))
	return Range{
		Low:  adjustedEBITDA * ind.Low,
		Mean: adjustedEBITDA * multiplier,
		High: adjustedEBITDA * ind.High,
	}
}

// AssignGrade buckets an overall score of 0-100 into a letter grade.
func AssignGrade(overallScore float64) Grade {
	switch {
	case overallScore >= 80:
		return GradeA
	case overallScore >= 60:
		return GradeB
	case overallScore >= 40:
		return GradeC
	case overallScore >= 20:
		return GradeD
	default:
		return GradeF
	}
}

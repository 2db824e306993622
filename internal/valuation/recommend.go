package valuation

import (
	"fmt"
	"sort"

	"github.com/sells-group/valuation-cli/internal/industry"
)

// DisplayedRecommendations is how many recommendations the result screens
// and reports show.
const DisplayedRecommendations = 2

// strongScore is the category average at or above which no recommendation
// is made.
const strongScore = 3.0

// IndustryComparison places the computed multiplier against its industry.
type IndustryComparison struct {
	Multiplier float64
	Industry   industry.Multiplier
}

// BelowAverage reports whether the business prices under the industry average.
func (c IndustryComparison) BelowAverage() bool {
	return c.Multiplier < c.Industry.Avg
}

var categoryAdvice = map[Category]string{
	CategoryFinancialPerformance:    "Strengthen financial performance: tighten margins and produce clean, reviewed financial statements.",
	CategoryRecurringRevenue:        "Increase recurring revenue through contracts, subscriptions or retainers.",
	CategoryGrowthPotential:         "Document a credible growth plan with identified markets and pipeline.",
	CategoryOwnerDependency:         "Reduce owner dependency by delegating key relationships and decisions.",
	CategoryRevenueDiversity:        "Diversify revenue across customers, geographies and segments to reduce concentration.",
	CategoryCustomerSatisfaction:    "Measure and improve customer satisfaction and retention.",
	CategoryOperationalIndependence: "Systematize operations with written processes that run without the owner.",
	CategoryScalability:             "Improve scalability so revenue can grow faster than headcount and overhead.",
	CategoryTeamTalent:              "Build a second layer of management and retain key employees.",
	CategoryDifferentiation:         "Sharpen differentiation and brand strength against competitors.",
}

// GenerateRecommendations lists advice for the weakest categories first.
// Categories scoring at or above the strong threshold are skipped. When the
// multiplier lands below the industry average a positioning note is appended.
func GenerateRecommendations(scores map[Category]float64, cmp IndustryComparison) []string {
	ranked := make([]Category, 0, len(scores))
	for c := range scores {
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si < sj
		}
		return categoryOrder(ranked[i]) < categoryOrder(ranked[j])
	})

	recs := make([]string, 0, len(ranked)+1)
	for _, c := range ranked {
		if scores[c] >= strongScore {
			continue
		}
		advice, ok := categoryAdvice[c]
		if !ok {
			advice = fmt.Sprintf("Improve %s.", c)
		}
		recs = append(recs, advice)
	}

	if cmp.BelowAverage() {
		recs = append(recs, fmt.Sprintf(
			"Your multiple of %.1fx is below the industry average of %.1fx; addressing the items above moves it toward %.1fx.",
			cmp.Multiplier, cmp.Industry.Avg, cmp.Industry.High,
		))
	}
	return recs
}

// categoryOrder ranks known categories by canonical position and unknown
// ones after them, alphabetically.
func categoryOrder(c Category) string {
	for i, known := range Categories {
		if c == known {
			return fmt.Sprintf("%02d", i)
		}
	}
	return "99" + string(c)
}

// TopRecommendations returns at most DisplayedRecommendations entries.
func TopRecommendations(r Result) []string {
	if len(r.Recommendations) <= DisplayedRecommendations {
		return r.Recommendations
	}
	return r.Recommendations[:DisplayedRecommendations]
}

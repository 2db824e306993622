package valuation

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ParseAmount coerces form input into a float. Numbers pass through;
// strings may carry a leading "$", thousands separators, surrounding
// whitespace or accounting parentheses for negatives. Anything else,
// including booleans, NaN and infinities, yields 0.
func ParseAmount(v any) float64 {
	switch v := v.(type) {
	case string:
		return parseAmountString(v)
	case bool:
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return finite(f)
}

func parseAmountString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	if negative {
		f = -f
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RawFinancials is loosely typed financial input as it arrives from a form.
type RawFinancials struct {
	Revenue           any `json:"revenue" yaml:"revenue"`
	COGS              any `json:"costOfGoodsSold" yaml:"cost_of_goods_sold"`
	OperatingExpenses any `json:"operatingExpenses" yaml:"operating_expenses"`
}

// Normalize converts raw form values into FinancialInputs.
func (r RawFinancials) Normalize() FinancialInputs {
	return FinancialInputs{
		Revenue:           ParseAmount(r.Revenue),
		COGS:              ParseAmount(r.COGS),
		OperatingExpenses: ParseAmount(r.OperatingExpenses),
	}
}

// RawAdjustments is loosely typed adjustment input as it arrives from a form.
type RawAdjustments struct {
	OwnerSalary      any `json:"ownerSalary" yaml:"owner_salary"`
	PersonalExpenses any `json:"personalExpenses" yaml:"personal_expenses"`
	OneTimeExpenses  any `json:"oneTimeExpenses" yaml:"one_time_expenses"`
	OtherAdjustments any `json:"otherAdjustments" yaml:"other_adjustments"`
}

// Normalize converts raw form values into AdjustmentInputs.
func (r RawAdjustments) Normalize() AdjustmentInputs {
	return AdjustmentInputs{
		OwnerSalary:      ParseAmount(r.OwnerSalary),
		PersonalExpenses: ParseAmount(r.PersonalExpenses),
		OneTimeExpenses:  ParseAmount(r.OneTimeExpenses),
		OtherAdjustments: ParseAmount(r.OtherAdjustments),
	}
}

// RawResponse is a loosely typed driver answer.
type RawResponse struct {
	QuestionID string `json:"questionId" yaml:"question_id"`
	Category   string `json:"valueDriverCategory" yaml:"category"`
	Weight     any    `json:"weight" yaml:"weight"`
}

// RawInput is the loosely typed request body of a valuation preview.
type RawInput struct {
	IndustryCode any            `json:"industryCode" yaml:"industry_code"`
	Financials   RawFinancials  `json:"financials" yaml:"financials"`
	Adjustments  RawAdjustments `json:"adjustments" yaml:"adjustments"`
	Responses    []RawResponse  `json:"responses" yaml:"responses"`
}

// Normalize converts a RawInput into an Input, defaulting anything
// unparsable to zero.
func (r RawInput) Normalize() Input {
	in := Input{
		IndustryCode: strings.TrimSpace(cast.ToString(r.IndustryCode)),
		Financials:   r.Financials.Normalize(),
		Adjustments:  r.Adjustments.Normalize(),
	}
	if len(r.Responses) > 0 {
		in.Responses = make([]DriverResponse, 0, len(r.Responses))
	}
	for _, resp := range r.Responses {
		in.Responses = append(in.Responses, DriverResponse{
			QuestionID: resp.QuestionID,
			Category:   Category(resp.Category),
			Weight:     ParseAmount(resp.Weight),
		})
	}
	return in
}

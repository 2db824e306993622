package valuation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 1250.5, 1250.5},
		{"int", 42, 42},
		{"int64", int64(1_000_000), 1_000_000},
		{"json number", json.Number("350000"), 350_000},
		{"plain string", "400000", 400_000},
		{"padded", "  12.5 ", 12.5},
		{"thousands", "1,250,000", 1_250_000},
		{"dollar", "$1,250,000.75", 1_250_000.75},
		{"negative", "-5000", -5000},
		{"accounting negative", "(500)", -500},
		{"accounting dollar", "($1,500)", -1500},
		{"empty", "", 0},
		{"garbage", "abc", 0},
		{"suffix unsupported", "400k", 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"nan string", "NaN", 0},
		{"slice", []int{1}, 0},
		{"bool true", true, 0},
		{"bool false", false, 0},
		{"huge", "1e308", 1e308},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestRawInput_Normalize(t *testing.T) {
	body := []byte(`{
		"industryCode": 541512,
		"financials": {"revenue": "1,000,000", "costOfGoodsSold": 400000, "operatingExpenses": ""},
		"adjustments": {"ownerSalary": "$50,000", "otherAdjustments": null},
		"responses": [
			{"questionId": "financial_performance_1", "valueDriverCategory": "Financial Performance", "weight": "5"},
			{"questionId": "financial_performance_2", "valueDriverCategory": "Financial Performance", "weight": 3}
		]
	}`)

	var raw RawInput
	require.NoError(t, json.Unmarshal(body, &raw))
	in := raw.Normalize()

	assert.Equal(t, "541512", in.IndustryCode)
	assert.Equal(t, FinancialInputs{Revenue: 1_000_000, COGS: 400_000}, in.Financials)
	assert.Equal(t, AdjustmentInputs{OwnerSalary: 50_000}, in.Adjustments)
	require.Len(t, in.Responses, 2)
	assert.Equal(t, CategoryFinancialPerformance, in.Responses[0].Category)
	assert.Equal(t, 5.0, in.Responses[0].Weight)
	assert.Equal(t, 3.0, in.Responses[1].Weight)
}

func TestRawInput_NormalizeEmpty(t *testing.T) {
	in := RawInput{}.Normalize()
	assert.Equal(t, Input{}, in)
}

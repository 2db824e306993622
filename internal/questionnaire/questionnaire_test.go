package questionnaire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/valuation"
)

func TestLoad_ReferenceSet(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	qs := s.Questions()
	assert.Len(t, qs, 20)

	perCategory := make(map[valuation.Category]int)
	for _, q := range qs {
		perCategory[q.Category]++
		assert.Len(t, q.Options, 5, q.ID)
		assert.NotEmpty(t, q.Text, q.ID)
	}
	for _, c := range valuation.Categories {
		assert.Equal(t, 2, perCategory[c], string(c))
	}
}

func TestWeightForOption(t *testing.T) {
	want := []int{0, 1, 2, 3, 5}
	for i, w := range want {
		got, ok := WeightForOption(i)
		require.True(t, ok)
		assert.Equal(t, w, got, "option %d", i)
	}

	_, ok := WeightForOption(5)
	assert.False(t, ok)
	_, ok = WeightForOption(-1)
	assert.False(t, ok)
}

func TestQuestion_WeightedOptions(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	q, ok := s.Get("recurring_revenue_1")
	require.True(t, ok)
	opts := q.WeightedOptions()
	require.Len(t, opts, 5)
	assert.Equal(t, "None", opts[0].Label)
	assert.Equal(t, 0, opts[0].Weight)
	assert.Equal(t, "Over 60%", opts[4].Label)
	assert.Equal(t, 5, opts[4].Weight)
	assert.Equal(t, 3, opts[3].Weight)
}

func TestSet_Answer(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	r, err := s.Answer("scalability_2", 4)
	require.NoError(t, err)
	assert.Equal(t, valuation.DriverResponse{
		QuestionID: "scalability_2",
		Category:   valuation.CategoryScalability,
		Weight:     5,
	}, r)

	_, err = s.Answer("scalability_2", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = s.Answer("nope", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question")
}

func TestSet_AnswerAll(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	rs, err := s.AnswerAll(map[string]int{
		"recurring_revenue_2":     3,
		"financial_performance_1": 2,
	})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "financial_performance_1", rs[0].QuestionID, "question order, not map order")
	assert.Equal(t, 2.0, rs[0].Weight)
	assert.Equal(t, 3.0, rs[1].Weight)

	_, err = s.AnswerAll(map[string]int{"missing": 1})
	require.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "questions: [", "questionnaire: parse"},
		{"missing id", `questions: [{category: Scalability, options: [a, b, c, d, e]}]`, "without id"},
		{"unknown category", `questions: [{id: x, category: Luck, options: [a, b, c, d, e]}]`, "unknown category"},
		{"wrong option count", `questions: [{id: x, category: Scalability, options: [a, b, c, d]}]`, "has 4 options"},
		{
			"duplicate",
			`questions: [{id: x, category: Scalability, options: [a, b, c, d, e]}, {id: x, category: Scalability, options: [a, b, c, d, e]}]`,
			"duplicate question id",
		},
		{"incomplete categories", `questions: [{id: x, category: Scalability, options: [a, b, c, d, e]}]`, "has 0 questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// Package questionnaire holds the reference value-driver question set and
// translates selected answer options into weighted driver responses.
package questionnaire

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/valuation-cli/internal/valuation"
)

//go:embed questions.yaml
var embeddedQuestions []byte

// QuestionsPerCategory is the number of questions each category must have.
const QuestionsPerCategory = 2

// OptionWeights maps answer option position to weight. There is no 4.
var OptionWeights = [...]int{0, 1, 2, 3, 5}

// WeightForOption returns the weight of the option at index.
func WeightForOption(index int) (int, bool) {
	if index < 0 || index >= len(OptionWeights) {
		return 0, false
	}
	return OptionWeights[index], true
}

// Question is one value-driver question.
type Question struct {
	ID       string             `json:"id" yaml:"id"`
	Category valuation.Category `json:"category" yaml:"category"`
	Text     string             `json:"text" yaml:"text"`
	Options  []string           `json:"options" yaml:"options"`
}

// Option pairs an answer label with its weight.
type Option struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// WeightedOptions returns the question's options with their weights.
func (q Question) WeightedOptions() []Option {
	out := make([]Option, len(q.Options))
	for i, label := range q.Options {
		w, _ := WeightForOption(i)
		out[i] = Option{Index: i, Label: label, Weight: w}
	}
	return out
}

// Set is a validated, read-only question set.
type Set struct {
	questions []Question
	byID      map[string]Question
}

// Load returns the built-in question set.
func Load() (*Set, error) {
	return Parse(embeddedQuestions)
}

// Parse builds a Set from YAML and validates it: unique IDs, known
// categories, five options per question and exactly two questions in each
// of the ten categories.
func Parse(data []byte) (*Set, error) {
	var f struct {
		Questions []Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "questionnaire: parse")
	}

	s := &Set{questions: f.Questions, byID: make(map[string]Question, len(f.Questions))}
	perCategory := make(map[valuation.Category]int)
	for _, q := range f.Questions {
		if q.ID == "" {
			return nil, eris.New("questionnaire: question without id")
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, eris.Errorf("questionnaire: duplicate question id %q", q.ID)
		}
		if !q.Category.Valid() {
			return nil, eris.Errorf("questionnaire: question %q has unknown category %q", q.ID, q.Category)
		}
		if len(q.Options) != len(OptionWeights) {
			return nil, eris.Errorf("questionnaire: question %q has %d options, want %d", q.ID, len(q.Options), len(OptionWeights))
		}
		s.byID[q.ID] = q
		perCategory[q.Category]++
	}

	for _, c := range valuation.Categories {
		if perCategory[c] != QuestionsPerCategory {
			return nil, eris.Errorf("questionnaire: category %q has %d questions, want %d", c, perCategory[c], QuestionsPerCategory)
		}
	}
	return s, nil
}

// Questions returns the questions in file order.
func (s *Set) Questions() []Question {
	return s.questions
}

// Get returns a question by ID.
func (s *Set) Get(id string) (Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// Answer converts a selected option into a driver response.
func (s *Set) Answer(questionID string, optionIndex int) (valuation.DriverResponse, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return valuation.DriverResponse{}, eris.Errorf("questionnaire: unknown question %q", questionID)
	}
	w, ok := WeightForOption(optionIndex)
	if !ok {
		return valuation.DriverResponse{}, eris.Errorf("questionnaire: option %d out of range for %q", optionIndex, questionID)
	}
	return valuation.DriverResponse{QuestionID: q.ID, Category: q.Category, Weight: float64(w)}, nil
}

// AnswerAll converts a questionID -> option index map into responses in
// question order. Unanswered questions are omitted.
func (s *Set) AnswerAll(answers map[string]int) ([]valuation.DriverResponse, error) {
	for id := range answers {
		if _, ok := s.byID[id]; !ok {
			return nil, eris.Errorf("questionnaire: unknown question %q", id)
		}
	}

	out := make([]valuation.DriverResponse, 0, len(answers))
	for _, q := range s.questions {
		idx, ok := answers[q.ID]
		if !ok {
			continue
		}
		r, err := s.Answer(q.ID, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

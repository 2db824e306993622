package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// valuationRequest is the body of the preview and assessment endpoints and
// the layout of `value --input` files. Answers map question IDs to option
// indexes; an answer replaces any explicit response with the same ID.
type valuationRequest struct {
	Company            string `json:"company" yaml:"company"`
	valuation.RawInput `yaml:",inline"`
	Answers            map[string]int `json:"answers,omitempty" yaml:"answers"`
}

func (r valuationRequest) toInput(qs *questionnaire.Set) (valuation.Input, error) {
	in := r.RawInput.Normalize()
	if len(r.Answers) == 0 {
		return in, nil
	}
	responses, err := qs.AnswerAll(r.Answers)
	if err != nil {
		return valuation.Input{}, err
	}
	kept := in.Responses[:0]
	for _, resp := range in.Responses {
		if _, ok := r.Answers[resp.QuestionID]; !ok {
			kept = append(kept, resp)
		}
	}
	in.Responses = append(kept, responses...)
	return in, nil
}

// readRequestFile decodes a .json file with the API field names, anything
// else as YAML.
func readRequestFile(path string) (valuationRequest, error) {
	var req valuationRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, eris.Wrapf(err, "read %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	return req, eris.Wrapf(err, "decode %s", path)
}

// Package model defines the records persisted by the assessment store.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/valuation-cli/internal/valuation"
)

// Source identifies how an assessment was created.
type Source string

const (
	SourceAPI   Source = "api"
	SourceCLI   Source = "cli"
	SourceBatch Source = "batch"
)

// Assessment is a saved valuation: the inputs it was computed from and the
// result. Results are stored as computed and not recomputed on read.
type Assessment struct {
	ID        string           `json:"id"`
	Company   string           `json:"company"`
	Source    Source           `json:"source"`
	Input     valuation.Input  `json:"input"`
	Result    valuation.Result `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewAssessment builds an Assessment with a fresh ID and timestamps.
func NewAssessment(company string, source Source, in valuation.Input, res valuation.Result) Assessment {
	now := time.Now().UTC()
	return Assessment{
		ID:        uuid.New().String(),
		Company:   company,
		Source:    source,
		Input:     in,
		Result:    res,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IndustryCode returns the NAICS code the assessment was valued under.
func (a Assessment) IndustryCode() string {
	return a.Input.IndustryCode
}

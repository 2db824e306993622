// Package store persists saved valuation assessments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// ErrNotFound is returned when an assessment ID does not exist.
var ErrNotFound = eris.New("store: assessment not found")

// DefaultListLimit caps ListAssessments when the filter sets no limit.
const DefaultListLimit = 100

// AssessmentFilter specifies criteria for listing assessments.
type AssessmentFilter struct {
	Company      string          `json:"company,omitempty"` // case-insensitive substring
	IndustryCode string          `json:"industry_code,omitempty"`
	Grade        valuation.Grade `json:"grade,omitempty"`
	Source       model.Source    `json:"source,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for assessments.
type Store interface {
	CreateAssessment(ctx context.Context, a *model.Assessment) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)
	DeleteAssessment(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}

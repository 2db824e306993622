package industry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		code string
		want []Level
	}{
		{"541512", []Level{{"541512", ResolutionExact}, {"54", ResolutionSector}}},
		{" 54-1512 ", []Level{{"541512", ResolutionExact}, {"54", ResolutionSector}}},
		{"5415", []Level{{"5415", ResolutionExact}, {"54", ResolutionSector}}},
		{"54", []Level{{"54", ResolutionSector}}},
		{"5", nil},
		{"", nil},
		{"abc", nil},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Levels(tt.code))
		})
	}
}

func TestDefaultMatch(t *testing.T) {
	m := DefaultMatch()
	assert.Equal(t, Multiplier{Low: 2.0, Avg: 3.5, High: 5.0}, m.Multiplier)
	assert.Equal(t, ResolutionDefault, m.Resolution)
	assert.Empty(t, m.Code)
}

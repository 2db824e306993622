// Package industry resolves EBITDA multiplier ranges from NAICS industry codes.
//
// Resolution order is exact code, then 2-digit sector, then the global
// default. Providers return whatever ranges their data holds; nothing here
// checks that low <= avg <= high.
package industry

import (
	"context"
	"strings"
	"unicode"
)

// Multiplier is an EBITDA multiple range for an industry.
type Multiplier struct {
	Low  float64 `json:"low" yaml:"low"`
	Avg  float64 `json:"avg" yaml:"avg"`
	High float64 `json:"high" yaml:"high"`
}

// DefaultMultiplier applies when neither the code nor its sector is known.
var DefaultMultiplier = Multiplier{Low: 2.0, Avg: 3.5, High: 5.0}

// Resolution records which tier of the lookup produced a match.
type Resolution string

const (
	ResolutionExact   Resolution = "exact"
	ResolutionSector  Resolution = "sector"
	ResolutionDefault Resolution = "default"
)

// Match is the outcome of a lookup.
type Match struct {
	Multiplier
	Code       string     `json:"code"`        // code that matched; empty for default
	Title      string     `json:"title"`       // industry title when known
	Resolution Resolution `json:"resolution"`
}

// DefaultMatch returns the global fallback.
func DefaultMatch() Match {
	return Match{Multiplier: DefaultMultiplier, Resolution: ResolutionDefault}
}

// Provider looks up multiplier ranges. Unknown codes are not an error:
// implementations fall back to DefaultMatch.
type Provider interface {
	Lookup(ctx context.Context, code string) (Match, error)
}

// Level is one rung of the lookup hierarchy.
type Level struct {
	Code       string
	Resolution Resolution
}

// Levels returns the codes to try for code, most specific first. Non-digit
// characters are stripped. For "541512" it returns the exact code and the
// "54" sector; codes shorter than two digits have no levels.
func Levels(code string) []Level {
	code = Normalize(code)
	if len(code) < 2 {
		return nil
	}
	if len(code) == 2 {
		return []Level{{Code: code, Resolution: ResolutionSector}}
	}
	return []Level{
		{Code: code, Resolution: ResolutionExact},
		{Code: code[:2], Resolution: ResolutionSector},
	}
}

// Normalize strips everything but digits from a NAICS code.
func Normalize(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, code)
}

package industry

import (
	"context"
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed naics.yaml
var embeddedTable []byte

// Entry is one row of a multiplier table.
type Entry struct {
	Code  string `json:"code" yaml:"code"`
	Title string `json:"title" yaml:"title"`

	Multiplier `yaml:",inline"`
}

// tableFile is the on-disk YAML layout.
type tableFile struct {
	Sectors []Entry `yaml:"sectors"`
	Codes   []Entry `yaml:"codes"`
}

// Table is an in-memory Provider. It is read-only after construction.
type Table struct {
	sectors map[string]Entry
	codes   map[string]Entry
}

// DefaultTable returns the built-in reference table.
func DefaultTable() (*Table, error) {
	return ParseTable(embeddedTable)
}

// LoadTable reads a table from a YAML file. An empty path loads the
// built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "industry: read table %s", path)
	}
	return ParseTable(data)
}

// ParseTable builds a Table from YAML. Sector codes must have two digits;
// other codes are stored as given after normalization.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "industry: parse table")
	}

	t := &Table{
		sectors: make(map[string]Entry, len(f.Sectors)),
		codes:   make(map[string]Entry, len(f.Codes)),
	}
	for _, e := range f.Sectors {
		e.Code = Normalize(e.Code)
		if len(e.Code) != 2 {
			return nil, eris.Errorf("industry: sector code %q must have 2 digits", e.Code)
		}
		t.sectors[e.Code] = e
	}
	for _, e := range f.Codes {
		e.Code = Normalize(e.Code)
		if len(e.Code) < 3 {
			return nil, eris.Errorf("industry: industry code %q is too short", e.Code)
		}
		t.codes[e.Code] = e
	}
	return t, nil
}

// Lookup resolves code through exact, sector and default tiers.
func (t *Table) Lookup(_ context.Context, code string) (Match, error) {
	for _, lvl := range Levels(code) {
		var (
			e  Entry
			ok bool
		)
		if lvl.Resolution == ResolutionExact {
			e, ok = t.codes[lvl.Code]
		} else {
			e, ok = t.sectors[lvl.Code]
		}
		if ok {
			return Match{Multiplier: e.Multiplier, Code: e.Code, Title: e.Title, Resolution: lvl.Resolution}, nil
		}
	}
	return DefaultMatch(), nil
}

// List returns all entries, sectors first, each group ordered by code.
func (t *Table) List() []Entry {
	out := make([]Entry, 0, len(t.sectors)+len(t.codes))
	out = append(out, sortedEntries(t.sectors)...)
	out = append(out, sortedEntries(t.codes)...)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.sectors) + len(t.codes)
}

func sortedEntries(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

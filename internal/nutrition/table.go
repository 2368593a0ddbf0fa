package nutrition

import (
	"sort"
	"strings"
)

// Row is one reference record, addressed by column header.
type Row map[string]any

// Get returns the cell under column, or def when the column is absent.
func (r Row) Get(column string, def any) any {
	v, ok := r[column]
	if !ok {
		return def
	}
	return v
}

// Reference looks up ingredient rows by exact name.
type Reference interface {
	Lookup(name string) (Row, bool)
}

// Columns names the reference table headers the resolver reads.
type Columns struct {
	Name         string `json:"name"`
	Energy       string `json:"energy"`
	Protein      string `json:"protein"`
	Fat          string `json:"fat"`
	Carbohydrate string `json:"carbohydrate"`
}

// DefaultColumns matches the French CIQUAL composition table.
var DefaultColumns = Columns{
	Name:         "alim_nom_fr",
	Energy:       "Energie, Règlement UE N° 1169/2011 (kcal/100 g)",
	Protein:      "Protéines, N x facteur de Jones (g/100 g)",
	Fat:          "Lipides (g/100 g)",
	Carbohydrate: "Glucides (g/100 g)",
}

// Table is an in-memory Reference built from spreadsheet rows.
// It is read-only once built.
type Table struct {
	columns Columns
	header  []string
	rows    []Row
	byName  map[string]int
}

// Compile-time interface check.
var _ Reference = (*Table)(nil)

// NewTable builds a table from a header and its data rows. The first row
// carrying a given name wins on duplicates.
func NewTable(columns Columns, header []string, records [][]string) *Table {
	t := &Table{
		columns: columns,
		header:  header,
		rows:    make([]Row, 0, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	for _, rec := range records {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = nil
			}
		}
		t.rows = append(t.rows, row)

		name, _ := row[columns.Name].(string)
		if name == "" {
			continue
		}
		if _, dup := t.byName[name]; !dup {
			t.byName[name] = len(t.rows) - 1
		}
	}
	return t
}

// Lookup returns the row whose name column equals name exactly.
func (t *Table) Lookup(name string) (Row, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Columns returns the header mapping the table was built with.
func (t *Table) Columns() Columns {
	return t.columns
}

// Len reports the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Names returns sorted unique trimmed ingredient names.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(t.byName))
	out := make([]string, 0, len(t.byName))
	for name := range t.byName {
		n := strings.TrimSpace(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Suggest returns up to limit names containing query, case-insensitively.
// An empty query matches everything.
func (t *Table) Suggest(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, name := range t.Names() {
		if q != "" && !strings.Contains(strings.ToLower(name), q) {
			continue
		}
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

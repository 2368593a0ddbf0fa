// Package sheet reads tabular data out of xlsx workbooks.
package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Grid is the content of one worksheet: the first row as header and the
// remaining rows as records.
type Grid struct {
	Sheet  string     `json:"sheet"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Read parses the named worksheet of an xlsx workbook. An empty name selects
// the first sheet. Cell values are returned raw, without number formats.
func Read(data []byte, sheetName string) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	g := &Grid{Sheet: sheetName, Rows: [][]string{}}
	if len(rows) == 0 {
		g.Header = []string{}
		return g, nil
	}
	g.Header = rows[0]
	g.Rows = rows[1:]
	return g, nil
}

// Limit returns a copy of g keeping at most n records.
func (g *Grid) Limit(n int) *Grid {
	if n <= 0 || len(g.Rows) <= n {
		return g
	}
	c := *g
	c.Rows = g.Rows[:n]
	return &c
}

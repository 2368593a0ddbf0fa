package nutrition

// ColumnQuality counts how the cells of one nutrient column resolve.
type ColumnQuality struct {
	Column  string `json:"column"`
	Numeric int    `json:"numeric"`
	Trace   int    `json:"trace"`
	Missing int    `json:"missing"`
	Absent  bool   `json:"absent"`
}

// Quality summarises the reference table's nutrient columns.
type Quality struct {
	Rows    int             `json:"rows"`
	Columns []ColumnQuality `json:"columns"`
}

// Assess classifies every nutrient cell of the table.
func (t *Table) Assess() Quality {
	q := Quality{Rows: t.Len()}
	if t == nil {
		return q
	}

	present := make(map[string]bool, len(t.header))
	for _, h := range t.header {
		present[h] = true
	}

	for _, col := range []string{t.columns.Energy, t.columns.Protein, t.columns.Fat, t.columns.Carbohydrate} {
		cq := ColumnQuality{Column: col, Absent: !present[col]}
		for _, row := range t.rows {
			_, kind := Classify(row.Get(col, nil))
			switch kind {
			case KindNumeric:
				cq.Numeric++
			case KindTrace:
				cq.Trace++
			default:
				cq.Missing++
			}
		}
		q.Columns = append(q.Columns, cq)
	}
	return q
}

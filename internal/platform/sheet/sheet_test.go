package sheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestRead(t *testing.T) {
	t.Parallel()

	data := workbook(t, [][]any{
		{"alim_nom_fr", "kcal"},
		{"Sucre", "400"},
		{"Beurre", "745"},
	})

	g, err := Read(data, "")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", g.Sheet)
	assert.Equal(t, []string{"alim_nom_fr", "kcal"}, g.Header)
	assert.Equal(t, [][]string{{"Sucre", "400"}, {"Beurre", "745"}}, g.Rows)

	assert.Len(t, g.Limit(1).Rows, 1)
	assert.Len(t, g.Rows, 2)
}

func TestRead_UnknownSheet(t *testing.T) {
	t.Parallel()

	_, err := Read(workbook(t, [][]any{{"a"}}), "Nope")
	assert.Error(t, err)
}

func TestRead_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := Read([]byte("plain text"), "")
	assert.Error(t, err)
}

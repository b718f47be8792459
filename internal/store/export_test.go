package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestExportImportXLSX(t *testing.T) {
	t.Parallel()
	recs := []ScanRecord{sampleRecord(1), sampleRecord(2)}
	recs[1].ParentID = "scan-01"

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, recs))

	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	got, err := ImportXLSX(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range recs {
		assert.Equal(t, recs[i].ID, got[i].ID)
		assert.Equal(t, recs[i].ParentID, got[i].ParentID)
		assert.True(t, recs[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.Equal(t, recs[i].Query, got[i].Query)
		assert.Equal(t, recs[i].Grade, got[i].Grade)
		assert.InDelta(t, recs[i].Score, got[i].Score, 1e-9)
		assert.InDelta(t, recs[i].ROI.Float(), got[i].ROI.Float(), 1e-9)
		assert.Nil(t, got[i].Payload)
	}
}

func TestNewHistoryWorkbook_Header(t *testing.T) {
	t.Parallel()
	f, err := NewHistoryWorkbook(nil)
	require.NoError(t, err)
	sheet := f.Sheet[HistorySheet]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, exportHeader, rowToStrings(sheet.Rows[0]))
}

func TestImportXLSX_MissingSheet(t *testing.T) {
	t.Parallel()
	f := xlsx.NewFile()
	_, err := f.AddSheet("Other")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "other.xlsx")
	require.NoError(t, f.Save(path))

	_, err = ImportXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

package store

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/vest-cli/internal/model"
)

// HistorySheet is the worksheet name used by scan exports.
const HistorySheet = "Scans"

var exportHeader = []string{
	"ID", "Parent ID", "Created At", "Item", "Category", "Query", "Tier",
	"Buy Price", "List Price", "Score", "Grade", "Recommendation", "Net Profit", "ROI %",
}

// NewHistoryWorkbook builds a workbook with one row per record. Payloads
// are not exported.
func NewHistoryWorkbook(recs []ScanRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(HistorySheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.ParentID)
		row.AddCell().SetString(r.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(r.ItemName)
		row.AddCell().SetString(r.Category)
		row.AddCell().SetString(r.Query)
		row.AddCell().SetInt(r.Tier)
		row.AddCell().SetFloatWithFormat(r.BuyPrice, "0.00")
		row.AddCell().SetFloatWithFormat(r.ListPrice, "0.00")
		row.AddCell().SetFloatWithFormat(r.Score, "0.00")
		row.AddCell().SetString(string(r.Grade))
		row.AddCell().SetString(string(r.Recommendation))
		row.AddCell().SetFloatWithFormat(r.NetProfit, "0.00")
		row.AddCell().SetFloatWithFormat(r.ROI.Percent(), "0.00")
	}
	return f, nil
}

// ExportXLSX writes recs as a spreadsheet to w.
func ExportXLSX(w io.Writer, recs []ScanRecord) error {
	f, err := NewHistoryWorkbook(recs)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

// ImportXLSX reads records back from a spreadsheet written by ExportXLSX.
// Rows without an id are skipped.
func ImportXLSX(path string) ([]ScanRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[HistorySheet]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", HistorySheet)
	}

	var out []ScanRecord
	for i, row := range sheet.Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		if len(cells) < len(exportHeader) || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		rec, err := parseRow(cells)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: row %d", i+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(c []string) (ScanRecord, error) {
	created, err := time.Parse(time.RFC3339, c[2])
	if err != nil {
		return ScanRecord{}, eris.Wrap(err, "parse created at")
	}
	tier, err := strconv.Atoi(c[6])
	if err != nil {
		return ScanRecord{}, eris.Wrap(err, "parse tier")
	}
	nums := make([]float64, 0, 5)
	for _, idx := range []int{7, 8, 9, 12, 13} {
		v, err := strconv.ParseFloat(strings.TrimSpace(c[idx]), 64)
		if err != nil {
			return ScanRecord{}, eris.Wrapf(err, "parse %s", exportHeader[idx])
		}
		nums = append(nums, v)
	}
	return ScanRecord{
		ID:             c[0],
		ParentID:       c[1],
		CreatedAt:      created.UTC(),
		ItemName:       c[3],
		Category:       c[4],
		Query:          c[5],
		Tier:           tier,
		BuyPrice:       nums[0],
		ListPrice:      nums[1],
		Score:          nums[2],
		Grade:          model.Grade(c[10]),
		Recommendation: model.Recommendation(c[11]),
		NetProfit:      nums[3],
		ROI:            model.RoundRatio(nums[4] / 100),
	}, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.Value
	}
	return cells
}

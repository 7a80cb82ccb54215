package tabio

import (
	"github.com/xuri/excelize/v2"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// SheetNames lists the worksheets of an Excel file so the import
// dialog can offer a choice.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadExcel loads one worksheet into a frame. An empty sheet name
// reads the first worksheet. Column types are inferred the same way as
// for CSV imports.
func ReadExcel(path, sheet string, opts CSVOptions) (*frame.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return frame.Empty(), nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
	}
	return frameFromRecords(rows, opts)
}

// WriteExcel writes a frame to a single worksheet, header row first.
func WriteExcel(fr *frame.Frame, path, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
		}
	}
	records := frameRecords(fr)
	for rowIdx, rec := range records {
		for colIdx, val := range rec {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
			}
			if err := f.SetCellValue(sheet, cell, cellValue(fr, rowIdx, colIdx, val)); err != nil {
				return tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return tabulon.WrapErr("tabio.excel", tabulon.ErrIO, err)
	}
	return nil
}

// cellValue keeps numbers numeric in the worksheet instead of writing
// every cell as text. rowIdx counts the header as row zero.
func cellValue(fr *frame.Frame, rowIdx, colIdx int, rendered string) interface{} {
	if rowIdx == 0 {
		return rendered
	}
	withIndex := colIdx
	cols := fr.NumCols()
	if fr.Index() != nil {
		if colIdx == 0 {
			return rendered
		}
		withIndex = colIdx - 1
	}
	if withIndex >= cols {
		return rendered
	}
	c := fr.Column(withIndex)
	r := rowIdx - 1
	if r >= c.Len() || c.IsNA(r) {
		return rendered
	}
	switch c.DType() {
	case frame.Int:
		if v, ok := c.Int(r); ok {
			return v
		}
	case frame.Float:
		if v, ok := c.Float(r); ok {
			return v
		}
	case frame.Bool:
		if v, ok := c.Float(r); ok {
			return v != 0
		}
	}
	return rendered
}

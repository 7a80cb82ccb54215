// Package tabio reads and writes tabular data: CSV files and URLs,
// Excel workbooks and the system clipboard.
package tabio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// previewRows caps how much of a file the import preview reads.
const previewRows = 400

// CSVOptions mirrors the import dialog. Zero values mean comma
// separated, point decimal, UTF-8.
type CSVOptions struct {
	Sep              rune
	Decimal          rune
	Comment          rune
	SkipInitialSpace bool
	SkipRows         int
	SkipBlankLines   bool
	// ParseDates lists columns coerced to datetime.
	ParseDates []string
	// TimeFormat is the layout for ParseDates; empty infers.
	TimeFormat string
	// Encoding is utf-8 or latin-1.
	Encoding string
	// DTypes overrides the inferred column types; values are int64,
	// float64 or object. A failing cast falls back to the inferred
	// column.
	DTypes map[string]string
}

func (o CSVOptions) fill() CSVOptions {
	if o.Sep == 0 {
		o.Sep = ','
	}
	if o.Decimal == 0 {
		o.Decimal = '.'
	}
	if o.Encoding == "" {
		o.Encoding = "utf-8"
	}
	return o
}

// ReadCSV loads a CSV file into a frame with inferred column types.
func ReadCSV(path string, opts CSVOptions) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.csv", tabulon.ErrIO, err)
	}
	defer file.Close()
	f, err := readCSVFrom(file, opts, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Preview is what the import dialog shows: the leading rows plus the
// dtype inferred for each column.
type Preview struct {
	Frame  *frame.Frame
	DTypes map[string]string
}

// PreviewCSV reads the first rows of a file so the dialog can offer
// per-column type overrides before the real import.
func PreviewCSV(path string, opts CSVOptions) (*Preview, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, tabulon.WrapErr("tabio.csv", tabulon.ErrIO, err)
	}
	defer file.Close()
	f, err := readCSVFrom(file, opts, previewRows)
	if err != nil {
		return nil, err
	}
	return &Preview{Frame: f, DTypes: frameDTypes(f)}, nil
}

func frameDTypes(f *frame.Frame) map[string]string {
	out := make(map[string]string, f.NumCols())
	for i := 0; i < f.NumCols(); i++ {
		c := f.Column(i)
		switch c.DType() {
		case frame.Int:
			out[c.Name] = "int64"
		case frame.Float:
			out[c.Name] = "float64"
		default:
			out[c.Name] = "object"
		}
	}
	return out
}

// readCSVFrom parses CSV records and assembles the frame; limit > 0
// stops after that many data rows.
func readCSVFrom(r io.Reader, opts CSVOptions, limit int) (*frame.Frame, error) {
	opts = opts.fill()
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = opts.Sep
	reader.Comment = opts.Comment
	reader.TrimLeadingSpace = opts.SkipInitialSpace
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	row := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, tabulon.WrapErr("tabio.csv", tabulon.ErrIO, err)
		}
		row++
		if row <= opts.SkipRows {
			continue
		}
		if opts.SkipBlankLines && blankRecord(rec) {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) > limit {
			break
		}
	}
	return frameFromRecords(records, opts)
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// decodeReader handles the two supported encodings. latin-1 maps each
// byte onto the rune of the same value.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8", "ascii":
		return r, nil
	case "latin-1", "latin1", "iso-8859-1":
		return latin1Reader{br: bufio.NewReader(r)}, nil
	}
	return nil, tabulon.Errorf("tabio.csv", tabulon.ErrUserInput, "unsupported encoding %q", encoding)
}

type latin1Reader struct {
	br *bufio.Reader
}

func (l latin1Reader) Read(p []byte) (int, error) {
	n := 0
	for n+2 <= len(p) {
		b, err := l.br.ReadByte()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		n += copy(p[n:], string(rune(b)))
	}
	return n, nil
}

// frameFromRecords builds a typed frame from raw records: first row is
// the header, every column starts as text and numeric columns are
// promoted by coercion, then dtype overrides and date parsing apply.
func frameFromRecords(records [][]string, opts CSVOptions) (*frame.Frame, error) {
	opts = opts.fill()
	if len(records) == 0 {
		return frame.Empty(), nil
	}
	header := records[0]
	data := records[1:]
	width := len(header)

	out := frame.Empty()
	for ci := 0; ci < width; ci++ {
		vals := make([]string, len(data))
		valid := make([]bool, len(data))
		for ri, rec := range data {
			if ci < len(rec) {
				v := rec[ci]
				if opts.Decimal != '.' {
					v = strings.ReplaceAll(v, string(opts.Decimal), ".")
				}
				vals[ri] = v
				valid[ri] = v != ""
			}
		}
		name := strings.TrimSpace(header[ci])
		if name == "" {
			name = fmt.Sprintf("column_%d", ci)
		}
		col := inferColumn(name, vals, valid)
		if err := out.AddColumn(col); err != nil {
			return nil, err
		}
	}
	out.DedupNames()

	for _, name := range opts.ParseDates {
		c, ok := out.ColumnByName(name)
		if !ok {
			continue
		}
		if parsed, ok := frame.ToTime(c, opts.TimeFormat, true); ok {
			*c = parsed
		}
	}
	applyDTypes(out, opts.DTypes)
	return out, nil
}

// inferColumn types a raw text column: integer when every present
// value is a whole number, float when every present value parses,
// otherwise text.
func inferColumn(name string, vals []string, valid []bool) frame.Column {
	allInt, allNum, seen := true, true, false
	nums := make([]float64, len(vals))
	for i, v := range vals {
		if !valid[i] {
			continue
		}
		seen = true
		n, ok := frame.ParseNumber(v, frame.CoerceOptions{})
		if !ok {
			allNum = false
			break
		}
		nums[i] = n
		if n != float64(int64(n)) {
			allInt = false
		}
	}
	if !seen || !allNum {
		return frame.NewStringColumn(name, vals, valid)
	}
	if allInt {
		ints := make([]int64, len(nums))
		for i, n := range nums {
			ints[i] = int64(n)
		}
		return frame.NewIntColumn(name, ints, valid)
	}
	return frame.NewFloatColumn(name, nums, valid)
}

// applyDTypes casts columns to the requested types, keeping the
// inferred column when a cast cannot represent the data.
func applyDTypes(f *frame.Frame, dtypes map[string]string) {
	for name, want := range dtypes {
		c, ok := f.ColumnByName(name)
		if !ok {
			continue
		}
		var target frame.DType
		switch want {
		case "int64":
			target = frame.Int
		case "float64":
			target = frame.Float
		case "object":
			target = frame.String
		default:
			continue
		}
		cast := frame.Cast(c, target)
		if target == frame.String || castKeepsData(c, &cast) {
			*c = cast
		}
	}
}

// castKeepsData refuses a cast that turned present values missing.
func castKeepsData(before, after *frame.Column) bool {
	for i := 0; i < before.Len(); i++ {
		if !before.IsNA(i) && after.IsNA(i) {
			return false
		}
	}
	return true
}

// WriteCSV writes a frame, the promoted index leading when present.
func WriteCSV(f *frame.Frame, path string, opts CSVOptions) error {
	opts = opts.fill()
	file, err := os.Create(path)
	if err != nil {
		return tabulon.WrapErr("tabio.csv", tabulon.ErrIO, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = opts.Sep
	if err := w.WriteAll(frameRecords(f)); err != nil {
		return tabulon.WrapErr("tabio.csv", tabulon.ErrIO, err)
	}
	return nil
}

// frameRecords renders a frame to records, header first.
func frameRecords(f *frame.Frame) [][]string {
	withIndex := f.Copy()
	if withIndex.Index() != nil {
		withIndex.ResetIndex()
	}
	out := make([][]string, 0, withIndex.NumRows()+1)
	out = append(out, withIndex.Names())
	for r := 0; r < withIndex.NumRows(); r++ {
		rec := make([]string, withIndex.NumCols())
		for c := 0; c < withIndex.NumCols(); c++ {
			col := withIndex.Column(c)
			if !col.IsNA(r) {
				rec[c] = col.String(r)
			}
		}
		out = append(out, rec)
	}
	return out
}

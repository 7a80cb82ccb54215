package tabio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadCSVInfersTypes(t *testing.T) {
	path := writeTemp(t, "data.csv", "name,age,score\nalice,30,1.5\nbob,25,2.5\n")

	f, err := ReadCSV(path, CSVOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.NumRows() != 2 || f.NumCols() != 3 {
		t.Fatalf("got %dx%d, want 2x3", f.NumRows(), f.NumCols())
	}
	age, _ := f.ColumnByName("age")
	if age.DType() != frame.Int {
		t.Errorf("age dtype = %v, want Int", age.DType())
	}
	score, _ := f.ColumnByName("score")
	if score.DType() != frame.Float {
		t.Errorf("score dtype = %v, want Float", score.DType())
	}
	name, _ := f.ColumnByName("name")
	if name.DType() != frame.String {
		t.Errorf("name dtype = %v, want String", name.DType())
	}
}

func TestReadCSVOptions(t *testing.T) {
	content := "# comment line\nskip me\na;b\n1,5;x\n\n2,5;y\n"
	path := writeTemp(t, "data.csv", content)

	f, err := ReadCSV(path, CSVOptions{
		Sep:            ';',
		Decimal:        ',',
		Comment:        '#',
		SkipRows:       1,
		SkipBlankLines: true,
	})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", f.NumRows())
	}
	a, _ := f.ColumnByName("a")
	if v, _ := a.Float(0); v != 1.5 {
		t.Errorf("a[0] = %v, want 1.5", v)
	}
}

func TestReadCSVUnsupportedEncoding(t *testing.T) {
	path := writeTemp(t, "data.csv", "a\n1\n")
	_, err := ReadCSV(path, CSVOptions{Encoding: "shift-jis"})
	if !errors.Is(err, tabulon.ErrUserInput) {
		t.Fatalf("err = %v, want ErrUserInput", err)
	}
}

func TestPreviewDTypeOverride(t *testing.T) {
	path := writeTemp(t, "data.csv", "code,v\n007,1\n042,2\n")

	pre, err := PreviewCSV(path, CSVOptions{})
	if err != nil {
		t.Fatalf("PreviewCSV: %v", err)
	}
	if pre.DTypes["code"] != "int64" {
		t.Fatalf("inferred code dtype = %q, want int64", pre.DTypes["code"])
	}

	f, err := ReadCSV(path, CSVOptions{DTypes: map[string]string{"code": "object"}})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	code, _ := f.ColumnByName("code")
	if code.DType() != frame.String {
		t.Fatalf("code dtype = %v, want String", code.DType())
	}
}

func TestDTypeOverrideFallsBackOnFailure(t *testing.T) {
	path := writeTemp(t, "data.csv", "v\nhello\nworld\n")
	f, err := ReadCSV(path, CSVOptions{DTypes: map[string]string{"v": "int64"}})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	v, _ := f.ColumnByName("v")
	if v.DType() != frame.String {
		t.Fatalf("v dtype = %v, want String fallback", v.DType())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	age := frame.NewIntColumn("age", []int64{30, 25}, nil)
	name := frame.NewStringColumn("name", []string{"alice", "bob"}, nil)
	f, err := frame.New(name, age)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSV(f, path, CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	back, err := ReadCSV(path, CSVOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !back.Equal(f) {
		t.Errorf("round trip changed the frame")
	}
}

func TestReadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.xlsx")
	x := excelize.NewFile()
	x.SetCellValue("Sheet1", "A1", "city")
	x.SetCellValue("Sheet1", "B1", "pop")
	x.SetCellValue("Sheet1", "A2", "oslo")
	x.SetCellValue("Sheet1", "B2", 700000)
	x.SetCellValue("Sheet1", "A3", "bergen")
	x.SetCellValue("Sheet1", "B3", 290000)
	if err := x.SaveAs(path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
	x.Close()

	f, err := ReadExcel(path, "", CSVOptions{})
	if err != nil {
		t.Fatalf("ReadExcel: %v", err)
	}
	if f.NumRows() != 2 || f.NumCols() != 2 {
		t.Fatalf("got %dx%d, want 2x2", f.NumRows(), f.NumCols())
	}
	pop, _ := f.ColumnByName("pop")
	if pop.DType() != frame.Int {
		t.Errorf("pop dtype = %v, want Int", pop.DType())
	}
	if v, _ := pop.Int(0); v != 700000 {
		t.Errorf("pop[0] = %d, want 700000", v)
	}
}

func TestExcelRoundTrip(t *testing.T) {
	v := frame.NewFloatColumn("v", []float64{1.5, 2.5}, nil)
	tag := frame.NewStringColumn("tag", []string{"a", "b"}, nil)
	f, err := frame.New(tag, v)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteExcel(f, path, "data"); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	sheets, err := SheetNames(path)
	if err != nil {
		t.Fatalf("SheetNames: %v", err)
	}
	if len(sheets) != 1 || sheets[0] != "data" {
		t.Fatalf("sheets = %v, want [data]", sheets)
	}
	back, err := ReadExcel(path, "data", CSVOptions{})
	if err != nil {
		t.Fatalf("ReadExcel: %v", err)
	}
	if !back.Equal(f) {
		t.Errorf("round trip changed the frame")
	}
}

func TestReadFileDispatch(t *testing.T) {
	path := writeTemp(t, "data.tsv", "a\tb\n1\t2\n")
	f, err := ReadFile(path, CSVOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if f.NumCols() != 2 {
		t.Fatalf("cols = %d, want 2", f.NumCols())
	}

	_, err = ReadFile(writeTemp(t, "data.parquet", ""), CSVOptions{})
	if !errors.Is(err, tabulon.ErrUserInput) {
		t.Fatalf("err = %v, want ErrUserInput", err)
	}
}

func TestParseDates(t *testing.T) {
	path := writeTemp(t, "data.csv", "day,v\n2024-01-01,1\n2024-02-01,2\n")
	f, err := ReadCSV(path, CSVOptions{ParseDates: []string{"day"}})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	day, _ := f.ColumnByName("day")
	if day.DType() != frame.Time {
		t.Fatalf("day dtype = %v, want Time", day.DType())
	}
	if v, ok := day.Time(1); !ok || v.Month() != 2 {
		t.Errorf("day[1] = %v, want February", v)
	}
}

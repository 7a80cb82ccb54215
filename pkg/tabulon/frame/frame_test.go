package frame

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		NewIntColumn("a", []int64{1, 2, 3}, nil),
		NewFloatColumn("b", []float64{1.5, 2.5, 3.5}, nil),
		NewStringColumn("c", []string{"x", "y", "z"}, nil),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestNewLengthMismatch(t *testing.T) {
	_, err := New(
		NewIntColumn("a", []int64{1, 2}, nil),
		NewIntColumn("b", []int64{1}, nil),
	)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestTakeAndFilter(t *testing.T) {
	f := sampleFrame(t)

	got := f.Take([]int{2, 0})
	if got.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", got.NumRows())
	}
	if v, _ := got.Column(0).Int(0); v != 3 {
		t.Errorf("expected first row a=3, got %d", v)
	}
	if v, _ := got.Column(0).Int(1); v != 1 {
		t.Errorf("expected second row a=1, got %d", v)
	}

	masked := f.Filter([]bool{true, false, true})
	if masked.NumRows() != 2 {
		t.Errorf("expected 2 masked rows, got %d", masked.NumRows())
	}
}

func TestDedupNames(t *testing.T) {
	f, _ := New(
		NewIntColumn("x", []int64{1}, nil),
		NewIntColumn("x", []int64{2}, nil),
		NewIntColumn("x", []int64{3}, nil),
		NewIntColumn("y", []int64{4}, nil),
	)
	f.DedupNames()

	want := []string{"x", "x_1", "x_2", "y"}
	for i, name := range f.Names() {
		if name != want[i] {
			t.Errorf("column %d: expected %q, got %q", i, want[i], name)
		}
	}
}

func TestSetIndexAndReset(t *testing.T) {
	f := sampleFrame(t)
	if err := f.SetIndex("c"); err != nil {
		t.Fatalf("SetIndex failed: %v", err)
	}
	if f.NumCols() != 2 {
		t.Errorf("expected 2 columns after promotion, got %d", f.NumCols())
	}
	if f.Index() == nil || f.Index().Name != "c" {
		t.Fatal("index not promoted")
	}
	if f.IndexLabel(1) != "y" {
		t.Errorf("expected index label y, got %q", f.IndexLabel(1))
	}

	f.ResetIndex()
	if f.NumCols() != 3 || f.Names()[0] != "c" {
		t.Errorf("expected index demoted to first column, got %v", f.Names())
	}
}

func TestSortByColumn(t *testing.T) {
	f, _ := New(
		NewFloatColumn("v", []float64{3, 1, 2}, nil),
		NewStringColumn("s", []string{"c", "a", "b"}, nil),
	)
	if err := f.SortByColumn("v", true); err != nil {
		t.Fatalf("SortByColumn failed: %v", err)
	}
	col, _ := f.ColumnByName("s")
	if col.String(0) != "a" || col.String(2) != "c" {
		t.Errorf("rows not sorted: %q %q %q", col.String(0), col.String(1), col.String(2))
	}
}

func TestEqualAndCopy(t *testing.T) {
	f := sampleFrame(t)
	g := f.Copy()
	if !f.Equal(g) {
		t.Fatal("copy not equal to original")
	}
	g.Column(0).Set(0, int64(99))
	if f.Equal(g) {
		t.Fatal("mutation of copy leaked into original equality")
	}
	if v, _ := f.Column(0).Int(0); v != 1 {
		t.Errorf("original mutated through copy: got %d", v)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	f, _ := New(
		NewIntColumn("n", []int64{1, 0, 3}, []bool{true, false, true}),
		NewTimeColumn("t", []time.Time{
			time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			{},
			time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
		}, []bool{true, false, true}),
		NewCategoricalColumn("c", []string{"lo", "hi", "lo"}, nil, nil),
	)
	f.SetIndex("c")

	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var g Frame
	if err := json.Unmarshal(b, &g); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !f.Equal(&g) {
		t.Error("round-tripped frame differs")
	}
	if g.Index() == nil || g.Index().DType() != Categorical {
		t.Error("index lost in round trip")
	}
}

func TestColumnJSONWithoutValidKey(t *testing.T) {
	var c Column
	doc := `{"name":"v","dtype":"float64","floats":[1.5,2.5,3.5]}`
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	for i := 0; i < 3; i++ {
		if c.IsNA(i) {
			t.Errorf("row %d missing, want all present", i)
		}
	}
	if v, _ := c.Float(1); v != 2.5 {
		t.Errorf("v[1] = %v, want 2.5", v)
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name    string
		col     Column
		numeric bool
	}{
		{"currency strings", NewStringColumn("p", []string{"$1,200", "$3.50"}, nil), true},
		{"mixed", NewStringColumn("m", []string{"12", "n/a"}, nil), true},
		{"pure text", NewStringColumn("t", []string{"abc", "def"}, nil), false},
	}
	for _, tt := range tests {
		got := CoerceNumeric(&tt.col)
		isNumeric := got.DType() == Float
		if isNumeric != tt.numeric {
			t.Errorf("%s: numeric=%t, expected %t", tt.name, isNumeric, tt.numeric)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		opts     CoerceOptions
		expected float64
		ok       bool
	}{
		{"$1,200", CoerceOptions{StripCurrency: true}, 1200, true},
		{"$3,400.50", CoerceOptions{StripCurrency: true}, 3400.5, true},
		{"n/a", CoerceOptions{StripCurrency: true, StripText: true, FillEmpty: true}, 0, true},
		{"", CoerceOptions{FillEmpty: true}, 0, true},
		{"", CoerceOptions{}, 0, false},
		{"abc", CoerceOptions{}, 0, false},
		{"-42.5", CoerceOptions{}, -42.5, true},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.input, tt.opts)
		if ok != tt.ok || (ok && got != tt.expected) {
			t.Errorf("ParseNumber(%q) = %v,%t, expected %v,%t", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestCast(t *testing.T) {
	c := NewStringColumn("s", []string{"1", "2.5", "x"}, nil)
	fc := Cast(&c, Float)
	if fc.DType() != Float {
		t.Fatalf("expected float column, got %s", fc.DType())
	}
	if v, ok := fc.Float(1); !ok || v != 2.5 {
		t.Errorf("expected 2.5, got %v", v)
	}
	if !fc.IsNA(2) {
		t.Error("unparseable value should be missing")
	}
}

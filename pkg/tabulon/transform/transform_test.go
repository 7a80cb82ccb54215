package transform

import (
	"math"
	"testing"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

func mustFrame(t *testing.T, cols ...frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func floatAt(t *testing.T, f *frame.Frame, name string, row int) float64 {
	t.Helper()
	c, ok := f.ColumnByName(name)
	if !ok {
		t.Fatalf("no column %q", name)
	}
	v, ok := c.Float(row)
	if !ok {
		t.Fatalf("%s[%d] is missing", name, row)
	}
	return v
}

func TestCatalogueComplete(t *testing.T) {
	cat := Catalogue()
	for _, name := range []string{
		"clean", "find-duplicates", "convert-numeric", "convert-types",
		"convert-column-names", "apply-column-function", "transform",
		"fill-data", "fill-dates", "fill-strings", "convert-dates",
		"apply-string", "resample", "transpose", "pivot", "aggregate",
		"melt", "merge", "manage-columns", "filter", "find-replace", "bin",
	} {
		if _, ok := cat[name]; !ok {
			t.Errorf("catalogue is missing %q", name)
		}
	}
}

func TestCleanThroughStoreWithUndo(t *testing.T) {
	f := mustFrame(t,
		frame.NewFloatColumn("a", []float64{1, math.NaN(), 3}, nil),
		frame.NewStringColumn("b", []string{"x", "", "z"}, []bool{true, false, true}),
	)
	store := frame.NewStore(f)
	defer store.Release()

	err := store.Mutate(func(cur *frame.Frame) (*frame.Frame, error) {
		return Clean(cur, CleanOptions{DropRows: true, DropRowHow: "any", RoundDecimals: -1})
	})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got := store.Frame().NumRows(); got != 2 {
		t.Fatalf("rows after clean = %d, want 2", got)
	}
	if !store.Undo() {
		t.Fatal("undo refused")
	}
	if got := store.Frame().NumRows(); got != 3 {
		t.Fatalf("rows after undo = %d, want 3", got)
	}
}

func TestCleanFillInterpolate(t *testing.T) {
	f := mustFrame(t, frame.NewFloatColumn("v", []float64{1, math.NaN(), 3}, nil))
	out, err := Clean(f, CleanOptions{Method: FillInterpolate, RoundDecimals: -1})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got := floatAt(t, out, "v", 1); got != 2 {
		t.Fatalf("interpolated value = %v, want 2", got)
	}
}

func TestConvertNumericCurrency(t *testing.T) {
	f := mustFrame(t, frame.NewStringColumn("price", []string{"$1,200", "$3,400.50", "n/a"}, nil))
	out, err := ConvertNumeric(f, NumericOptions{
		Target:        "float",
		StripCurrency: true,
		StripText:     true,
		FillEmpty:     true,
	})
	if err != nil {
		t.Fatalf("convert-numeric: %v", err)
	}
	want := []float64{1200, 3400.5, 0}
	for i, w := range want {
		if got := floatAt(t, out, "price", i); got != w {
			t.Errorf("price[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestConvertNumericTargetsOnlyNamedColumns(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("a", []string{"1", "2"}, nil),
		frame.NewStringColumn("b", []string{"3", "4"}, nil),
	)
	out, err := ConvertNumeric(f, NumericOptions{Target: "int", Columns: []string{"b"}})
	if err != nil {
		t.Fatalf("convert-numeric: %v", err)
	}
	a, _ := out.ColumnByName("a")
	if a.DType() != frame.String {
		t.Errorf("a dtype = %v, want untouched String", a.DType())
	}
	b, _ := out.ColumnByName("b")
	if b.DType() != frame.Int {
		t.Errorf("b dtype = %v, want Int", b.DType())
	}
}

func TestPivotSum(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("region", []string{"A", "A", "B", "B"}, nil),
		frame.NewIntColumn("q", []int64{1, 2, 1, 2}, nil),
		frame.NewFloatColumn("v", []float64{10, 20, 30, 40}, nil),
	)
	out, err := Pivot(f, PivotOptions{
		Index:   []string{"region"},
		Columns: "q",
		Values:  []string{"v"},
		AggFunc: "sum",
	})
	if err != nil {
		t.Fatalf("pivot: %v", err)
	}
	if got := out.Names(); len(got) != 3 || got[0] != "region" || got[1] != "1" || got[2] != "2" {
		t.Fatalf("pivot columns = %v", got)
	}
	want := [][]float64{{10, 20}, {30, 40}}
	for r := range want {
		for c, w := range want[r] {
			if got := floatAt(t, out, out.Names()[c+1], r); got != w {
				t.Errorf("cell[%d][%d] = %v, want %v", r, c, got, w)
			}
		}
	}
}

func TestFilterClauseFoldWithXOR(t *testing.T) {
	vals := make([]int64, 10)
	for i := range vals {
		vals[i] = int64(i + 1)
	}
	f := mustFrame(t, frame.NewIntColumn("x", vals, nil))

	mask, err := FilterMask(f, FilterOptions{Clauses: []Clause{
		{Column: "x", Op: ">", Value: "3"},
		{Column: "x", Op: "<", Value: "8", Combiner: "AND"},
		{Column: "x", Op: "not-equals", Value: "5", Combiner: "NOT"},
	}})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	want := map[int64]bool{1: true, 2: true, 3: true, 5: true, 8: true, 9: true, 10: true}
	for i, v := range vals {
		if mask[i] != want[v] {
			t.Errorf("mask for x=%d is %v, want %v", v, mask[i], want[v])
		}
	}
}

func TestFilterExpression(t *testing.T) {
	f := mustFrame(t,
		frame.NewIntColumn("x", []int64{1, 5, 9}, nil),
		frame.NewStringColumn("tag", []string{"lo", "mid", "hi"}, nil),
	)
	mask, err := FilterMask(f, FilterOptions{Expression: "x * 2 > 8 and tag != 'hi'"})
	if err != nil {
		t.Fatalf("expression filter: %v", err)
	}
	want := []bool{false, true, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestFillDataDeterministicSeed(t *testing.T) {
	base := mustFrame(t, frame.NewFloatColumn("v", []float64{0, 0, 0, 0, 0}, nil))
	opts := FillDataOptions{
		Column: "v", Mode: "random", Dist: "normal",
		Mean: 10, Std: 2, Seed: 42,
	}
	a, err := FillData(base, opts)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	b, err := FillData(base, opts)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !a.Equal(b) {
		t.Fatal("same seed produced different fills")
	}
	opts.Seed = 43
	c, err := FillData(base, opts)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if a.Equal(c) {
		t.Fatal("different seeds produced identical fills")
	}
}

func TestResampleMonthlyMean(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
	}
	f := mustFrame(t,
		frame.NewTimeColumn("ts", times, nil),
		frame.NewFloatColumn("v", []float64{10, 20, 40}, nil),
	)
	if err := f.SetIndex("ts"); err != nil {
		t.Fatalf("set index: %v", err)
	}
	out, err := Resample(f, ResampleOptions{Freq: "M", Agg: "mean"})
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	if got := floatAt(t, out, "v", 0); got != 15 {
		t.Errorf("january mean = %v, want 15", got)
	}
	if got := floatAt(t, out, "v", 1); got != 40 {
		t.Errorf("february mean = %v, want 40", got)
	}
}

func TestResampleNeedsDatetimeIndex(t *testing.T) {
	f := mustFrame(t, frame.NewFloatColumn("v", []float64{1, 2}, nil))
	if _, err := Resample(f, ResampleOptions{Freq: "D", Agg: "mean"}); err == nil {
		t.Fatal("expected an error without a datetime index")
	}
}

func TestTranspose(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("name", []string{"a", "b"}, nil),
		frame.NewIntColumn("n", []int64{1, 2}, nil),
	)
	out, err := Transpose(f)
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if out.NumRows() != 2 || out.NumCols() != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", out.NumRows(), out.NumCols())
	}
	c, _ := out.ColumnByName("0")
	if c.String(0) != "a" || c.String(1) != "1" {
		t.Errorf("first transposed row = [%s %s]", c.String(0), c.String(1))
	}
}

func TestMeltLongForm(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("id", []string{"r1", "r2"}, nil),
		frame.NewFloatColumn("a", []float64{1, 2}, nil),
		frame.NewFloatColumn("b", []float64{3, 4}, nil),
	)
	out, err := Melt(f, MeltOptions{IDVars: []string{"id"}})
	if err != nil {
		t.Fatalf("melt: %v", err)
	}
	if out.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", out.NumRows())
	}
	variable, _ := out.ColumnByName("variable")
	if variable.String(0) != "a" || variable.String(2) != "b" {
		t.Errorf("variable order = [%s ... %s]", variable.String(0), variable.String(2))
	}
	if got := floatAt(t, out, "value", 3); got != 4 {
		t.Errorf("value[3] = %v, want 4", got)
	}
}

func TestAggregateSingleFuncAllColumns(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("g", []string{"x", "x", "y"}, nil),
		frame.NewFloatColumn("a", []float64{1, 3, 5}, nil),
		frame.NewFloatColumn("b", []float64{2, 4, 6}, nil),
	)
	out, err := Aggregate(f, AggregateOptions{
		GroupBy: []string{"g"},
		Columns: []string{"a", "b"},
		Funcs:   []string{"mean"},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := floatAt(t, out, "a_mean", 0); got != 2 {
		t.Errorf("a_mean[x] = %v, want 2", got)
	}
	if got := floatAt(t, out, "b_mean", 1); got != 6 {
		t.Errorf("b_mean[y] = %v, want 6", got)
	}
}

func TestMergeInner(t *testing.T) {
	left := mustFrame(t,
		frame.NewStringColumn("k", []string{"a", "b", "c"}, nil),
		frame.NewIntColumn("l", []int64{1, 2, 3}, nil),
	)
	right := mustFrame(t,
		frame.NewStringColumn("k", []string{"b", "c", "d"}, nil),
		frame.NewIntColumn("r", []int64{20, 30, 40}, nil),
	)
	out, err := Merge(left, right, MergeOptions{Op: "merge", LeftOn: "k", RightOn: "k", How: "inner"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	if got := floatAt(t, out, "r", 0); got != 20 {
		t.Errorf("r[0] = %v, want 20", got)
	}
}

func TestMergeOuterFillsMissing(t *testing.T) {
	left := mustFrame(t,
		frame.NewStringColumn("k", []string{"a", "b"}, nil),
		frame.NewIntColumn("l", []int64{1, 2}, nil),
	)
	right := mustFrame(t,
		frame.NewStringColumn("k", []string{"b", "c"}, nil),
		frame.NewIntColumn("r", []int64{20, 30}, nil),
	)
	out, err := Merge(left, right, MergeOptions{Op: "merge", LeftOn: "k", RightOn: "k", How: "outer"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", out.NumRows())
	}
	rc, _ := out.ColumnByName("r")
	if !rc.IsNA(0) {
		t.Error("unmatched left row should have missing r")
	}
}

func TestConcatUnionsColumns(t *testing.T) {
	left := mustFrame(t, frame.NewFloatColumn("a", []float64{1}, nil))
	right := mustFrame(t,
		frame.NewFloatColumn("a", []float64{2}, nil),
		frame.NewFloatColumn("b", []float64{3}, nil),
	)
	out, err := Merge(left, right, MergeOptions{Op: "concat"})
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if out.NumRows() != 2 || out.NumCols() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", out.NumRows(), out.NumCols())
	}
	bc, _ := out.ColumnByName("b")
	if !bc.IsNA(0) {
		t.Error("b[0] should be missing for the left-only row")
	}
}

func TestApplyStringSplit(t *testing.T) {
	f := mustFrame(t, frame.NewStringColumn("full", []string{"ada lovelace", "alan turing"}, nil))
	out, err := ApplyString(f, StringOptions{Column: "full", Function: "split", Sep: " "})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	first, ok := out.ColumnByName("full_0")
	if !ok {
		t.Fatal("split did not add full_0")
	}
	if first.String(1) != "alan" {
		t.Errorf("full_0[1] = %q, want alan", first.String(1))
	}
}

func TestBinLabels(t *testing.T) {
	f := mustFrame(t, frame.NewFloatColumn("v", []float64{1, 5, 9}, nil))
	out, err := Bin(f, BinOptions{
		Column: "v",
		Edges:  []float64{0, 4, 10},
		Labels: []string{"low", "high"},
	})
	if err != nil {
		t.Fatalf("bin: %v", err)
	}
	c, ok := out.ColumnByName("v_bin")
	if !ok {
		t.Fatal("bin did not add v_bin")
	}
	for i, want := range []string{"low", "high", "high"} {
		if c.String(i) != want {
			t.Errorf("v_bin[%d] = %q, want %q", i, c.String(i), want)
		}
	}
}

func TestReplaceRegex(t *testing.T) {
	f := mustFrame(t, frame.NewStringColumn("s", []string{"Cat", "catalog", "dog"}, nil))
	out, err := Replace(f, FindOptions{Query: "cat", Replacement: "bat", CaseSensitive: false})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	c, _ := out.ColumnByName("s")
	if c.String(0) != "bat" || c.String(1) != "batalog" || c.String(2) != "dog" {
		t.Errorf("after replace: [%s %s %s]", c.String(0), c.String(1), c.String(2))
	}
}

func TestHighlightMask(t *testing.T) {
	f := mustFrame(t,
		frame.NewStringColumn("a", []string{"foo", "bar"}, nil),
		frame.NewStringColumn("b", []string{"baz", "foo"}, nil),
	)
	mask, err := Highlight(f, FindOptions{Query: "foo"})
	if err != nil {
		t.Fatalf("highlight: %v", err)
	}
	if !mask[0][0] || mask[0][1] || mask[1][0] || !mask[1][1] {
		t.Errorf("mask = %v", mask)
	}
}

func TestDescribe(t *testing.T) {
	f := mustFrame(t,
		frame.NewFloatColumn("v", []float64{1, 2, 3, 4}, nil),
		frame.NewStringColumn("s", []string{"a", "b", "c", "d"}, nil),
	)
	out, err := Describe(f)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if out.NumCols() != 2 {
		t.Fatalf("describe cols = %d, want stat plus v", out.NumCols())
	}
	if got := floatAt(t, out, "v", 0); got != 4 {
		t.Errorf("count = %v, want 4", got)
	}
	if got := floatAt(t, out, "v", 1); got != 2.5 {
		t.Errorf("mean = %v, want 2.5", got)
	}
	if got := floatAt(t, out, "v", 5); got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
}

func TestManageColumnsDedupe(t *testing.T) {
	f := mustFrame(t,
		frame.NewIntColumn("x", []int64{1}, nil),
		frame.NewIntColumn("x", []int64{2}, nil),
		frame.NewIntColumn("y", []int64{3}, nil),
	)
	out, err := ManageColumns(f, ColumnOptions{Dedupe: true})
	if err != nil {
		t.Fatalf("manage-columns: %v", err)
	}
	names := out.Names()
	if names[0] != "x" || names[1] != "x_1" || names[2] != "y" {
		t.Errorf("names = %v", names)
	}
}

package book

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
	"github.com/tabulon-io/tabulon/pkg/tabulon/plot"
	"github.com/tabulon-io/tabulon/pkg/tabulon/transform"
)

func sampleFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New(
		frame.NewStringColumn("name", []string{"a", "b", "c"}, nil),
		frame.NewFloatColumn("v", []float64{1.5, 2.5, 3.5}, nil),
	)
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func TestAddMintsUniqueNames(t *testing.T) {
	w := New()
	defer w.Close()
	w.Add("data", sampleFrame(t))
	w.Add("data", sampleFrame(t))
	w.Add("data", sampleFrame(t))
	want := []string{"data", "data_1", "data_2"}
	if got := w.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestRenameRefusesCollision(t *testing.T) {
	w := New()
	defer w.Close()
	w.Add("a", sampleFrame(t))
	w.Add("b", sampleFrame(t))
	if err := w.Rename("a", "b"); err == nil {
		t.Error("rename onto an existing name succeeded")
	}
	if err := w.Rename("a", "c"); err != nil {
		t.Errorf("rename: %v", err)
	}
	if w.Sheet("c") == nil {
		t.Error("renamed sheet not found")
	}
}

func TestSheetApplyAndUndo(t *testing.T) {
	w := New()
	defer w.Close()
	s := w.Add("data", sampleFrame(t))
	err := s.Apply("apply-column-function", transform.Params{
		"columns":  []string{"v"},
		"function": "multiply",
		"arg":      2.0,
		"inplace":  true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	c, _ := s.Frame().ColumnByName("v")
	if v, _ := c.Float(0); v != 3 {
		t.Errorf("v[0] = %v, want 3", v)
	}
	if !s.Undo() {
		t.Fatal("undo refused")
	}
	c, _ = s.Frame().ColumnByName("v")
	if v, _ := c.Float(0); v != 1.5 {
		t.Errorf("v[0] after undo = %v, want 1.5", v)
	}
}

func TestFilterAndRestore(t *testing.T) {
	w := New()
	defer w.Close()
	s := w.Add("data", sampleFrame(t))
	err := s.Filter(transform.FilterOptions{Clauses: []transform.Clause{
		{Column: "v", Op: ">", Value: "2"},
	}})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if got := s.Frame().NumRows(); got != 2 {
		t.Fatalf("filtered rows = %d, want 2", got)
	}
	if !s.View.Filtered {
		t.Error("filtered flag not set")
	}
	s.RestoreFilter()
	if got := s.Frame().NumRows(); got != 3 {
		t.Errorf("restored rows = %d, want 3", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := New()
	defer w.Close()
	s1 := w.Add("sheet1", sampleFrame(t))
	if err := s1.Config().Set("kind", "bar"); err != nil {
		t.Fatal(err)
	}
	if err := s1.Config().Set("title", "first"); err != nil {
		t.Fatal(err)
	}
	s2 := w.Add("sheet2", sampleFrame(t))
	if err := s2.Config().Set("kind", "scatter"); err != nil {
		t.Fatal(err)
	}
	fig := &plot.Figure{Kind: "line", Width: 64, Height: 48, PNG: []byte{1, 2, 3}}
	if err := w.Figures.PinAs("p1", fig); err != nil {
		t.Fatalf("pin: %v", err)
	}

	path := filepath.Join(t.TempDir(), "project"+Ext)
	if err := w.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer loaded.Close()

	if got, want := loaded.Names(), []string{"sheet1", "sheet2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sheet order = %v, want %v", got, want)
	}
	if !loaded.Sheet("sheet1").Frame().Equal(s1.Frame()) {
		t.Error("sheet1 frame did not round trip")
	}
	if got := loaded.Sheet("sheet1").Config().Kind(); got != "bar" {
		t.Errorf("sheet1 kind = %q, want bar", got)
	}
	if got := loaded.Sheet("sheet1").Config().String("title"); got != "first" {
		t.Errorf("sheet1 title = %q", got)
	}
	if got := loaded.Sheet("sheet2").Config().Kind(); got != "scatter" {
		t.Errorf("sheet2 kind = %q, want scatter", got)
	}
	if !reflect.DeepEqual(loaded.Figures.Captions(), []string{"p1"}) {
		t.Errorf("captions = %v", loaded.Figures.Captions())
	}
	pinned, _ := loaded.Figures.Get("p1")
	if pinned.Kind != "line" || len(pinned.PNG) != 3 {
		t.Error("pinned figure did not round trip")
	}
	if loaded.Filename != path {
		t.Errorf("filename = %q", loaded.Filename)
	}
}

func TestSaveStoresUnfilteredFrame(t *testing.T) {
	w := New()
	defer w.Close()
	s := w.Add("data", sampleFrame(t))
	err := s.Filter(transform.FilterOptions{Clauses: []transform.Clause{
		{Column: "v", Op: ">", Value: "2"},
	}})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	path := filepath.Join(t.TempDir(), "project"+Ext)
	if err := w.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer loaded.Close()

	got := loaded.Sheet("data")
	if got.Frame().NumRows() != 3 {
		t.Errorf("loaded rows = %d, want the unfiltered 3", got.Frame().NumRows())
	}
	if got.View.Filtered {
		t.Error("filtered flag survived the round trip")
	}
}

func TestLoadRejectsWrongExtension(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "project.zip")); err == nil {
		t.Error("wrong extension accepted")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project"+Ext)
	if err := os.WriteFile(path, []byte("not a gzip stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("garbage payload accepted")
	}
}

func TestPinnedFigureIsDecoupled(t *testing.T) {
	fs := NewFigureStore()
	fig := &plot.Figure{Kind: "line", PNG: []byte{1, 2, 3}}
	if err := fs.PinAs("p", fig); err != nil {
		t.Fatalf("pin: %v", err)
	}
	fig.PNG[0] = 99
	fig.Kind = "bar"
	pinned, _ := fs.Get("p")
	if pinned.Kind != "line" || pinned.PNG[0] != 1 {
		t.Error("pinned figure shares state with the live figure")
	}
}

func TestPoolRunsSaveAndWaitsOnClose(t *testing.T) {
	w := New()
	w.Add("data", sampleFrame(t))
	defer w.Close()

	p := NewPool(1)
	path := filepath.Join(t.TempDir(), "project"+Ext)
	if err := <-p.SaveAsync(w, path); err != nil {
		t.Fatalf("async save: %v", err)
	}
	p.Close()
	if _, err := Load(path); err != nil {
		t.Errorf("loading the async save: %v", err)
	}
}

func TestSaveAsyncSnapshotsBeforeReturning(t *testing.T) {
	w := New()
	defer w.Close()
	w.Add("data", sampleFrame(t))

	p := NewPool(1)
	path := filepath.Join(t.TempDir(), "project"+Ext)
	done := p.SaveAsync(w, path)

	// Mutations after SaveAsync returns must not reach the archive.
	for i := 0; i < 50; i++ {
		w.Add("later", sampleFrame(t))
	}
	if err := <-done; err != nil {
		t.Fatalf("async save: %v", err)
	}
	p.Close()

	back, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer back.Close()
	if got := back.Names(); len(got) != 1 || got[0] != "data" {
		t.Errorf("archived sheets = %v, want just the pre-save sheet", got)
	}
}

func TestConcatSheets(t *testing.T) {
	w := New()
	defer w.Close()
	w.Add("a", sampleFrame(t))
	w.Add("b", sampleFrame(t))
	s, err := w.Concat("a", "b")
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if s.Frame().NumRows() != 6 {
		t.Errorf("concat rows = %d, want 6", s.Frame().NumRows())
	}
}

func TestFindHighlightsAndClears(t *testing.T) {
	s := NewSheet("data", sampleFrame(t))
	defer s.Release()

	if err := s.Find(transform.FindOptions{Query: "b"}); err != nil {
		t.Fatalf("find: %v", err)
	}
	mask := s.View.Highlight
	if len(mask) != 3 || !mask[1][0] || mask[0][0] {
		t.Fatalf("highlight mask = %v, want row 1 name cell only", mask)
	}

	if err := s.Find(transform.FindOptions{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.View.Highlight != nil {
		t.Errorf("highlight not cleared")
	}
}

func TestApplyClearsHighlight(t *testing.T) {
	s := NewSheet("data", sampleFrame(t))
	defer s.Release()

	if err := s.Find(transform.FindOptions{Query: "a"}); err != nil {
		t.Fatalf("find: %v", err)
	}
	err := s.Apply("apply-column-function", transform.Params{
		"columns": []string{"v"}, "function": "multiply", "arg": 2.0, "inplace": true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.View.Highlight != nil {
		t.Errorf("highlight survived a transform")
	}
}

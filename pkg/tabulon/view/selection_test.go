package view

import (
	"testing"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

func TestSelectionUniqueOrderPreserving(t *testing.T) {
	s := NewSelection([]int{2, 0, 2, 1, 0}, []int{1, 1, 0})
	wantRows := []int{2, 0, 1}
	for i, r := range s.Rows() {
		if r != wantRows[i] {
			t.Errorf("row %d: expected %d, got %d", i, wantRows[i], r)
		}
	}
	wantCols := []int{1, 0}
	for i, c := range s.Columns() {
		if c != wantCols[i] {
			t.Errorf("col %d: expected %d, got %d", i, wantCols[i], c)
		}
	}
}

func TestSubFrameCoercion(t *testing.T) {
	f, _ := frame.New(
		frame.NewStringColumn("price", []string{"$10", "$20", "bad"}, nil),
		frame.NewStringColumn("label", []string{"aa", "bb", "cc"}, nil),
		frame.NewIntColumn("n", []int64{1, 2, 3}, nil),
	)
	s := NewSelection([]int{0, 1, 2}, []int{0, 1, 2})
	sub := s.SubFrame(f)

	if sub.NumCols() != 3 {
		t.Fatalf("expected 3 columns, got %d", sub.NumCols())
	}
	// At least one value of "price" parses, so the column is numeric.
	if sub.Column(0).DType() != frame.Float {
		t.Errorf("price: expected float, got %s", sub.Column(0).DType())
	}
	if v, ok := sub.Column(0).Float(0); !ok || v != 10 {
		t.Errorf("price[0]: expected 10, got %v", v)
	}
	if !sub.Column(0).IsNA(2) {
		t.Error("price[2]: unparseable value should be missing")
	}
	// No value of "label" parses, so the column is preserved.
	if sub.Column(1).DType() != frame.String {
		t.Errorf("label: expected string preserved, got %s", sub.Column(1).DType())
	}
}

func TestSubFrameSelectionOrder(t *testing.T) {
	f, _ := frame.New(
		frame.NewIntColumn("a", []int64{1, 2, 3}, nil),
		frame.NewIntColumn("b", []int64{4, 5, 6}, nil),
	)
	s := NewSelection([]int{2, 0}, []int{1, 0})
	sub := s.SubFrame(f)

	if sub.Names()[0] != "b" || sub.Names()[1] != "a" {
		t.Errorf("columns not in selection order: %v", sub.Names())
	}
	if v, _ := sub.Column(0).Int(0); v != 6 {
		t.Errorf("rows not in selection order: got %d", v)
	}
}

func TestEmptySelection(t *testing.T) {
	f, _ := frame.New(frame.NewIntColumn("a", []int64{1}, nil))
	s := NewSelection(nil, []int{0})
	if !s.IsEmpty() {
		t.Fatal("selection with no rows should be empty")
	}
	if sub := s.SubFrame(f); sub.NumRows() != 0 || sub.NumCols() != 0 {
		t.Error("empty selection should derive an empty frame")
	}
}

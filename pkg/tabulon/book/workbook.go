package book

import (
	"fmt"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
	"github.com/tabulon-io/tabulon/pkg/tabulon/transform"
)

// Workbook is an ordered collection of uniquely named sheets plus the
// pinned figures.
type Workbook struct {
	sheets []*Sheet
	// Figures holds plots pinned by caption.
	Figures *FigureStore
	// Filename is the project path once saved or loaded.
	Filename string
}

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{Figures: NewFigureStore()}
}

// Add wraps a frame into a new sheet. A duplicate name gets a numeric
// suffix, the same scheme column deduplication uses.
func (w *Workbook) Add(name string, f *frame.Frame) *Sheet {
	if name == "" {
		name = fmt.Sprintf("sheet%d", len(w.sheets)+1)
	}
	s := NewSheet(w.mintName(name), f)
	w.sheets = append(w.sheets, s)
	return s
}

func (w *Workbook) mintName(name string) string {
	if w.Sheet(name) == nil {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if w.Sheet(candidate) == nil {
			return candidate
		}
	}
}

// Sheet finds a sheet by name, nil when absent.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Sheets returns the sheets in order.
func (w *Workbook) Sheets() []*Sheet { return w.sheets }

// Names lists the sheet names in order.
func (w *Workbook) Names() []string {
	out := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		out[i] = s.name
	}
	return out
}

// Remove drops a sheet and releases its scratch file.
func (w *Workbook) Remove(name string) error {
	for i, s := range w.sheets {
		if s.name == name {
			s.Release()
			w.sheets = append(w.sheets[:i], w.sheets[i+1:]...)
			return nil
		}
	}
	return tabulon.Errorf("workbook.remove", tabulon.ErrUserInput, "no sheet %q", name)
}

// Rename changes a sheet's name, refusing collisions.
func (w *Workbook) Rename(oldName, newName string) error {
	s := w.Sheet(oldName)
	if s == nil {
		return tabulon.Errorf("workbook.rename", tabulon.ErrUserInput, "no sheet %q", oldName)
	}
	if newName == "" {
		return tabulon.Errorf("workbook.rename", tabulon.ErrUserInput, "empty sheet name")
	}
	if other := w.Sheet(newName); other != nil && other != s {
		return tabulon.Errorf("workbook.rename", tabulon.ErrUserInput, "sheet %q already exists", newName)
	}
	s.name = newName
	return nil
}

// Copy duplicates a sheet under a minted name.
func (w *Workbook) Copy(name string) (*Sheet, error) {
	src := w.Sheet(name)
	if src == nil {
		return nil, tabulon.Errorf("workbook.copy", tabulon.ErrUserInput, "no sheet %q", name)
	}
	dup := w.Add(name, src.Frame().Copy())
	dup.config = src.config.Copy()
	dup.View = src.View
	return dup, nil
}

// Concat stacks two sheets' frames into a new sheet.
func (w *Workbook) Concat(a, b string) (*Sheet, error) {
	return w.combine(a, b, transform.MergeOptions{Op: "concat"})
}

// Merge joins two sheets' frames into a new sheet.
func (w *Workbook) Merge(a, b string, opts transform.MergeOptions) (*Sheet, error) {
	opts.Op = "merge"
	return w.combine(a, b, opts)
}

func (w *Workbook) combine(a, b string, opts transform.MergeOptions) (*Sheet, error) {
	left, right := w.Sheet(a), w.Sheet(b)
	if left == nil || right == nil {
		return nil, tabulon.Errorf("workbook.combine", tabulon.ErrUserInput, "both sheets must exist")
	}
	merged, err := transform.Merge(left.Frame(), right.Frame(), opts)
	if err != nil {
		return nil, err
	}
	return w.Add(a+"+"+b, merged), nil
}

// Close releases every sheet's scratch file.
func (w *Workbook) Close() {
	for _, s := range w.sheets {
		s.Release()
	}
	w.sheets = nil
}

// Package book assembles sheets into a workbook: named frames with
// their plot configuration, view state and pinned figures, saved to and
// loaded from a compressed project archive.
package book

import (
	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
	"github.com/tabulon-io/tabulon/pkg/tabulon/plot"
	"github.com/tabulon-io/tabulon/pkg/tabulon/transform"
	"github.com/tabulon-io/tabulon/pkg/tabulon/view"
)

// ViewState captures how the grid displays a sheet; it persists with
// the project.
type ViewState struct {
	ColumnOrder  []string       `json:"column_order,omitempty"`
	ColumnWidths map[string]int `json:"column_widths,omitempty"`
	FontSize     int            `json:"font_size,omitempty"`
	Zoom         float64        `json:"zoom,omitempty"`
	Filtered     bool           `json:"filtered,omitempty"`
	// Highlight marks cells matched by the last find, row-major.
	Highlight [][]bool `json:"highlight,omitempty"`
}

// clone detaches the slice and map fields so a snapshot does not share
// storage with the live view.
func (v ViewState) clone() ViewState {
	out := v
	out.ColumnOrder = append([]string(nil), v.ColumnOrder...)
	if v.ColumnWidths != nil {
		out.ColumnWidths = make(map[string]int, len(v.ColumnWidths))
		for k, w := range v.ColumnWidths {
			out.ColumnWidths[k] = w
		}
	}
	if v.Highlight != nil {
		out.Highlight = make([][]bool, len(v.Highlight))
		for i, row := range v.Highlight {
			out.Highlight[i] = append([]bool(nil), row...)
		}
	}
	return out
}

// Sheet is one named frame plus its plot configuration, view state,
// optional derived sub-frame and last rendered figure.
type Sheet struct {
	name   string
	store  *frame.Store
	config *plot.Config

	// original retains the unfiltered frame while a filter mask is
	// displayed.
	original *frame.Frame
	sub      *frame.Frame
	figure   *plot.Figure

	View ViewState
}

// NewSheet wraps a frame into a sheet with default config and view.
func NewSheet(name string, f *frame.Frame) *Sheet {
	cfg := plot.NewConfig()
	cfg.Update(f)
	return &Sheet{
		name:   name,
		store:  frame.NewStore(f),
		config: cfg,
		View:   ViewState{Zoom: 1},
	}
}

// Name returns the sheet name; renames go through the workbook so
// uniqueness holds.
func (s *Sheet) Name() string { return s.name }

// Frame returns the live frame. Callers treat it as a read-only
// snapshot; mutations go through Apply.
func (s *Sheet) Frame() *frame.Frame { return s.store.Frame() }

// Store exposes the frame store for undo queries.
func (s *Sheet) Store() *frame.Store { return s.store }

// Config returns the sheet's plot configuration.
func (s *Sheet) Config() *plot.Config { return s.config }

// Apply runs a catalogue transform through the store so it is
// undoable; a failed transform leaves the frame unchanged.
func (s *Sheet) Apply(name string, params transform.Params) error {
	t, ok := transform.Lookup(name)
	if !ok {
		return tabulon.Errorf("sheet.apply", tabulon.ErrUserInput, "unknown transform %q", name)
	}
	err := s.store.Mutate(func(f *frame.Frame) (*frame.Frame, error) {
		return t.Apply(f, params)
	})
	if err != nil {
		return err
	}
	s.View.Highlight = nil
	s.config.Update(s.store.Frame())
	return nil
}

// Undo rolls the frame back one step.
func (s *Sheet) Undo() bool {
	ok := s.store.Undo()
	if ok {
		s.View.Highlight = nil
		s.config.Update(s.store.Frame())
	}
	return ok
}

// Filter masks the displayed frame, keeping the original for restore.
func (s *Sheet) Filter(opts transform.FilterOptions) error {
	live := s.store.Frame()
	mask, err := transform.FilterMask(live, opts)
	if err != nil {
		return err
	}
	if !s.View.Filtered {
		s.original = live.Copy()
	}
	s.store.Replace(live.Filter(mask))
	s.View.Filtered = true
	return nil
}

// RestoreFilter puts the unfiltered frame back.
func (s *Sheet) RestoreFilter() {
	if !s.View.Filtered || s.original == nil {
		return
	}
	s.store.Replace(s.original)
	s.original = nil
	s.View.Filtered = false
}

// Find highlights matching cells in the view state; an empty query
// clears the highlight.
func (s *Sheet) Find(opts transform.FindOptions) error {
	if opts.Query == "" {
		s.View.Highlight = nil
		return nil
	}
	mask, err := transform.Highlight(s.store.Frame(), opts)
	if err != nil {
		return err
	}
	s.View.Highlight = mask
	return nil
}

// SetSelection derives the sub-frame from a grid selection.
func (s *Sheet) SetSelection(sel view.Selection) {
	if sel.IsEmpty() {
		s.sub = nil
		return
	}
	s.sub = sel.SubFrame(s.store.Frame())
}

// SubFrame returns the derived sub-frame, or nil when no selection is
// active.
func (s *Sheet) SubFrame() *frame.Frame { return s.sub }

// Plot renders the selection (or the whole frame) with the sheet's
// configuration and keeps the figure on the sheet.
func (s *Sheet) Plot(engine *plot.Engine) (*plot.Figure, error) {
	target := s.sub
	if target == nil {
		target = s.store.Frame()
	}
	fig, err := engine.Render(target, s.config)
	if err != nil {
		return nil, err
	}
	s.figure = fig
	return fig, nil
}

// Figure returns the last rendered figure, nil before the first plot.
func (s *Sheet) Figure() *plot.Figure { return s.figure }

// displayFrame is the frame as the archive stores it: unfiltered and
// with columns in displayed order.
func (s *Sheet) displayFrame() *frame.Frame {
	f := s.store.Frame()
	if s.View.Filtered && s.original != nil {
		f = s.original
	}
	f = f.Copy()
	if len(s.View.ColumnOrder) > 0 {
		f.ReorderColumns(s.View.ColumnOrder)
	}
	return f
}

// Release frees the undo scratch file.
func (s *Sheet) Release() { s.store.Release() }

package book

import (
	"sort"
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/plot"
)

// FigureStore keeps plots pinned by caption. Pinning deep-copies the
// figure so later re-renders on the sheet cannot change it.
type FigureStore struct {
	figures map[string]*plot.Figure
}

// NewFigureStore returns an empty store.
func NewFigureStore() *FigureStore {
	return &FigureStore{figures: map[string]*plot.Figure{}}
}

// Pin stores a copy of the figure under "<sheet>-<HH:MM:SS>" and
// returns the caption.
func (fs *FigureStore) Pin(sheetName string, fig *plot.Figure) (string, error) {
	caption := sheetName + "-" + time.Now().Format("15:04:05")
	if err := fs.PinAs(caption, fig); err != nil {
		return "", err
	}
	return caption, nil
}

// PinAs stores a copy of the figure under an explicit caption.
func (fs *FigureStore) PinAs(caption string, fig *plot.Figure) error {
	var pinned plot.Figure
	if err := deepcopy.Copy(&pinned, fig); err != nil {
		return tabulon.WrapErr("figures.pin", tabulon.ErrComputation, err)
	}
	pinned.Caption = caption
	fs.figures[caption] = &pinned
	return nil
}

// Get looks a pinned figure up by caption.
func (fs *FigureStore) Get(caption string) (*plot.Figure, bool) {
	fig, ok := fs.figures[caption]
	return fig, ok
}

// Remove drops a pinned figure.
func (fs *FigureStore) Remove(caption string) { delete(fs.figures, caption) }

// Captions lists the pinned captions, sorted.
func (fs *FigureStore) Captions() []string {
	out := make([]string, 0, len(fs.figures))
	for c := range fs.figures {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of pinned figures.
func (fs *FigureStore) Len() int { return len(fs.figures) }

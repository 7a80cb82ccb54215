package tabio

import (
	"strings"

	"github.com/atotto/clipboard"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// ReadClipboard parses tab separated text from the system clipboard,
// which is what spreadsheets put there on copy.
func ReadClipboard(opts CSVOptions) (*frame.Frame, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, tabulon.WrapErr("tabio.clipboard", tabulon.ErrIO, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, tabulon.Errorf("tabio.clipboard", tabulon.ErrUserInput, "clipboard holds no tabular data")
	}
	opts.Sep = '\t'
	return readCSVFrom(strings.NewReader(text), opts, 0)
}

// WriteClipboard renders a frame as tab separated text so it pastes
// into a spreadsheet.
func WriteClipboard(f *frame.Frame) error {
	var b strings.Builder
	for _, rec := range frameRecords(f) {
		b.WriteString(strings.Join(rec, "\t"))
		b.WriteByte('\n')
	}
	if err := clipboard.WriteAll(b.String()); err != nil {
		return tabulon.WrapErr("tabio.clipboard", tabulon.ErrIO, err)
	}
	return nil
}

package tabio

import (
	"path/filepath"
	"strings"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// ReadFile dispatches on the file extension. Tab separated files get
// the tab separator unless the caller set one.
func ReadFile(path string, opts CSVOptions) (*frame.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(path, opts)
	case ".tsv":
		if opts.Sep == 0 {
			opts.Sep = '\t'
		}
		return ReadCSV(path, opts)
	case ".xlsx", ".xlsm":
		return ReadExcel(path, "", opts)
	}
	return nil, tabulon.Errorf("tabio.open", tabulon.ErrUserInput, "unsupported file type %q", filepath.Ext(path))
}

// WriteFile dispatches on the file extension like ReadFile.
func WriteFile(f *frame.Frame, path string, opts CSVOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return WriteCSV(f, path, opts)
	case ".tsv":
		if opts.Sep == 0 {
			opts.Sep = '\t'
		}
		return WriteCSV(f, path, opts)
	case ".xlsx":
		return WriteExcel(f, path, "")
	}
	return tabulon.Errorf("tabio.open", tabulon.ErrUserInput, "unsupported file type %q", filepath.Ext(path))
}

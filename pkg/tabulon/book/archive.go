package book

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
	"github.com/tabulon-io/tabulon/pkg/tabulon/plot"
)

// Ext is the project archive extension.
const Ext = ".txpl"

const archiveVersion = 1

// archiveDoc is the on-disk project document, gzip-compressed JSON.
// Decoding ignores unknown keys so newer archives still load.
type archiveDoc struct {
	Version int                     `json:"version"`
	Sheets  []sheetDoc              `json:"sheets"`
	Plots   map[string]*plot.Figure `json:"plots,omitempty"`
}

type sheetDoc struct {
	Name  string       `json:"name"`
	Table *frame.Frame `json:"table"`
	Meta  sheetMeta    `json:"meta"`
}

type sheetMeta struct {
	Kwds     map[string]map[string]interface{} `json:"kwds,omitempty"`
	View     ViewState                         `json:"view"`
	SubFrame *frame.Frame                      `json:"subframe,omitempty"`
}

// snapshot builds the archive document from the live workbook. Every
// piece is detached: frames are copied and view slices cloned, so the
// document can be written from another goroutine while the workbook
// keeps mutating.
func (w *Workbook) snapshot() archiveDoc {
	doc := archiveDoc{
		Version: archiveVersion,
		Plots:   map[string]*plot.Figure{},
	}
	for _, s := range w.sheets {
		meta := sheetMeta{
			Kwds: s.config.AllKwds(),
			View: s.View.clone(),
		}
		if s.sub != nil {
			meta.SubFrame = s.sub.Copy()
		}
		meta.View.Filtered = false
		doc.Sheets = append(doc.Sheets, sheetDoc{
			Name:  s.name,
			Table: s.displayFrame(),
			Meta:  meta,
		})
	}
	for _, caption := range w.Figures.Captions() {
		fig, _ := w.Figures.Get(caption)
		doc.Plots[caption] = fig
	}
	return doc
}

// Save writes the workbook to path. Filtered sheets are stored
// unfiltered with their columns in displayed order; the filtered flag
// itself resets so a reload starts clean.
func (w *Workbook) Save(path string) error {
	if !strings.EqualFold(filepath.Ext(path), Ext) {
		return tabulon.Errorf("book.save", tabulon.ErrFormat, "project files use the %s extension, got %q", Ext, filepath.Ext(path))
	}
	if err := writeDoc(w.snapshot(), path); err != nil {
		return err
	}
	w.Filename = path
	return nil
}

func writeDoc(doc archiveDoc, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return tabulon.WrapErr("book.save", tabulon.ErrIO, err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		zw.Close()
		return tabulon.WrapErr("book.save", tabulon.ErrIO, err)
	}
	if err := zw.Close(); err != nil {
		return tabulon.WrapErr("book.save", tabulon.ErrIO, err)
	}
	if err := file.Sync(); err != nil {
		return tabulon.WrapErr("book.save", tabulon.ErrIO, err)
	}
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"sheets": len(doc.Sheets),
		"plots":  len(doc.Plots),
	}).Info("project saved")
	return nil
}

// Load reads a workbook from path. A wrong extension or an unreadable
// payload refuses with a format error.
func Load(path string) (*Workbook, error) {
	if !strings.EqualFold(filepath.Ext(path), Ext) {
		return nil, tabulon.Errorf("book.load", tabulon.ErrFormat, "project files use the %s extension, got %q", Ext, filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, tabulon.WrapErr("book.load", tabulon.ErrIO, err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, tabulon.WrapErr("book.load", tabulon.ErrFormat, err)
	}
	defer zr.Close()

	var doc archiveDoc
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, tabulon.WrapErr("book.load", tabulon.ErrFormat, err)
	}

	w := New()
	for _, sd := range doc.Sheets {
		table := sd.Table
		if table == nil {
			table = frame.Empty()
		}
		s := w.Add(sd.Name, table)
		s.config.SetKwds(flattenKwds(sd.Meta.Kwds))
		s.config.Update(table)
		s.View = sd.Meta.View
		s.sub = sd.Meta.SubFrame
	}
	for caption, fig := range doc.Plots {
		if fig == nil {
			continue
		}
		if err := w.Figures.PinAs(caption, fig); err != nil {
			return nil, err
		}
	}
	w.Filename = path
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"sheets": len(w.sheets),
	}).Info("project loaded")
	return w, nil
}

func flattenKwds(groups map[string]map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, group := range groups {
		for name, v := range group {
			out[name] = v
		}
	}
	return out
}

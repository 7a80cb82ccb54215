// Package transform implements the catalogue of declarative table
// transformations: cleaning, type conversion, column arithmetic,
// windowing, filling, reshaping, merging, string and datetime
// operations. Every transform is a pure function of (frame, parameters);
// callers invoke them through a frame store so each one is undoable.
package transform

import (
	"fmt"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// Params carries the parameters of one transform invocation, keyed by
// the names in the transform's schema.
type Params map[string]interface{}

// String fetches a string parameter with a default.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int fetches an integer parameter with a default.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Float fetches a float parameter with a default.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Bool fetches a boolean parameter with a default.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Strings fetches a string-list parameter.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	}
	return nil
}

// ParamKind tells a parameter dialog what widget to generate.
type ParamKind string

const (
	// KindString is a free text entry.
	KindString ParamKind = "string"
	// KindInt is an integer spinner.
	KindInt ParamKind = "int"
	// KindFloat is a float entry.
	KindFloat ParamKind = "float"
	// KindBool is a checkbox.
	KindBool ParamKind = "bool"
	// KindChoice is a dropdown over Choices.
	KindChoice ParamKind = "choice"
	// KindColumns is a multi-select over the frame's column names.
	KindColumns ParamKind = "columns"
)

// ParamSpec describes one parameter of a transform; dialogs are
// generated from these entries.
type ParamSpec struct {
	// Name is the parameter key in Params.
	Name string
	// Kind selects the widget type.
	Kind ParamKind
	// Choices enumerates the admissible values for KindChoice.
	Choices []string
	// Default is the value used when the parameter is absent.
	Default interface{}
}

// Transform is one catalogue entry: a name, a parameter schema and a
// pure function over (frame, params).
type Transform struct {
	Name   string
	Params []ParamSpec
	Apply  func(*frame.Frame, Params) (*frame.Frame, error)
}

// Catalogue returns the built-in transforms keyed by name.
func Catalogue() map[string]Transform {
	list := []Transform{
		cleanEntry(),
		duplicatesEntry(),
		convertNumericEntry(),
		convertTypesEntry(),
		convertColumnNamesEntry(),
		applyFunctionEntry(),
		windowEntry(),
		fillDataEntry(),
		fillDatesEntry(),
		fillStringsEntry(),
		convertDatesEntry(),
		applyStringEntry(),
		resampleEntry(),
		transposeEntry(),
		pivotEntry(),
		aggregateEntry(),
		meltEntry(),
		mergeEntry(),
		manageColumnsEntry(),
		filterEntry(),
		findReplaceEntry(),
		binEntry(),
	}
	out := make(map[string]Transform, len(list))
	for _, t := range list {
		out[t.Name] = t
	}
	return out
}

// Lookup finds a catalogue transform by name.
func Lookup(name string) (Transform, bool) {
	t, ok := Catalogue()[name]
	return t, ok
}

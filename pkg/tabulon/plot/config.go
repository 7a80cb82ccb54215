// Package plot turns a selected sub-frame and a plot configuration into
// a rendered figure. Options live in four closed groups; each plot kind
// forwards only its whitelisted options to the renderer.
package plot

import (
	"sort"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// Group names one of the four option groups.
type Group string

const (
	GroupGeneral Group = "general"
	GroupFormat  Group = "format"
	GroupLabels  Group = "labels"
	GroupAxes    Group = "axes"
)

// Kinds enumerates every plot kind the engine dispatches on.
var Kinds = []string{
	"line", "bar", "barh", "scatter", "pie", "histogram", "boxplot",
	"violinplot", "dotplot", "heatmap", "area", "hexbin",
	"scatter_matrix", "density", "radviz", "venn", "contour", "imshow",
}

// Styles and Colormaps list the admissible format choices.
var (
	Styles    = []string{"default", "classic", "dark", "minimal"}
	Markers   = []string{"", "o", "s", "^", "v", "d", "x", "+", "."}
	Linestyle = []string{"-", "--", "-.", ":", ""}
	Colormaps = []string{
		"viridis", "plasma", "inferno", "magma", "Spectral", "coolwarm",
		"Blues", "Greens", "Reds", "Greys",
	}
	Formatters = []string{"auto", "date", "percent", "eng", "sci-notation"}
	Layouts    = []string{"single", "multiple", "twin-axes"}
	Scales     = []string{"linear", "log"}
)

// optionSpec declares one option: its group, default and admissible
// values. A nil check accepts any value of the default's type.
type optionSpec struct {
	group Group
	def   interface{}
	// choices enumerates string options; nil leaves the value free.
	choices []string
	// columns marks options whose admissible values are column names,
	// refreshed by Update.
	columns bool
	check   func(interface{}) bool
}

func choiceSpec(g Group, def string, choices []string) optionSpec {
	return optionSpec{group: g, def: def, choices: choices}
}

func boolSpec(g Group) optionSpec { return optionSpec{group: g, def: false} }
func intSpec(g Group, def int) optionSpec {
	return optionSpec{group: g, def: def}
}
func floatSpec(g Group, def float64) optionSpec {
	return optionSpec{group: g, def: def}
}
func stringSpec(g Group, def string) optionSpec {
	return optionSpec{group: g, def: def}
}
func columnSpec(g Group) optionSpec {
	return optionSpec{group: g, def: "", columns: true}
}

// optionSpecs is the closed catalogue of plot options.
var optionSpecs = map[string]optionSpec{
	// general
	"kind":        choiceSpec(GroupGeneral, "line", Kinds),
	"axes_layout": choiceSpec(GroupGeneral, "single", Layouts),
	"bins":        intSpec(GroupGeneral, 10),
	"stacked":     boolSpec(GroupGeneral),
	"use_index":   boolSpec(GroupGeneral),
	"errorbars":   boolSpec(GroupGeneral),
	"legend":      boolSpec(GroupGeneral),
	"sharex":      boolSpec(GroupGeneral),
	"sharey":      boolSpec(GroupGeneral),
	"logx":        boolSpec(GroupGeneral),
	"logy":        boolSpec(GroupGeneral),
	"by":          columnSpec(GroupGeneral),
	"by2":         columnSpec(GroupGeneral),
	"labelcol":    columnSpec(GroupGeneral),
	"pointsizes":  columnSpec(GroupGeneral),
	"clrcol":      columnSpec(GroupGeneral),
	"bw":          boolSpec(GroupGeneral),

	// format
	"style":       choiceSpec(GroupFormat, "default", Styles),
	"marker":      choiceSpec(GroupFormat, "o", Markers),
	"linestyle":   choiceSpec(GroupFormat, "-", Linestyle),
	"linewidth":   floatSpec(GroupFormat, 1.5),
	"ms":          intSpec(GroupFormat, 6),
	"grid":        boolSpec(GroupFormat),
	"cscale":      choiceSpec(GroupFormat, "linear", Scales),
	"colorbar":    boolSpec(GroupFormat),
	"showxlabels": optionSpec{group: GroupFormat, def: true},
	"showylabels": optionSpec{group: GroupFormat, def: true},
	"alpha": optionSpec{group: GroupFormat, def: 0.9, check: func(v interface{}) bool {
		f, ok := v.(float64)
		return ok && f >= 0 && f <= 1
	}},
	"colormap": choiceSpec(GroupFormat, "viridis", Colormaps),

	// labels
	"title":      stringSpec(GroupLabels, ""),
	"xlabel":     stringSpec(GroupLabels, ""),
	"ylabel":     stringSpec(GroupLabels, ""),
	"rotx":       intSpec(GroupLabels, 0),
	"font":       stringSpec(GroupLabels, ""),
	"fontsize":   intSpec(GroupLabels, 11),
	"fontweight": stringSpec(GroupLabels, "normal"),
	"color":      stringSpec(GroupLabels, ""),

	// axes
	"rows":        intSpec(GroupAxes, 0),
	"cols":        intSpec(GroupAxes, 0),
	"xmin":        stringSpec(GroupAxes, ""),
	"xmax":        stringSpec(GroupAxes, ""),
	"ymin":        stringSpec(GroupAxes, ""),
	"ymax":        stringSpec(GroupAxes, ""),
	"major_x":     intSpec(GroupAxes, 0),
	"minor_x":     intSpec(GroupAxes, 0),
	"major_y":     intSpec(GroupAxes, 0),
	"minor_y":     intSpec(GroupAxes, 0),
	"formatter":   choiceSpec(GroupAxes, "auto", Formatters),
	"currency":    stringSpec(GroupAxes, ""),
	"precision":   intSpec(GroupAxes, 2),
	"date_format": stringSpec(GroupAxes, ""),
}

// Config holds the current value of every plot option plus the column
// names admissible for the column-valued options.
type Config struct {
	values  map[string]interface{}
	columns []string
}

// NewConfig builds a config with every option at its default.
func NewConfig() *Config {
	c := &Config{values: make(map[string]interface{}, len(optionSpecs))}
	for name, spec := range optionSpecs {
		c.values[name] = spec.def
	}
	return c
}

// Set assigns an option, refusing unknown names and inadmissible
// values.
func (c *Config) Set(name string, v interface{}) error {
	spec, ok := optionSpecs[name]
	if !ok {
		return tabulon.Errorf("plot.config", tabulon.ErrUserInput, "unknown plot option %q", name)
	}
	v = normalize(spec.def, v)
	if spec.choices != nil {
		s, ok := v.(string)
		if !ok || !contains(spec.choices, s) {
			return tabulon.Errorf("plot.config", tabulon.ErrUserInput, "value %v not admissible for %q", v, name)
		}
	}
	if spec.columns {
		s, ok := v.(string)
		if !ok || (s != "" && c.columns != nil && !contains(c.columns, s)) {
			return tabulon.Errorf("plot.config", tabulon.ErrUserInput, "%q is not a column of the frame", v)
		}
	}
	if spec.check != nil && !spec.check(v) {
		return tabulon.Errorf("plot.config", tabulon.ErrUserInput, "value %v out of range for %q", v, name)
	}
	c.values[name] = v
	return nil
}

// normalize widens numeric literals to the option's default type so a
// JSON-decoded float can land in an int option and vice versa.
func normalize(def, v interface{}) interface{} {
	switch def.(type) {
	case int:
		switch n := v.(type) {
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	case float64:
		switch n := v.(type) {
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return v
}

// Get reads an option value; unknown names read as nil.
func (c *Config) Get(name string) interface{} { return c.values[name] }

// Kind is the configured plot kind.
func (c *Config) Kind() string {
	s, _ := c.values["kind"].(string)
	return s
}

func (c *Config) String(name string) string {
	s, _ := c.values[name].(string)
	return s
}

func (c *Config) Bool(name string) bool {
	b, _ := c.values[name].(bool)
	return b
}

func (c *Config) Int(name string) int {
	switch v := c.values[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (c *Config) Float(name string) float64 {
	switch v := c.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Kwds returns one option group as a map, keys sorted for stable
// serialisation.
func (c *Config) Kwds(g Group) map[string]interface{} {
	out := map[string]interface{}{}
	for name, spec := range optionSpecs {
		if spec.group == g {
			out[name] = c.values[name]
		}
	}
	return out
}

// AllKwds returns every group keyed by group name.
func (c *Config) AllKwds() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		string(GroupGeneral): c.Kwds(GroupGeneral),
		string(GroupFormat):  c.Kwds(GroupFormat),
		string(GroupLabels):  c.Kwds(GroupLabels),
		string(GroupAxes):    c.Kwds(GroupAxes),
	}
}

// SetKwds assigns a batch of options, skipping unknown names so
// archives written by newer versions still load.
func (c *Config) SetKwds(kwds map[string]interface{}) {
	names := make([]string, 0, len(kwds))
	for name := range kwds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := optionSpecs[name]; !ok {
			continue
		}
		// ignore inadmissible stored values, the default stands
		_ = c.Set(name, kwds[name])
	}
}

// Update refreshes the admissible column names for by, by2, labelcol,
// clrcol and pointsizes from the frame, keeping the empty sentinel. An
// option pointing at a vanished column resets to empty.
func (c *Config) Update(f *frame.Frame) {
	c.columns = f.Names()
	for name, spec := range optionSpecs {
		if !spec.columns {
			continue
		}
		if s, _ := c.values[name].(string); s != "" && !contains(c.columns, s) {
			c.values[name] = ""
		}
	}
}

// ColumnChoices lists the values an option dialog offers for the
// column-valued options: the empty sentinel plus every column name.
func (c *Config) ColumnChoices() []string {
	return append([]string{""}, c.columns...)
}

// Copy returns an independent config.
func (c *Config) Copy() *Config {
	out := &Config{
		values:  make(map[string]interface{}, len(c.values)),
		columns: append([]string(nil), c.columns...),
	}
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

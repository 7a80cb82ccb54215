// Package tabulon provides the core of a spreadsheet-style data
// exploration tool: typed tabular frames with single-step undo, a
// catalogue of declarative transforms, a configurable plot engine and a
// round-trippable project archive.
package tabulon

import (
	"github.com/spf13/viper"
)

// Settings holds user preferences. The value is immutable: a change
// produces a new Settings and the caller rebinds. Constructors across the
// module accept a Settings value rather than reading globals.
type Settings struct {
	// FontFamily is the grid display font.
	FontFamily string
	// FontSize is the grid font point size.
	FontSize int
	// ColumnWidth is the default column width in pixels.
	ColumnWidth int
	// TimeFormat is the display format for datetime cells (Go layout).
	TimeFormat string
	// Precision is the number of decimals shown for floats.
	Precision int
	// IconSize is the toolbar icon size in pixels.
	IconSize int
	// PlotStyle is the default plot style name.
	PlotStyle string
	// DPI is the figure raster resolution.
	DPI int
	// PlotBackground is the figure face colour (hex).
	PlotBackground string
	// Theme is the UI theme name.
	Theme string
	// ShowPlotter toggles the plot viewer on startup.
	ShowPlotter bool
	// RecentProjects lists recently opened project files, most recent first.
	RecentProjects []string
	// RecentURLs lists recently imported URLs, most recent first.
	RecentURLs []string
	// WindowWidth and WindowHeight record the last window size.
	WindowWidth  int
	WindowHeight int
}

// maxRecent bounds the recent-list lengths.
const maxRecent = 5

// DefaultSettings returns the stock preference values.
func DefaultSettings() Settings {
	return Settings{
		FontFamily:     "monospace",
		FontSize:       12,
		ColumnWidth:    80,
		TimeFormat:     "2006-01-02 15:04:05",
		Precision:      6,
		IconSize:       26,
		PlotStyle:      "default",
		DPI:            100,
		PlotBackground: "#FFFFFF",
		Theme:          "light",
		ShowPlotter:    false,
		WindowWidth:    1024,
		WindowHeight:   768,
	}
}

// LoadSettings reads preferences from the named config file (viper
// format inferred from the extension). Missing file or missing keys fall
// back to defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	v := viper.New()
	v.SetConfigFile(path)
	setViperDefaults(v, s)
	if err := v.ReadInConfig(); err != nil {
		// A missing file is not an error: defaults apply.
		return s, nil
	}
	s.FontFamily = v.GetString("font.family")
	s.FontSize = v.GetInt("font.size")
	s.ColumnWidth = v.GetInt("grid.columnwidth")
	s.TimeFormat = v.GetString("grid.timeformat")
	s.Precision = v.GetInt("grid.precision")
	s.IconSize = v.GetInt("ui.iconsize")
	s.PlotStyle = v.GetString("plot.style")
	s.DPI = v.GetInt("plot.dpi")
	s.PlotBackground = v.GetString("plot.background")
	s.Theme = v.GetString("ui.theme")
	s.ShowPlotter = v.GetBool("ui.showplotter")
	s.RecentProjects = bound(v.GetStringSlice("recent.projects"))
	s.RecentURLs = bound(v.GetStringSlice("recent.urls"))
	s.WindowWidth = v.GetInt("window.width")
	s.WindowHeight = v.GetInt("window.height")
	return s, nil
}

// Save writes the preferences back to the named config file.
func (s Settings) Save(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	setViperDefaults(v, s)
	v.Set("recent.projects", bound(s.RecentProjects))
	v.Set("recent.urls", bound(s.RecentURLs))
	return v.WriteConfig()
}

func setViperDefaults(v *viper.Viper, s Settings) {
	v.SetDefault("font.family", s.FontFamily)
	v.SetDefault("font.size", s.FontSize)
	v.SetDefault("grid.columnwidth", s.ColumnWidth)
	v.SetDefault("grid.timeformat", s.TimeFormat)
	v.SetDefault("grid.precision", s.Precision)
	v.SetDefault("ui.iconsize", s.IconSize)
	v.SetDefault("plot.style", s.PlotStyle)
	v.SetDefault("plot.dpi", s.DPI)
	v.SetDefault("plot.background", s.PlotBackground)
	v.SetDefault("ui.theme", s.Theme)
	v.SetDefault("ui.showplotter", s.ShowPlotter)
	v.SetDefault("window.width", s.WindowWidth)
	v.SetDefault("window.height", s.WindowHeight)
}

// WithRecentProject returns a copy with path promoted to the front of the
// recent-project list.
func (s Settings) WithRecentProject(path string) Settings {
	s.RecentProjects = promote(s.RecentProjects, path)
	return s
}

// WithRecentURL returns a copy with url promoted to the front of the
// recent-URL list.
func (s Settings) WithRecentURL(url string) Settings {
	s.RecentURLs = promote(s.RecentURLs, url)
	return s
}

// WithoutRecentProject returns a copy with path pruned from the
// recent-project list (used after a failed open).
func (s Settings) WithoutRecentProject(path string) Settings {
	s.RecentProjects = remove(s.RecentProjects, path)
	return s
}

func promote(list []string, entry string) []string {
	out := []string{entry}
	for _, e := range list {
		if e != entry {
			out = append(out, e)
		}
	}
	return bound(out)
}

func remove(list []string, entry string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if e != entry {
			out = append(out, e)
		}
	}
	return out
}

func bound(list []string) []string {
	if len(list) > maxRecent {
		return list[:maxRecent]
	}
	return list
}

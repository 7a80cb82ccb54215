package plot

// Figure is a rendered plot: the encoded image plus the configuration
// that produced it, so pinned figures survive a save/load round trip.
type Figure struct {
	// Caption identifies a pinned figure in the workbook.
	Caption string `json:"caption,omitempty"`
	// Kind is the plot kind the figure was rendered with.
	Kind string `json:"kind"`
	// Width and Height are the pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
	// Kwds holds the whitelisted options the renderer observed.
	Kwds map[string]interface{} `json:"kwds,omitempty"`
	// Warning is set when a pre-check refused to render; PNG then holds
	// the warning text painted into the axes area.
	Warning string `json:"warning,omitempty"`
	// PNG is the encoded image.
	PNG []byte `json:"png,omitempty"`
}

// Warned reports whether the figure is a warning placeholder.
func (f *Figure) Warned() bool { return f.Warning != "" }

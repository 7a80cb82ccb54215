package plot

// always lists the options meaningful for every kind.
var always = []string{
	"kind", "axes_layout", "legend", "title", "xlabel", "ylabel", "rotx",
	"font", "fontsize", "fontweight", "color", "style", "grid",
	"showxlabels", "showylabels", "rows", "cols", "xmin", "xmax", "ymin",
	"ymax", "major_x", "minor_x", "major_y", "minor_y", "formatter",
	"currency", "precision", "date_format", "by", "by2", "use_index",
	"sharex", "sharey", "bw",
}

// kindOptions lists the extra options each kind forwards to its
// renderer. An option outside the union of always and the kind's list
// is dropped before rendering.
var kindOptions = map[string][]string{
	"line":           {"linestyle", "linewidth", "marker", "ms", "alpha", "errorbars", "logx", "logy", "colormap", "stacked"},
	"bar":            {"linewidth", "alpha", "errorbars", "stacked", "logy", "colormap"},
	"barh":           {"linewidth", "alpha", "errorbars", "stacked", "logx", "colormap"},
	"scatter":        {"marker", "ms", "alpha", "logx", "logy", "colormap", "clrcol", "pointsizes", "labelcol", "cscale", "colorbar"},
	"pie":            {"colormap", "alpha"},
	"histogram":      {"bins", "alpha", "linewidth", "stacked", "logy", "colormap"},
	"boxplot":        {"linewidth", "alpha", "colormap"},
	"violinplot":     {"linewidth", "alpha", "colormap"},
	"dotplot":        {"ms", "alpha", "colormap"},
	"heatmap":        {"linewidth", "colormap", "cscale", "colorbar"},
	"area":           {"linewidth", "alpha", "stacked", "colormap"},
	"hexbin":         {"bins", "colormap", "cscale", "colorbar", "alpha"},
	"scatter_matrix": {"marker", "ms", "alpha", "bins", "colormap"},
	"density":        {"linestyle", "linewidth", "alpha", "colormap"},
	"radviz":         {"marker", "ms", "alpha", "colormap"},
	"venn":           {"alpha", "colormap"},
	"contour":        {"bins", "colormap", "cscale", "colorbar", "alpha"},
	"imshow":         {"colormap", "cscale", "colorbar", "alpha"},
}

// Whitelist returns the admissible option names for a kind.
func Whitelist(kind string) map[string]bool {
	out := map[string]bool{}
	for _, name := range always {
		out[name] = true
	}
	for _, name := range kindOptions[kind] {
		out[name] = true
	}
	return out
}

// FilterKwds drops every option a kind does not list, so the renderer
// never observes an unlisted option.
func FilterKwds(kind string, kwds map[string]interface{}) map[string]interface{} {
	allowed := Whitelist(kind)
	out := make(map[string]interface{}, len(kwds))
	for name, v := range kwds {
		if allowed[name] {
			out[name] = v
		}
	}
	return out
}

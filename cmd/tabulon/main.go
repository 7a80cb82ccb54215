// Package main provides the CLI entry point for tabulon.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/book"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
	"github.com/tabulon-io/tabulon/pkg/tabulon/plot"
	"github.com/tabulon-io/tabulon/pkg/tabulon/tabio"
	"github.com/tabulon-io/tabulon/pkg/tabulon/transform"
)

var (
	configPath string
	importPath string
	verbose    bool

	sep      string
	sheet    string
	kind     string
	output   string
	plotOpts []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabulon [project" + book.Ext + "]",
		Short: "Explore tabular data: frames, transforms, plots and project archives",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOpen,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.Flags().StringVar(&importPath, "import", "", "Import a data file on startup")

	convertCmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between CSV, TSV and Excel files",
		Args:  cobra.ExactArgs(2),
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVar(&sep, "sep", "", "Field separator for CSV input")
	convertCmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for Excel input")

	renderCmd := &cobra.Command{
		Use:   "render <input>",
		Short: "Render a plot of a data file to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&kind, "kind", "", "Plot kind (default line, or the sheet's kind for projects)")
	renderCmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to render for project input")
	renderCmd.Flags().StringVarP(&output, "output", "o", "plot.png", "Output PNG path")
	renderCmd.Flags().StringArrayVar(&plotOpts, "set", nil, "Plot option as name=value (repeatable)")

	infoCmd := &cobra.Command{
		Use:   "info <project" + book.Ext + ">",
		Short: "Summarize a project archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	rootCmd.AddCommand(convertCmd, renderCmd, infoCmd)
	cobra.OnInitialize(setupLogging)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tabulon.yaml"
	}
	return filepath.Join(dir, "tabulon", "settings.yaml")
}

// runOpen loads settings, opens the optional project argument or
// imports the optional data file, and prints a summary. A project that
// fails to open is pruned from the recent list before the error
// propagates.
func runOpen(cmd *cobra.Command, args []string) error {
	settings, err := tabulon.LoadSettings(configPath)
	if err != nil {
		return err
	}

	var w *book.Workbook
	if len(args) == 1 {
		path := args[0]
		w, err = book.Load(path)
		if err != nil {
			settings = settings.WithoutRecentProject(path)
			if saveErr := settings.Save(configPath); saveErr != nil {
				logrus.WithError(saveErr).Warn("could not update settings")
			}
			return err
		}
		settings = settings.WithRecentProject(path)
	} else {
		w = book.New()
	}
	defer w.Close()

	if importPath != "" {
		f, err := tabio.ReadFile(importPath, tabio.CSVOptions{})
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(importPath), filepath.Ext(importPath))
		w.Add(name, f)
	}

	if err := settings.Save(configPath); err != nil {
		logrus.WithError(err).Warn("could not save settings")
	}

	for _, s := range w.Sheets() {
		f := s.Frame()
		fmt.Printf("%s: %d rows, %d columns\n", s.Name(), f.NumRows(), f.NumCols())
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts := tabio.CSVOptions{}
	if sep != "" {
		opts.Sep = rune(sep[0])
	}

	in, out := args[0], args[1]
	f, err := readConvertInput(in, opts)
	if err != nil {
		return err
	}
	if err := tabio.WriteFile(f, out, opts); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"input": in, "output": out}).Info("converted")
	return nil
}

// readConvertInput accepts data files and project archives. For a
// project, --sheet picks the sheet to export; default is the first.
func readConvertInput(path string, opts tabio.CSVOptions) (*frame.Frame, error) {
	if strings.EqualFold(filepath.Ext(path), book.Ext) {
		w, err := book.Load(path)
		if err != nil {
			return nil, err
		}
		defer w.Close()
		s, err := pickSheet(w)
		if err != nil {
			return nil, err
		}
		return s.Frame().Copy(), nil
	}
	if sheet != "" && isExcel(path) {
		return tabio.ReadExcel(path, sheet, opts)
	}
	return tabio.ReadFile(path, opts)
}

func pickSheet(w *book.Workbook) (*book.Sheet, error) {
	if sheet == "" {
		sheets := w.Sheets()
		if len(sheets) == 0 {
			return nil, tabulon.Errorf("convert", tabulon.ErrUserInput, "project has no sheets")
		}
		return sheets[0], nil
	}
	s := w.Sheet(sheet)
	if s == nil {
		return nil, tabulon.Errorf("convert", tabulon.ErrUserInput, "no sheet %q in project", sheet)
	}
	return s, nil
}

func isExcel(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

func runRender(cmd *cobra.Command, args []string) error {
	settings, err := tabulon.LoadSettings(configPath)
	if err != nil {
		return err
	}
	var f *frame.Frame
	var cfg *plot.Config
	if strings.EqualFold(filepath.Ext(args[0]), book.Ext) {
		w, err := book.Load(args[0])
		if err != nil {
			return err
		}
		defer w.Close()
		s, err := pickSheet(w)
		if err != nil {
			return err
		}
		f, cfg = s.Frame(), s.Config()
	} else {
		f, err = tabio.ReadFile(args[0], tabio.CSVOptions{})
		if err != nil {
			return err
		}
		cfg = plot.NewConfig()
		cfg.Update(f)
	}
	if kind != "" {
		if err := cfg.Set("kind", kind); err != nil {
			return err
		}
	}
	for _, opt := range plotOpts {
		name, value, ok := strings.Cut(opt, "=")
		if !ok {
			return tabulon.Errorf("render", tabulon.ErrUserInput, "plot option %q is not name=value", opt)
		}
		if err := cfg.Set(name, parseOptValue(value)); err != nil {
			return err
		}
	}

	engine := plot.NewEngine(settings)
	fig, err := engine.Render(f, cfg)
	if err != nil {
		return err
	}
	if fig.Warned() {
		logrus.Warn(fig.Warning)
	}
	if err := os.WriteFile(output, fig.PNG, 0644); err != nil {
		return tabulon.WrapErr("render", tabulon.ErrIO, err)
	}
	logrus.WithField("output", output).Info("rendered")
	return nil
}

// parseOptValue types a flag value: bools and numbers before text.
func parseOptValue(s string) interface{} {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func runInfo(cmd *cobra.Command, args []string) error {
	w, err := book.Load(args[0])
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Printf("%s\n", args[0])
	for _, s := range w.Sheets() {
		f := s.Frame()
		fmt.Printf("  sheet %-20s %d rows, %d columns, kind %s\n",
			s.Name(), f.NumRows(), f.NumCols(), s.Config().Kind())
		if verbose {
			printDescribe(f)
		}
	}
	for _, caption := range w.Figures.Captions() {
		fmt.Printf("  figure %s\n", caption)
	}
	return nil
}

// printDescribe renders per-column summary statistics under a sheet
// line.
func printDescribe(f *frame.Frame) {
	stats, err := transform.Describe(f)
	if err != nil {
		logrus.WithError(err).Debug("describe failed")
		return
	}
	for r := 0; r < stats.NumRows(); r++ {
		fmt.Printf("    %-6s", stats.Column(0).String(r))
		for c := 1; c < stats.NumCols(); c++ {
			col := stats.Column(c)
			if col.IsNA(r) {
				fmt.Printf(" %12s", "-")
				continue
			}
			v, _ := col.Float(r)
			fmt.Printf(" %12.4g", v)
		}
		fmt.Println()
	}
}

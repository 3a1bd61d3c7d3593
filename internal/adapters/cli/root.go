// Package cli implements the sketch-dataset command line.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"sketchdataset/internal/adapters/localstorage"
	"sketchdataset/internal/adapters/sketchtool"
	"sketchdataset/internal/config"
	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
	"sketchdataset/internal/service"
)

var (
	version = "dev"

	configPath string
	outputDir  string
	simDir     string
	errorLog   string
	verbose    bool

	cfg config.Config

	// newSource builds the artboard source; tests replace it.
	newSource = func(c config.Config) ports.ArtboardSource {
		return sketchtool.NewClient(c.SketchtoolPath)
	}
)

var rootCmd = &cobra.Command{
	Use:   "sketch-dataset",
	Short: "Export sketch artboards and group near-duplicates",
	Long: `sketch-dataset exports every artboard of a folder of .sketch files to PNG,
groups visually near-identical artboards and renders each group as a strip
for review.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a TOML config file")
	flags.StringVar(&outputDir, "output", "", "folder receiving exported artboards (default \"output\")")
	flags.StringVar(&simDir, "sim", "", "folder receiving the group manifest and strips (default \"sim\")")
	flags.StringVar(&errorLog, "error-log", "", "file receiving export diagnostics (default \"error.txt\")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every job and bucket")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by `sketch-dataset version`.
func SetVersion(v string) {
	version = v
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		loaded.OutputDir = outputDir
	}
	if flags.Changed("sim") {
		loaded.SimDir = simDir
	}
	if flags.Changed("error-log") {
		loaded.ErrorLog = errorLog
	}
	if flags.Changed("verbose") {
		loaded.Verbose = verbose
	}
	cfg = loaded
	return nil
}

// newOrchestrator validates the config and wires the pipeline.
func newOrchestrator(cmd *cobra.Command, progress service.ProgressFunc) (*service.Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	storage := localstorage.NewLocalStorage(cfg.OutputDir, cfg.SimDir, cfg.ErrorLog)
	if err := storage.Init(cmd.Context()); err != nil {
		return nil, err
	}
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	return service.NewOrchestrator(newSource(cfg), storage, logger, service.Options{
		Workers:    cfg.Workers,
		CacheSize:  cfg.CacheSize,
		Threshold:  cfg.Threshold,
		ExportRate: cfg.ExportRate,
		Verbose:    cfg.Verbose,
		Progress:   progress,
	}), nil
}

// findSketches returns the sorted .sketch files directly inside dir.
func findSketches(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: input folder %q does not exist", domain.ErrInvalidInput, dir)
	}
	docs, err := filepath.Glob(filepath.Join(dir, "*.sketch"))
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

// progressPrinter rewrites a single status line as jobs finish.
func progressPrinter(cmd *cobra.Command) service.ProgressFunc {
	return func(done, total int) {
		cmd.Printf("\rExported %d/%d", done, total)
		if done == total {
			cmd.Println()
		}
	}
}

package cli

import (
	"github.com/spf13/cobra"
)

var (
	exportWorkers int
	exportRate    float64
)

var exportCmd = &cobra.Command{
	Use:   "export <input-dir>",
	Short: "Export every artboard of the .sketch files in a folder",
	Long: `Exports all artboards of every .sketch file directly inside input-dir to
<output>/<document>/<artboard>.png. Failing documents do not stop the batch;
their diagnostics are collected, deduplicated, in the error log.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	addExportFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&exportWorkers, "workers", "j", 8, "number of concurrent export workers")
	cmd.Flags().Float64Var(&exportRate, "rate", 0, "maximum export starts per second (0 = unlimited)")
}

func applyExportFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = exportWorkers
	}
	if cmd.Flags().Changed("rate") {
		cfg.ExportRate = exportRate
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	applyExportFlags(cmd)
	docs, err := findSketches(args[0])
	if err != nil {
		return err
	}
	o, err := newOrchestrator(cmd, progressPrinter(cmd))
	if err != nil {
		return err
	}

	summary, err := o.RunExport(cmd.Context(), docs)
	if err != nil {
		return err
	}
	cmd.Printf("Exported %d documents, %d failed. Diagnostics: %s\n",
		summary.Total, summary.Failed, summary.ErrorLogPath)
	return nil
}

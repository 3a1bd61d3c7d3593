package cli

import (
	"github.com/spf13/cobra"

	"sketchdataset/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run <input-dir>",
	Short: "Export, group and materialize in one go",
	Args:  cobra.ExactArgs(1),
	RunE:  runAll,
}

var fontsCmd = &cobra.Command{
	Use:   "fonts [error-log]",
	Short: "List fonts sketchtool could not find during export",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFonts,
}

func init() {
	addExportFlags(runCmd)
	addGroupFlags(runCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fontsCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	applyExportFlags(cmd)
	applyGroupFlags(cmd)
	docs, err := findSketches(args[0])
	if err != nil {
		return err
	}
	o, err := newOrchestrator(cmd, progressPrinter(cmd))
	if err != nil {
		return err
	}
	if err := o.Run(cmd.Context(), docs); err != nil {
		return err
	}
	cmd.Printf("Done. Groups in %s\n", cfg.SimDir)
	return nil
}

func runFonts(cmd *cobra.Command, args []string) error {
	path := cfg.ErrorLog
	if len(args) > 0 {
		path = args[0]
	}
	fonts, err := service.MissingFontsFromFile(path)
	if err != nil {
		return err
	}
	for _, font := range fonts {
		cmd.Println(font)
	}
	return nil
}

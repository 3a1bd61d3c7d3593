package cli

import (
	"github.com/spf13/cobra"
)

var (
	groupThreshold float64
	groupCacheSize int
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group exported artboards that look the same",
	Long: `Buckets exported artboards by exact pixel size, then greedily groups images
whose mean squared error against a group's first member is below the threshold.
Groups with at least two members are written to <sim>/sim_groups.json.`,
	Args: cobra.NoArgs,
	RunE: runGroup,
}

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Render each duplicate group as one strip image",
	Args:  cobra.NoArgs,
	RunE:  runMaterialize,
}

func init() {
	addGroupFlags(groupCmd)
	addGroupFlags(materializeCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(materializeCmd)
}

func addGroupFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&groupThreshold, "threshold", 500, "MSE below which two artboards are duplicates")
	cmd.Flags().IntVar(&groupCacheSize, "cache-size", 128, "number of decoded images kept in memory")
}

func applyGroupFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = groupThreshold
	}
	if cmd.Flags().Changed("cache-size") {
		cfg.CacheSize = groupCacheSize
	}
}

func runGroup(cmd *cobra.Command, _ []string) error {
	applyGroupFlags(cmd)
	o, err := newOrchestrator(cmd, nil)
	if err != nil {
		return err
	}
	_, stats, err := o.RunGrouping(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("%d images, %d size buckets, %d duplicate groups\n", stats.Images, stats.Buckets, stats.Groups)
	return nil
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	applyGroupFlags(cmd)
	o, err := newOrchestrator(cmd, nil)
	if err != nil {
		return err
	}
	written, err := o.RunMaterialize(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Wrote %d group images to %s\n", len(written), cfg.SimDir)
	return nil
}

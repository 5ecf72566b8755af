package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/banshee-data/occlusion.sim/internal/config"
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/storage/sqlite"
	"github.com/banshee-data/occlusion.sim/internal/version"
)

type rootOptions struct {
	dataroot string
	dbPath   string
	quiet    bool
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}
	root := &cobra.Command{
		Use:           "occlude",
		Short:         "Simulate sensor occlusion on radar and LiDAR point clouds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if ro.quiet {
				monitoring.SetLogger(nil)
			} else {
				monitoring.SetLogger(monitoring.NewLogger(cmd.ErrOrStderr(), ""))
			}
		},
	}
	root.PersistentFlags().StringVar(&ro.dataroot, "dataroot", envOr("OCCLUDE_DATAROOT", "."), "directory holding <sample>.json manifests")
	root.PersistentFlags().StringVar(&ro.dbPath, "db", os.Getenv("OCCLUDE_DB"), "sqlite run history database (optional)")
	root.PersistentFlags().BoolVarP(&ro.quiet, "quiet", "q", false, "suppress progress logging")

	root.AddCommand(
		newSampleCmd(ro, "radar"),
		newSampleCmd(ro, "lidar"),
		newBatchCmd(ro),
		newRunsCmd(ro),
		newPresetsCmd(),
		newVersionCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (ro *rootOptions) openStore() (*sqlite.Store, error) {
	if ro.dbPath == "" {
		return nil, nil
	}
	return sqlite.Open(ro.dbPath)
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in occlusion presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, p := range config.Presets() {
				fmt.Fprintf(w, "%-24s %s\n", p.Name, p.Description)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newRunsCmd(ro *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			store, err := ro.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				r, err := store.GetRun(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "run %s\n  created  %s\n  modality %s\n  sample   %s\n  seed     %d\n  policy   %s\n  status   %s %s\n  points   %d -> %d\n",
					r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Modality, r.SampleID, r.Seed, r.Policy, r.Status, r.Error, r.InputPoints, r.OutputPoints)
				for _, sc := range r.Sensors {
					fmt.Fprintf(w, "  %-18s %6d -> %6d\n", sc.Sensor, sc.InputPoints, sc.OutputPoints)
				}
				return nil
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %-14s  %-5s  %-20s  %6d -> %6d  %s\n",
					r.RunID, humanize.Time(r.CreatedAt), r.Modality, r.SampleID, r.InputPoints, r.OutputPoints, r.Status)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

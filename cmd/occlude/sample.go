package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/banshee-data/occlusion.sim/internal/config"
	"github.com/banshee-data/occlusion.sim/internal/dataset"
	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/report"
	"github.com/banshee-data/occlusion.sim/internal/runner"
	"github.com/banshee-data/occlusion.sim/internal/storage/sqlite"
)

type sampleOptions struct {
	policyFlags
	sample     string
	out        string
	plot       string
	reportPath string
}

func newSampleCmd(ro *rootOptions, modality string) *cobra.Command {
	so := &sampleOptions{}
	cmd := &cobra.Command{
		Use:   modality + " --sample ID",
		Short: fmt.Sprintf("Occlude one sample's %s point cloud", modality),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd.Context(), cmd, ro, so, occlusion.Modality(modality))
		},
	}
	so.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&so.sample, "sample", "s", "", "sample id (manifest name without .json)")
	f.StringVarP(&so.out, "out", "o", "", "write the occluded cloud to this .pcd or .bin file")
	f.StringVar(&so.plot, "plot", "", "write a bird's-eye PNG to this path")
	f.StringVar(&so.reportPath, "report", "", "write an HTML report to this path")
	_ = cmd.MarkFlagRequired("sample")
	return cmd
}

// checkModality rejects a preset or config written for the other modality.
func checkModality(cfg *config.OcclusionConfig, want occlusion.Modality) error {
	if cfg.Modality != nil && *cfg.Modality != "" && occlusion.Modality(*cfg.Modality) != want {
		return fmt.Errorf("configuration is for %s, not %s", *cfg.Modality, want)
	}
	return nil
}

func runSample(ctx context.Context, cmd *cobra.Command, ro *rootOptions, so *sampleOptions, modality occlusion.Modality) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := so.resolve(cmd)
	if err != nil {
		return err
	}
	if err := checkModality(cfg, modality); err != nil {
		return err
	}
	policy, err := cfg.Occlusion()
	if err != nil {
		return err
	}
	pipeline, err := occlusion.PipelineFor(modality)
	if err != nil {
		return err
	}
	if err := pipeline.Check(policy); err != nil {
		return err
	}

	src := dataset.NewManifestSource(ro.dataroot)
	src.MinDistance = cfg.GetMinDistance()
	src.RadarFilters = cfg.GetUseRadarFilters()
	inputs, err := src.LoadSensors(ctx, so.sample, pipeline.Sensors, cfg.GetSweeps())
	if err != nil {
		return fmt.Errorf("load %s sample %s: %w", modality, so.sample, err)
	}
	before, _ := occlusion.NewAggregator(pipeline.Sensors).Aggregate(inputs, occlusion.Config{}, nil)

	monitoring.Logf("%s %s: policy %s, seed %d", modality, so.sample, policy, cfg.GetSeed())
	res, err := pipeline.Run(inputs, policy, rand.New(rand.NewSource(cfg.GetSeed())))
	if err != nil {
		return err
	}
	for _, w := range res.Stats.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Compare(before, res.Cloud).String())

	if so.out != "" {
		if err := dataset.WriteCloud(fsutil.OSFileSystem{}, so.out, res.Cloud); err != nil {
			return err
		}
		logWrote(so.out)
	}
	title := fmt.Sprintf("%s %s: %s", modality, so.sample, policy)
	if so.plot != "" {
		if err := os.MkdirAll(filepath.Dir(so.plot), 0755); err != nil {
			return err
		}
		if err := report.PlotBirdsEye(before, res.Cloud, title, so.plot); err != nil {
			return err
		}
		logWrote(so.plot)
	}
	if so.reportPath != "" {
		if err := writeHTMLReport(so.reportPath, before, res.Cloud, title); err != nil {
			return err
		}
		logWrote(so.reportPath)
	}

	store, err := ro.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		run := sqlite.NewRun(modality, so.sample, cfg.GetSeed(), runner.ConfigJSON(cfg), policy, res)
		if err := store.InsertRun(run); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s\n", run.RunID)
	}
	return nil
}

func logWrote(path string) {
	if info, err := os.Stat(path); err == nil {
		monitoring.Logf("wrote %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}
}

func writeHTMLReport(path string, before, after occlusion.PointCloud, title string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteHTML(f, before, after, title)
}

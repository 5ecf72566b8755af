package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/banshee-data/occlusion.sim/internal/dataset"
	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/runner"
)

type batchOptions struct {
	policyFlags
	modality string
	samples  []string
	workers  int
	outDir   string
	format   string
	failFast bool
}

func newBatchCmd(ro *rootOptions) *cobra.Command {
	bo := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Occlude many samples in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ro, bo)
		},
	}
	bo.register(cmd)
	f := cmd.Flags()
	f.StringVar(&bo.modality, "modality", "", "radar or lidar (default from config, else radar)")
	f.StringSliceVar(&bo.samples, "samples", nil, "sample ids (default: every manifest under --dataroot)")
	f.IntVarP(&bo.workers, "workers", "j", 0, "parallel workers (default GOMAXPROCS)")
	f.StringVar(&bo.outDir, "out-dir", "", "write each occluded cloud under this directory")
	f.StringVar(&bo.format, "format", "pcd", "output format: pcd or bin")
	f.BoolVar(&bo.failFast, "fail-fast", false, "stop at the first failed sample")
	return cmd
}

func runBatch(cmd *cobra.Command, ro *rootOptions, bo *batchOptions) error {
	cfg, err := bo.resolve(cmd)
	if err != nil {
		return err
	}
	modality := cfg.GetModality()
	if bo.modality != "" {
		modality = occlusion.Modality(bo.modality)
		if err := checkModality(cfg, modality); err != nil {
			return err
		}
	}
	pipeline, err := occlusion.PipelineFor(modality)
	if err != nil {
		return err
	}
	policy, err := cfg.Occlusion()
	if err != nil {
		return err
	}
	if bo.format != "pcd" && bo.format != "bin" {
		return fmt.Errorf("--format must be pcd or bin, got %q", bo.format)
	}

	src := dataset.NewManifestSource(ro.dataroot)
	src.MinDistance = cfg.GetMinDistance()
	src.RadarFilters = cfg.GetUseRadarFilters()

	samples := bo.samples
	if len(samples) == 0 {
		if samples, err = dataset.ListSamples(src.FS, ro.dataroot); err != nil {
			return err
		}
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples under %s", ro.dataroot)
	}

	r := &runner.Runner{
		Source:     src,
		Pipeline:   pipeline,
		Config:     policy,
		Seed:       cfg.GetSeed(),
		Sweeps:     cfg.GetSweeps(),
		Workers:    bo.workers,
		OutDir:     bo.outDir,
		OutFormat:  bo.format,
		FS:         fsutil.OSFileSystem{},
		ConfigJSON: runner.ConfigJSON(cfg),
		FailFast:   bo.failFast,
	}
	store, err := ro.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		r.Store = store
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := r.Run(ctx, samples)
	w := cmd.OutOrStdout()
	var failed []string
	in, out := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.SampleID)
			fmt.Fprintf(w, "%-24s FAILED %v\n", res.SampleID, res.Err)
			continue
		}
		in += res.Stats.InputPoints
		out += res.Stats.OutputPoints
		fmt.Fprintf(w, "%-24s %7d -> %7d\n", res.SampleID, res.Stats.InputPoints, res.Stats.OutputPoints)
	}
	fmt.Fprintf(w, "%d samples, %d failed, %s -> %s points (%s)\n", len(results), len(failed), humanize.Comma(int64(in)), humanize.Comma(int64(out)), policy)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d samples failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/occlusion.sim/internal/config"
)

// policyFlags are the occlusion options settable from the command line.
// Only flags the user changed override the preset and config file.
type policyFlags struct {
	preset     string
	configPath string

	seed        int64
	sweeps      int
	minDistance float64
	radarFilter bool

	dropSensors []string
	randomDrop  bool
	drop        float64
	dropScope   string
	target      string

	noise       float64
	noiseScope  string
	noiseTarget string

	region     string
	regionDrop float64
	boundary   string
	angle      float64

	rcsScale float64
}

func (pf *policyFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pf.preset, "preset", "", "start from a built-in preset (see `occlude presets`)")
	f.StringVarP(&pf.configPath, "config", "c", "", "occlusion config file (.json, .yaml)")

	f.Int64Var(&pf.seed, "seed", config.DefaultSeed, "random seed")
	f.IntVar(&pf.sweeps, "sweeps", config.DefaultSweeps, "sweeps to accumulate per sensor")
	f.Float64Var(&pf.minDistance, "min-distance", config.DefaultMinDistance, "remove returns within this square radius of each sensor (m)")
	f.BoolVar(&pf.radarFilter, "radar-filters", false, "keep only valid, unambiguous radar returns (invalid_state 0, dyn_prop 0-6, ambig_state 3)")

	f.StringSliceVar(&pf.dropSensors, "drop-sensors", nil, "sensors to remove entirely")
	f.BoolVar(&pf.randomDrop, "random-drop-sensor", false, "remove one randomly chosen sensor")
	f.Float64Var(&pf.drop, "drop", 0, "percentage of points to drop (region percentage when --region is set)")
	f.StringVar(&pf.dropScope, "drop-scope", "", "all_sensors or single_sensor")
	f.StringVar(&pf.target, "target", "", "sensor for single_sensor drop scope")

	f.Float64Var(&pf.noise, "noise", 0, "Gaussian noise std dev in meters (enables noise)")
	f.StringVar(&pf.noiseScope, "noise-scope", "", "all_sensors or single_sensor")
	f.StringVar(&pf.noiseTarget, "noise-target", "", "sensor for single_sensor noise scope")

	f.StringVar(&pf.region, "region", "", "front, back, left or right")
	f.Float64Var(&pf.regionDrop, "region-drop", 0, "percentage removed inside --region")
	f.StringVar(&pf.boundary, "boundary", "", "half_plane or sector")
	f.Float64Var(&pf.angle, "angle", 0, "angular width in degrees around the region centre (enables angle mode)")

	f.Float64Var(&pf.rcsScale, "rcs-scale", 0, "multiply radar RCS by this factor (enables RCS scaling)")
}

// resolve layers preset, config file and changed flags, in that order.
func (pf *policyFlags) resolve(cmd *cobra.Command) (*config.OcclusionConfig, error) {
	cfg := config.EmptyOcclusionConfig()
	if pf.preset != "" {
		p, err := config.LookupPreset(pf.preset)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(p)
	}
	if pf.configPath != "" {
		fileCfg, err := config.LoadOcclusionConfig(pf.configPath)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(pf.overrides(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (pf *policyFlags) overrides(cmd *cobra.Command) *config.OcclusionConfig {
	changed := cmd.Flags().Changed
	o := config.EmptyOcclusionConfig()
	if changed("seed") {
		o.Seed = &pf.seed
	}
	if changed("sweeps") {
		o.Sweeps = &pf.sweeps
	}
	if changed("min-distance") {
		o.MinDistance = &pf.minDistance
	}
	if changed("radar-filters") {
		o.UseRadarFilters = &pf.radarFilter
	}
	if changed("drop-sensors") {
		o.SensorsToDrop = append([]string{}, pf.dropSensors...)
	}
	if changed("random-drop-sensor") {
		o.RandomDropOneSensor = &pf.randomDrop
	}
	if changed("drop") {
		o.DropPercentage = &pf.drop
	}
	if changed("drop-scope") {
		o.DropScope = &pf.dropScope
	}
	if changed("target") {
		o.TargetSensor = &pf.target
	}
	if changed("noise") {
		on := pf.noise > 0
		o.AddGaussianNoise = &on
		o.NoiseStd = &pf.noise
	}
	if changed("noise-scope") {
		o.NoiseScope = &pf.noiseScope
	}
	if changed("noise-target") {
		o.NoiseTarget = &pf.noiseTarget
	}
	if changed("region") {
		o.Region = &pf.region
	}
	if changed("region-drop") {
		o.RegionDropPercentage = &pf.regionDrop
	}
	if changed("boundary") {
		o.RegionBoundary = &pf.boundary
	}
	if changed("angle") {
		on := true
		o.AngleMode = &on
		o.AngleRangeDegrees = &pf.angle
	}
	if changed("rcs-scale") {
		on := true
		o.ScaleRCS = &on
		o.RCSScale = &pf.rcsScale
	}
	return o
}

package occlusion

import (
	"context"
	"fmt"

	"github.com/banshee-data/occlusion.sim/internal/monitoring"
)

// Stats summarises what a pipeline run removed or perturbed.
type Stats struct {
	InputPoints    int
	OutputPoints   int
	DroppedSensors []SensorID
	SensorDropped  int // Points lost with whole sensors
	PointDropped   int // Points removed by percentage dropout
	RegionDropped  int // Points removed by region or angle removal
	NoisedPoints   int
	ScaledPoints   int
	InputBySensor  map[SensorID]int
	OutputBySensor map[SensorID]int
	Warnings       []UnknownSensorWarning
}

// Result is the degraded cloud plus run statistics. An empty cloud is a
// valid result.
type Result struct {
	Cloud PointCloud
	Stats Stats
}

// Pipeline applies an occlusion Config to one sample's sensors.
type Pipeline struct {
	Modality   Modality
	Sensors    []SensorID
	aggregator *Aggregator
}

// NewPipeline returns a pipeline for the given modality and default sensors.
func NewPipeline(m Modality, sensors []SensorID) *Pipeline {
	return &Pipeline{
		Modality:   m,
		Sensors:    append([]SensorID(nil), sensors...),
		aggregator: NewAggregator(sensors),
	}
}

// NewRadarPipeline returns a pipeline over the five radar sensors.
func NewRadarPipeline() *Pipeline { return NewPipeline(ModalityRadar, RadarSensors) }

// NewLidarPipeline returns a pipeline over the top LiDAR.
func NewLidarPipeline() *Pipeline { return NewPipeline(ModalityLidar, LidarSensors) }

// PipelineFor returns the default pipeline for a modality.
func PipelineFor(m Modality) (*Pipeline, error) {
	switch m {
	case ModalityRadar:
		return NewRadarPipeline(), nil
	case ModalityLidar:
		return NewLidarPipeline(), nil
	}
	return nil, fmt.Errorf("unknown modality %q", m)
}

// Check reports configuration that is valid in general but not for this
// pipeline's modality.
func (p *Pipeline) Check(cfg Config) error {
	if cfg.opts.ScaleRCS && p.Modality != ModalityRadar {
		return configErrorf("scale_rcs", "only supported for radar, pipeline is %s", p.Modality)
	}
	return nil
}

// Run applies cfg to inputs in the fixed order: whole-sensor loss,
// percentage dropout, region or angle removal, Gaussian noise, RCS scaling.
// A nil rng is replaced by one source seeded with FallbackSeed, shared by
// every stage.
func (p *Pipeline) Run(inputs map[SensorID]PointCloud, cfg Config, rng Rand) (Result, error) {
	if err := p.Check(cfg); err != nil {
		return Result{}, err
	}
	rng = orFallback(rng)
	opts := cfg.opts

	cloud, agg := p.aggregator.Aggregate(inputs, cfg, rng)
	stats := Stats{
		DroppedSensors: agg.Dropped,
		Warnings:       agg.Warnings,
		InputBySensor:  agg.Counts,
	}
	for _, n := range agg.Counts {
		stats.InputPoints += n
	}
	stats.SensorDropped = stats.InputPoints - cloud.Len()

	if pct := cfg.pointDropPct; pct > 0 {
		pool := p.scopeIndices(cloud, opts.DropScope, opts.TargetSensor, "drop")
		drop := SelectDropIndicesFrom(pool, pct, rng)
		cloud = cloud.Without(drop)
		stats.PointDropped = len(drop)
	}

	if opts.Region != RegionNone && cfg.regionDropPct > 0 {
		drop := SelectDropIndicesFrom(RegionIndices(cloud, cfg), cfg.regionDropPct, rng)
		cloud = cloud.Without(drop)
		stats.RegionDropped = len(drop)
	}

	if opts.AddGaussianNoise {
		idx := p.scopeIndices(cloud, opts.NoiseScope, cfg.noiseTarget, "noise")
		cloud = InjectAt(cloud, idx, opts.NoiseStd, rng)
		stats.NoisedPoints = len(idx)
	}

	if opts.ScaleRCS {
		idx := cloud.AllIndices()
		if cloud.ChannelIndex(ChannelRCS) < 0 {
			monitoring.Warnf("rcs scaling requested but cloud has no %q channel", ChannelRCS)
			idx = nil
		}
		cloud = ScaleChannel(cloud, ChannelRCS, idx, opts.RCSScale)
		stats.ScaledPoints = len(idx)
	}

	stats.OutputPoints = cloud.Len()
	stats.OutputBySensor = cloud.CountBySensor()
	return Result{Cloud: cloud, Stats: stats}, nil
}

// scopeIndices returns every index for all_sensors scope, or the target
// sensor's indices for single_sensor scope.
func (p *Pipeline) scopeIndices(cloud PointCloud, scope Scope, target SensorID, what string) []int {
	if scope != ScopeSingleSensor {
		return cloud.AllIndices()
	}
	idx := cloud.IndicesOf(target)
	if len(idx) == 0 {
		monitoring.Warnf("%s target sensor %s has no points, nothing to do", what, target)
	}
	return idx
}

// Occlude loads sampleID's sensors from src and runs the pipeline on them.
func (p *Pipeline) Occlude(ctx context.Context, src Source, sampleID string, nsweeps int, cfg Config, rng Rand) (Result, error) {
	if err := p.Check(cfg); err != nil {
		return Result{}, err
	}
	inputs, err := src.LoadSensors(ctx, sampleID, p.Sensors, nsweeps)
	if err != nil {
		return Result{}, fmt.Errorf("load %s sample %s: %w", p.Modality, sampleID, err)
	}
	return p.Run(inputs, cfg, rng)
}

// GetRadarOcclusion loads a sample's radar sweeps and applies cfg.
func GetRadarOcclusion(ctx context.Context, src Source, sampleID string, nsweeps int, cfg Config, rng Rand) (Result, error) {
	return NewRadarPipeline().Occlude(ctx, src, sampleID, nsweeps, cfg, rng)
}

// GetLidarOcclusion loads a sample's LiDAR sweeps and applies cfg.
func GetLidarOcclusion(ctx context.Context, src Source, sampleID string, nsweeps int, cfg Config, rng Rand) (Result, error) {
	return NewLidarPipeline().Occlude(ctx, src, sampleID, nsweeps, cfg, rng)
}

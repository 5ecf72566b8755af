package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// DefaultConfigPath is the shipped example occlusion config.
const DefaultConfigPath = "config/occlusion.example.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Defaults for keys that are not occlusion options.
const (
	DefaultSeed        int64   = 42
	DefaultSweeps              = 1
	DefaultMinDistance float64 = 1.0
)

// OcclusionConfig is the on-disk form of an occlusion experiment. Keys are
// flat snake_case and every field is optional, so partial files and CLI
// overrides can be layered with Merge.
type OcclusionConfig struct {
	Modality    *string  `json:"modality,omitempty" yaml:"modality,omitempty"`
	Seed        *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Sweeps      *int     `json:"sweeps,omitempty" yaml:"sweeps,omitempty"`
	MinDistance *float64 `json:"min_distance,omitempty" yaml:"min_distance,omitempty"`

	// UseRadarFilters keeps only valid, unambiguous radar returns when
	// loading radar sweeps.
	UseRadarFilters *bool `json:"use_radar_filters,omitempty" yaml:"use_radar_filters,omitempty"`

	// Sensor loss
	SensorsToDrop       []string `json:"sensors_to_drop,omitempty" yaml:"sensors_to_drop,omitempty"`
	RandomDropOneSensor *bool    `json:"random_drop_one_sensor,omitempty" yaml:"random_drop_one_sensor,omitempty"`

	// Point dropout
	DropPercentage *float64 `json:"drop_percentage,omitempty" yaml:"drop_percentage,omitempty"`
	DropScope      *string  `json:"drop_scope,omitempty" yaml:"drop_scope,omitempty"`
	TargetSensor   *string  `json:"target_sensor,omitempty" yaml:"target_sensor,omitempty"`

	// Noise
	AddGaussianNoise *bool    `json:"add_gaussian_noise,omitempty" yaml:"add_gaussian_noise,omitempty"`
	NoiseScope       *string  `json:"noise_scope,omitempty" yaml:"noise_scope,omitempty"`
	NoiseTarget      *string  `json:"noise_target,omitempty" yaml:"noise_target,omitempty"`
	NoiseStd         *float64 `json:"noise_std,omitempty" yaml:"noise_std,omitempty"`

	// Region and angle removal
	Region               *string  `json:"region,omitempty" yaml:"region,omitempty"`
	RegionDropPercentage *float64 `json:"region_drop_percentage,omitempty" yaml:"region_drop_percentage,omitempty"`
	RegionBoundary       *string  `json:"region_boundary,omitempty" yaml:"region_boundary,omitempty"`
	AngleMode            *bool    `json:"angle_mode,omitempty" yaml:"angle_mode,omitempty"`
	AngleRangeDegrees    *float64 `json:"angle_range_degrees,omitempty" yaml:"angle_range_degrees,omitempty"`

	// Radar attenuation
	ScaleRCS *bool    `json:"scale_rcs,omitempty" yaml:"scale_rcs,omitempty"`
	RCSScale *float64 `json:"rcs_scale,omitempty" yaml:"rcs_scale,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyOcclusionConfig returns an OcclusionConfig with all fields nil.
func EmptyOcclusionConfig() *OcclusionConfig {
	return &OcclusionConfig{}
}

// LoadOcclusionConfig loads an OcclusionConfig from a .json, .yaml or .yml
// file of at most 1MB. Omitted keys keep their defaults.
func LoadOcclusionConfig(path string) (*OcclusionConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseOcclusionConfig(data, strings.TrimPrefix(ext, "."))
}

// ParseOcclusionConfig decodes data as "json" or "yaml" and validates it.
// Unknown keys are rejected so typos do not silently disable a policy.
func ParseOcclusionConfig(data []byte, format string) (*OcclusionConfig, error) {
	cfg := EmptyOcclusionConfig()
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up towards the repository root. Panics if not found, intended
// for test setup.
func MustLoadDefaultConfig() *OcclusionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/occlude/
	}
	for _, path := range candidates {
		if cfg, err := LoadOcclusionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the non-occlusion keys and then builds the occlusion
// policy, returning its *occlusion.ConfigurationError unchanged.
func (c *OcclusionConfig) Validate() error {
	if c.Modality != nil {
		switch occlusion.Modality(*c.Modality) {
		case occlusion.ModalityRadar, occlusion.ModalityLidar:
		default:
			return fmt.Errorf("modality must be radar or lidar, got %q", *c.Modality)
		}
	}
	if c.Sweeps != nil && *c.Sweeps < 1 {
		return fmt.Errorf("sweeps must be at least 1, got %d", *c.Sweeps)
	}
	if c.MinDistance != nil && *c.MinDistance < 0 {
		return fmt.Errorf("min_distance must be non-negative, got %f", *c.MinDistance)
	}
	_, err := c.Occlusion()
	return err
}

// Merge returns a deep copy of c with every non-nil field of other applied
// on top. Neither input is modified.
func (c *OcclusionConfig) Merge(other *OcclusionConfig) *OcclusionConfig {
	out := EmptyOcclusionConfig()
	out.overlay(c)
	if other != nil {
		out.overlay(other)
	}
	return out
}

func (c *OcclusionConfig) overlay(other *OcclusionConfig) {
	if other.SensorsToDrop != nil {
		c.SensorsToDrop = append([]string{}, other.SensorsToDrop...)
	}
	mergeString(&c.Modality, other.Modality)
	mergeInt64(&c.Seed, other.Seed)
	mergeInt(&c.Sweeps, other.Sweeps)
	mergeFloat(&c.MinDistance, other.MinDistance)
	mergeBool(&c.UseRadarFilters, other.UseRadarFilters)
	mergeBool(&c.RandomDropOneSensor, other.RandomDropOneSensor)
	mergeFloat(&c.DropPercentage, other.DropPercentage)
	mergeString(&c.DropScope, other.DropScope)
	mergeString(&c.TargetSensor, other.TargetSensor)
	mergeBool(&c.AddGaussianNoise, other.AddGaussianNoise)
	mergeString(&c.NoiseScope, other.NoiseScope)
	mergeString(&c.NoiseTarget, other.NoiseTarget)
	mergeFloat(&c.NoiseStd, other.NoiseStd)
	mergeString(&c.Region, other.Region)
	mergeFloat(&c.RegionDropPercentage, other.RegionDropPercentage)
	mergeString(&c.RegionBoundary, other.RegionBoundary)
	mergeBool(&c.AngleMode, other.AngleMode)
	mergeFloat(&c.AngleRangeDegrees, other.AngleRangeDegrees)
	mergeBool(&c.ScaleRCS, other.ScaleRCS)
	mergeFloat(&c.RCSScale, other.RCSScale)
}

func mergeString(dst **string, src *string) {
	if src != nil {
		*dst = ptrString(*src)
	}
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		*dst = ptrFloat64(*src)
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		*dst = ptrBool(*src)
	}
}

func mergeInt(dst **int, src *int) {
	if src != nil {
		*dst = ptrInt(*src)
	}
}

func mergeInt64(dst **int64, src *int64) {
	if src != nil {
		*dst = ptrInt64(*src)
	}
}

// ToOptions converts the file form into occlusion.Options without validating.
func (c *OcclusionConfig) ToOptions() occlusion.Options {
	o := occlusion.Options{
		RandomDropOneSensor: boolOr(c.RandomDropOneSensor, false),
		DropPercentage:      floatOr(c.DropPercentage, 0),
		DropScope:           occlusion.Scope(stringOr(c.DropScope, "")),
		TargetSensor:        occlusion.SensorID(stringOr(c.TargetSensor, "")),
		AddGaussianNoise:    boolOr(c.AddGaussianNoise, false),
		NoiseScope:          occlusion.Scope(stringOr(c.NoiseScope, "")),
		NoiseTarget:         occlusion.SensorID(stringOr(c.NoiseTarget, "")),
		NoiseStd:            c.GetNoiseStd(),
		Region:              occlusion.Region(stringOr(c.Region, "")),
		RegionBoundary:      occlusion.Boundary(stringOr(c.RegionBoundary, "")),
		AngleMode:           boolOr(c.AngleMode, false),
		AngleRangeDegrees:   c.GetAngleRangeDegrees(),
		ScaleRCS:            boolOr(c.ScaleRCS, false),
		RCSScale:            c.GetRCSScale(),
	}
	for _, s := range c.SensorsToDrop {
		o.SensorsToDrop = append(o.SensorsToDrop, occlusion.SensorID(s))
	}
	if c.RegionDropPercentage != nil {
		o.RegionDropPercentage = ptrFloat64(*c.RegionDropPercentage)
	}
	return o
}

// Occlusion validates the occlusion keys and returns the immutable policy.
func (c *OcclusionConfig) Occlusion() (occlusion.Config, error) {
	return occlusion.NewConfig(c.ToOptions())
}

// GetModality returns the modality, or radar when unset.
func (c *OcclusionConfig) GetModality() occlusion.Modality {
	if c.Modality == nil || *c.Modality == "" {
		return occlusion.ModalityRadar // default
	}
	return occlusion.Modality(*c.Modality)
}

// GetSeed returns the seed value or the default.
func (c *OcclusionConfig) GetSeed() int64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

// GetSweeps returns the sweeps value or the default.
func (c *OcclusionConfig) GetSweeps() int {
	if c.Sweeps == nil {
		return DefaultSweeps
	}
	return *c.Sweeps
}

// GetMinDistance returns the min_distance value or the default.
func (c *OcclusionConfig) GetMinDistance() float64 {
	if c.MinDistance == nil {
		return DefaultMinDistance
	}
	return *c.MinDistance
}

// GetUseRadarFilters returns use_radar_filters, default false.
func (c *OcclusionConfig) GetUseRadarFilters() bool {
	return boolOr(c.UseRadarFilters, false)
}

// GetNoiseStd returns the noise_std value or 0.
func (c *OcclusionConfig) GetNoiseStd() float64 {
	return floatOr(c.NoiseStd, 0)
}

// GetAngleRangeDegrees returns the angle_range_degrees value or 90.
func (c *OcclusionConfig) GetAngleRangeDegrees() float64 {
	return floatOr(c.AngleRangeDegrees, 90)
}

// GetRCSScale returns the rcs_scale value or 0.
func (c *OcclusionConfig) GetRCSScale() float64 {
	return floatOr(c.RCSScale, 0)
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

package occlusion

import (
	"fmt"
	"math"
	"strings"
)

// Region is a named partition of the ego frame.
type Region string

const (
	RegionNone  Region = ""
	RegionFront Region = "front"
	RegionBack  Region = "back"
	RegionLeft  Region = "left"
	RegionRight Region = "right"
)

// Regions lists the directional regions in a fixed order.
var Regions = []Region{RegionFront, RegionBack, RegionLeft, RegionRight}

// ParseRegion accepts "front", "back", "left", "right", and "" or "none".
func ParseRegion(s string) (Region, error) {
	switch r := Region(strings.ToLower(strings.TrimSpace(s))); r {
	case RegionFront, RegionBack, RegionLeft, RegionRight:
		return r, nil
	case RegionNone, "none":
		return RegionNone, nil
	}
	return RegionNone, configErrorf("region", "unknown region %q (want front, back, left, right or none)", s)
}

// Scope selects whether a policy applies to every sensor or to one.
type Scope string

const (
	ScopeAllSensors   Scope = "all_sensors"
	ScopeSingleSensor Scope = "single_sensor"
)

// ParseScope accepts "all_sensors" and "single_sensor". Empty means all.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "", ScopeAllSensors:
		return ScopeAllSensors, nil
	case ScopeSingleSensor:
		return sc, nil
	}
	return "", configErrorf("scope", "unknown scope %q (want all_sensors or single_sensor)", s)
}

// Boundary selects the geometry used by Classify.
type Boundary string

const (
	// BoundaryHalfPlane splits on the sign of x (front/back) or y (left/right).
	// Front and left overlap in the first quadrant.
	BoundaryHalfPlane Boundary = "half_plane"
	// BoundarySector splits into four 90 degree wedges centred on the axes,
	// a disjoint partition of every non-origin point.
	BoundarySector Boundary = "sector"
)

// ParseBoundary accepts "half_plane" and "sector". Empty means half_plane.
func ParseBoundary(s string) (Boundary, error) {
	switch b := Boundary(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BoundaryHalfPlane:
		return BoundaryHalfPlane, nil
	case BoundarySector:
		return b, nil
	}
	return "", configErrorf("region_boundary", "unknown boundary %q (want half_plane or sector)", s)
}

// Options is the plain, unvalidated form of an occlusion policy.
// Build a Config from it with NewConfig.
type Options struct {
	// Whole-sensor loss. SensorsToDrop takes precedence over RandomDropOneSensor.
	SensorsToDrop       []SensorID
	RandomDropOneSensor bool

	// Percentage point dropout over DropScope.
	DropPercentage float64
	DropScope      Scope
	TargetSensor   SensorID

	// Gaussian coordinate noise over NoiseScope. NoiseTarget defaults to
	// TargetSensor when empty.
	AddGaussianNoise bool
	NoiseScope       Scope
	NoiseTarget      SensorID
	NoiseStd         float64

	// Region removal. When Region is set and RegionDropPercentage is nil,
	// DropPercentage is the region percentage and no whole-scope drop runs.
	Region               Region
	RegionDropPercentage *float64
	RegionBoundary       Boundary
	AngleMode            bool
	AngleRangeDegrees    float64

	// Radar signal attenuation: multiply the rcs channel by RCSScale.
	ScaleRCS bool
	RCSScale float64
}

// Config is a validated, immutable occlusion policy.
// The zero Config is valid and applies no occlusion.
type Config struct {
	opts Options

	pointDropPct  float64
	regionDropPct float64
	noiseTarget   SensorID
}

// NewConfig validates opts and returns the immutable Config. Any failure is
// a *ConfigurationError.
func NewConfig(opts Options) (Config, error) {
	opts.SensorsToDrop = append([]SensorID(nil), opts.SensorsToDrop...)
	if opts.RegionDropPercentage != nil {
		v := *opts.RegionDropPercentage
		opts.RegionDropPercentage = &v
	}

	for _, s := range opts.SensorsToDrop {
		if strings.TrimSpace(string(s)) == "" {
			return Config{}, configErrorf("sensors_to_drop", "empty sensor name")
		}
	}

	if err := checkPercentage("drop_percentage", opts.DropPercentage); err != nil {
		return Config{}, err
	}
	if opts.RegionDropPercentage != nil {
		if err := checkPercentage("region_drop_percentage", *opts.RegionDropPercentage); err != nil {
			return Config{}, err
		}
	}

	var err error
	if opts.DropScope, err = ParseScope(string(opts.DropScope)); err != nil {
		return Config{}, fieldRename(err, "drop_scope")
	}
	if opts.NoiseScope, err = ParseScope(string(opts.NoiseScope)); err != nil {
		return Config{}, fieldRename(err, "noise_scope")
	}
	if opts.Region, err = ParseRegion(string(opts.Region)); err != nil {
		return Config{}, err
	}
	if opts.RegionBoundary, err = ParseBoundary(string(opts.RegionBoundary)); err != nil {
		return Config{}, err
	}

	cfg := Config{opts: opts, pointDropPct: opts.DropPercentage}
	if opts.Region != RegionNone {
		if opts.RegionDropPercentage != nil {
			cfg.regionDropPct = *opts.RegionDropPercentage
		} else {
			cfg.regionDropPct = opts.DropPercentage
			cfg.pointDropPct = 0
		}
	}

	if opts.DropScope == ScopeSingleSensor && cfg.pointDropPct > 0 && opts.TargetSensor == "" {
		return Config{}, configErrorf("target_sensor", "required when drop_scope is single_sensor")
	}

	if math.IsNaN(opts.NoiseStd) || opts.NoiseStd < 0 {
		return Config{}, configErrorf("noise_std", "must be >= 0, got %v", opts.NoiseStd)
	}
	cfg.noiseTarget = opts.NoiseTarget
	if cfg.noiseTarget == "" {
		cfg.noiseTarget = opts.TargetSensor
	}
	if opts.AddGaussianNoise {
		if opts.NoiseStd <= 0 {
			return Config{}, configErrorf("noise_std", "must be > 0 when add_gaussian_noise is set, got %v", opts.NoiseStd)
		}
		if opts.NoiseScope == ScopeSingleSensor && cfg.noiseTarget == "" {
			return Config{}, configErrorf("noise_target", "required when noise_scope is single_sensor")
		}
	}

	if opts.AngleMode {
		if opts.Region == RegionNone {
			return Config{}, configErrorf("angle_mode", "requires a region")
		}
		a := opts.AngleRangeDegrees
		if math.IsNaN(a) || a <= 0 || a > 360 {
			return Config{}, configErrorf("angle_range_degrees", "must be in (0,360], got %v", a)
		}
	}

	if opts.ScaleRCS && (math.IsNaN(opts.RCSScale) || opts.RCSScale < 0) {
		return Config{}, configErrorf("rcs_scale", "must be >= 0, got %v", opts.RCSScale)
	}

	return cfg, nil
}

// MustConfig is NewConfig for literals known to be valid. It panics on error.
func MustConfig(opts Options) Config {
	cfg, err := NewConfig(opts)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Options returns a copy of the normalised options the Config was built from.
func (c Config) Options() Options {
	o := c.opts
	o.SensorsToDrop = append([]SensorID(nil), c.opts.SensorsToDrop...)
	if c.opts.RegionDropPercentage != nil {
		v := *c.opts.RegionDropPercentage
		o.RegionDropPercentage = &v
	}
	return o
}

// PointDropPercentage is the effective whole-scope dropout percentage.
func (c Config) PointDropPercentage() float64 { return c.pointDropPct }

// RegionDropPercentage is the effective percentage removed inside Region.
func (c Config) RegionDropPercentage() float64 { return c.regionDropPct }

// NoiseTarget is the sensor noised when NoiseScope is single_sensor.
func (c Config) NoiseTarget() SensorID { return c.noiseTarget }

// String summarises the active policies for logs.
func (c Config) String() string {
	var parts []string
	o := c.opts
	if len(o.SensorsToDrop) > 0 {
		parts = append(parts, fmt.Sprintf("drop_sensors=%v", o.SensorsToDrop))
	} else if o.RandomDropOneSensor {
		parts = append(parts, "drop_random_sensor")
	}
	if c.pointDropPct > 0 {
		scope := string(o.DropScope)
		if o.DropScope == ScopeSingleSensor {
			scope = string(o.TargetSensor)
		}
		parts = append(parts, fmt.Sprintf("drop=%g%%(%s)", c.pointDropPct, scope))
	}
	if o.Region != RegionNone {
		if o.AngleMode {
			parts = append(parts, fmt.Sprintf("angle=%s±%g°:%g%%", o.Region, o.AngleRangeDegrees/2, c.regionDropPct))
		} else {
			parts = append(parts, fmt.Sprintf("region=%s(%s):%g%%", o.Region, o.RegionBoundary, c.regionDropPct))
		}
	}
	if o.AddGaussianNoise {
		parts = append(parts, fmt.Sprintf("noise_std=%g", o.NoiseStd))
	}
	if o.ScaleRCS {
		parts = append(parts, fmt.Sprintf("rcs_scale=%g", o.RCSScale))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func checkPercentage(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return configErrorf(field, "must be in [0,100], got %v", v)
	}
	return nil
}

func fieldRename(err error, field string) error {
	if ce, ok := err.(*ConfigurationError); ok {
		return &ConfigurationError{Field: field, Reason: ce.Reason}
	}
	return err
}

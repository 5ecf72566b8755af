package occlusion

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ZeroValueIsNoop(t *testing.T) {
	cfg, err := NewConfig(Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.PointDropPercentage())
	assert.Equal(t, 0.0, cfg.RegionDropPercentage())
	assert.Equal(t, ScopeAllSensors, cfg.Options().DropScope)
	assert.Equal(t, BoundaryHalfPlane, cfg.Options().RegionBoundary)
	assert.Equal(t, "none", cfg.String())
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"negative drop", Options{DropPercentage: -1}, "drop_percentage"},
		{"drop over 100", Options{DropPercentage: 100.5}, "drop_percentage"},
		{"drop NaN", Options{DropPercentage: math.NaN()}, "drop_percentage"},
		{"region drop over 100", Options{Region: RegionLeft, RegionDropPercentage: ptr(101)}, "region_drop_percentage"},
		{"unknown region", Options{Region: "up"}, "region"},
		{"unknown drop scope", Options{DropScope: "some"}, "drop_scope"},
		{"unknown noise scope", Options{NoiseScope: "some"}, "noise_scope"},
		{"unknown boundary", Options{RegionBoundary: "cone"}, "region_boundary"},
		{"noise without std", Options{AddGaussianNoise: true}, "noise_std"},
		{"negative std", Options{NoiseStd: -0.1}, "noise_std"},
		{"single drop without target", Options{DropPercentage: 10, DropScope: ScopeSingleSensor}, "target_sensor"},
		{"single noise without target", Options{AddGaussianNoise: true, NoiseStd: 0.1, NoiseScope: ScopeSingleSensor}, "noise_target"},
		{"angle without region", Options{AngleMode: true, AngleRangeDegrees: 90}, "angle_mode"},
		{"angle zero", Options{Region: RegionFront, AngleMode: true, AngleRangeDegrees: 0}, "angle_range_degrees"},
		{"angle over 360", Options{Region: RegionFront, AngleMode: true, AngleRangeDegrees: 361}, "angle_range_degrees"},
		{"negative rcs scale", Options{ScaleRCS: true, RCSScale: -1}, "rcs_scale"},
		{"empty sensor name", Options{SensorsToDrop: []SensorID{""}}, "sensors_to_drop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)

			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestNewConfig_Valid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"full drop", Options{DropPercentage: 100}},
		{"single sensor drop", Options{DropPercentage: 30, DropScope: ScopeSingleSensor, TargetSensor: RadarFront}},
		{"angle 360", Options{Region: RegionBack, AngleMode: true, AngleRangeDegrees: 360}},
		{"noise target from target sensor", Options{AddGaussianNoise: true, NoiseStd: 0.1, NoiseScope: ScopeSingleSensor, TargetSensor: RadarBackLeft}},
		{"rcs zero scale", Options{ScaleRCS: true, RCSScale: 0}},
		{"noise std without flag", Options{NoiseStd: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opts)
			assert.NoError(t, err)
		})
	}
}

func TestNewConfig_RegionConsumesDropPercentage(t *testing.T) {
	cfg := MustConfig(Options{Region: RegionLeft, DropPercentage: 100})
	assert.Equal(t, 0.0, cfg.PointDropPercentage())
	assert.Equal(t, 100.0, cfg.RegionDropPercentage())

	cfg = MustConfig(Options{Region: RegionLeft, DropPercentage: 20, RegionDropPercentage: ptr(80)})
	assert.Equal(t, 20.0, cfg.PointDropPercentage())
	assert.Equal(t, 80.0, cfg.RegionDropPercentage())
}

func TestNewConfig_NoiseTargetDefaultsToTarget(t *testing.T) {
	cfg := MustConfig(Options{TargetSensor: RadarFront, AddGaussianNoise: true, NoiseStd: 0.2, NoiseScope: ScopeSingleSensor})
	assert.Equal(t, RadarFront, cfg.NoiseTarget())

	cfg = MustConfig(Options{TargetSensor: RadarFront, NoiseTarget: RadarBackRight, AddGaussianNoise: true, NoiseStd: 0.2})
	assert.Equal(t, RadarBackRight, cfg.NoiseTarget())
}

func TestConfig_IsImmutable(t *testing.T) {
	drop := []SensorID{RadarFront}
	region := 50.0
	cfg := MustConfig(Options{SensorsToDrop: drop, Region: RegionFront, RegionDropPercentage: &region})

	drop[0] = RadarBackLeft
	region = 10
	assert.Equal(t, []SensorID{RadarFront}, cfg.Options().SensorsToDrop)
	assert.Equal(t, 50.0, cfg.RegionDropPercentage())

	got := cfg.Options()
	got.SensorsToDrop[0] = RadarBackRight
	*got.RegionDropPercentage = 1
	assert.Equal(t, []SensorID{RadarFront}, cfg.Options().SensorsToDrop)
	assert.Equal(t, 50.0, *cfg.Options().RegionDropPercentage)
}

func TestParseRegion(t *testing.T) {
	for _, s := range []string{"front", "BACK", " left ", "right"} {
		_, err := ParseRegion(s)
		assert.NoError(t, err, s)
	}
	r, err := ParseRegion("none")
	require.NoError(t, err)
	assert.Equal(t, RegionNone, r)

	_, err = ParseRegion("top")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigString(t *testing.T) {
	cfg := MustConfig(Options{
		SensorsToDrop:    []SensorID{RadarBackRight},
		DropPercentage:   25,
		AddGaussianNoise: true,
		NoiseStd:         0.1,
	})
	s := cfg.String()
	assert.Contains(t, s, "drop_sensors=[RADAR_BACK_RIGHT]")
	assert.Contains(t, s, "drop=25%(all_sensors)")
	assert.Contains(t, s, "noise_std=0.1")
}

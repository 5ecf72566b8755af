package config

import (
	"fmt"
	"sort"
)

// Preset is a named, ready-to-run occlusion experiment.
type Preset struct {
	Name        string
	Description string
	Config      *OcclusionConfig
}

var presets = buildPresets()

func buildPresets() map[string]Preset {
	m := map[string]Preset{
		"radar-paper": {
			Name:        "radar-paper",
			Description: "drop RADAR_BACK_RIGHT, 25% dropout and 0.1m noise on the rest",
			Config: &OcclusionConfig{
				Modality:         ptrString("radar"),
				Seed:             ptrInt64(DefaultSeed),
				SensorsToDrop:    []string{"RADAR_BACK_RIGHT"},
				DropPercentage:   ptrFloat64(25),
				AddGaussianNoise: ptrBool(true),
				NoiseStd:         ptrFloat64(0.1),
			},
		},
		"radar-random-sensor": {
			Name:        "radar-random-sensor",
			Description: "lose one randomly chosen radar",
			Config: &OcclusionConfig{
				Modality:            ptrString("radar"),
				RandomDropOneSensor: ptrBool(true),
			},
		},
		"radar-rcs-half": {
			Name:        "radar-rcs-half",
			Description: "halve radar cross-section on every return",
			Config: &OcclusionConfig{
				Modality: ptrString("radar"),
				ScaleRCS: ptrBool(true),
				RCSScale: ptrFloat64(0.5),
			},
		},
	}
	for _, pct := range []int{60, 70, 80, 90} {
		name := fmt.Sprintf("lidar-dropout-%d", pct)
		m[name] = Preset{
			Name:        name,
			Description: fmt.Sprintf("drop %d%% of LiDAR points uniformly", pct),
			Config: &OcclusionConfig{
				Modality:       ptrString("lidar"),
				DropPercentage: ptrFloat64(float64(pct)),
			},
		}
	}
	for _, r := range []string{"front", "back", "left", "right"} {
		name := "lidar-region-" + r
		m[name] = Preset{
			Name:        name,
			Description: fmt.Sprintf("remove every LiDAR point in the %s half-plane", r),
			Config: &OcclusionConfig{
				Modality:       ptrString("lidar"),
				Region:         ptrString(r),
				DropPercentage: ptrFloat64(100),
			},
		}
		name = "lidar-angle-" + r + "-90"
		m[name] = Preset{
			Name:        name,
			Description: fmt.Sprintf("remove LiDAR points within 45 degrees of %s", r),
			Config: &OcclusionConfig{
				Modality:          ptrString("lidar"),
				Region:            ptrString(r),
				DropPercentage:    ptrFloat64(100),
				AngleMode:         ptrBool(true),
				AngleRangeDegrees: ptrFloat64(90),
			},
		}
	}
	return m
}

// LookupPreset returns a copy of the named preset's config.
func LookupPreset(name string) (*OcclusionConfig, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return p.Config.Merge(nil), nil
}

// Presets returns every preset sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
